package handlers

import (
	"sync"

	"go.uber.org/zap"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/repository"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/saccade"
)

// Registry holds the live frame pipelines, one per active session. The
// registry mutex covers only map membership; each Pipeline carries its own
// lock, so handlers running on gin's goroutines may use the returned pipeline
// directly.
type Registry struct {
	log *zap.Logger

	mu        sync.Mutex
	pipelines map[int]*saccade.Pipeline
}

// NewRegistry creates an empty pipeline registry.
func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		log:       log,
		pipelines: make(map[int]*saccade.Pipeline),
	}
}

// Pipeline returns the live pipeline for a session, creating one on first use.
// A stored calibration model is loaded if the session already calibrated;
// otherwise the pipeline starts in raw-coordinate fallback until calibration
// completes.
func (r *Registry) Pipeline(session *models.ScreeningSession) *saccade.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pipelines[session.ID]; ok {
		return p
	}

	var model *models.CalibrationModel
	if session.CalibrationAccuracy > 0 {
		stored, err := repository.GetLatestCalibration(session.ID)
		if err != nil {
			r.log.Warn("Failed to load stored calibration, starting uncalibrated",
				zap.Int("sessionID", session.ID), zap.Error(err))
		} else {
			model = stored
		}
	}

	p := saccade.NewPipeline(r.log, config.Conf.Tracking, model, session.ScreenWidth, session.ScreenHeight)
	r.pipelines[session.ID] = p
	return p
}

// SetCalibration swaps the calibration model on a live pipeline, if any.
func (r *Registry) SetCalibration(sessionID int, model *models.CalibrationModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pipelines[sessionID]; ok {
		p.SetCalibrationModel(model)
	}
}

// Remove drops the pipeline of a finished session and returns it so the
// caller can persist the frame stream.
func (r *Registry) Remove(sessionID int) *saccade.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.pipelines[sessionID]
	delete(r.pipelines, sessionID)
	return p
}
