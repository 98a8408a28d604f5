package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/analysis"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/repository"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/saccade"
)

type FramesHandler struct {
	log      *zap.Logger
	registry *Registry
}

func NewFramesHandler(log *zap.Logger, registry *Registry) *FramesHandler {
	return &FramesHandler{log: log, registry: registry}
}

// Timestamp is a pointer so a capture clock starting at zero still binds.
type rawFrame struct {
	Timestamp *float64      `json:"timestamp" binding:"required"`
	LeftIris  *models.Point `json:"leftIris"`
	RightIris *models.Point `json:"rightIris"`
}

type frameBatchRequest struct {
	Frames []rawFrame `json:"frames" binding:"required"`
}

// Ingest feeds a batch of raw tracker frames through the session pipeline.
// Frames are annotated in arrival order and kept in memory until the session
// ends.
func (h *FramesHandler) Ingest(c *gin.Context) {
	screening := c.MustGet(SessionContextKey).(*models.ScreeningSession)

	var req frameBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind frame batch", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	pipeline := h.registry.Pipeline(screening)
	saccadeCount := 0
	for _, f := range req.Frames {
		frame := pipeline.ProcessFrame(*f.Timestamp, f.LeftIris, f.RightIris)
		if frame.IsSaccade {
			saccadeCount++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"processed": len(req.Frames),
		"saccades":  saccadeCount,
		"threshold": pipeline.Threshold(),
	})
}

type trialStartRequest struct {
	Phase       string `json:"phase" binding:"required"`
	Trial       *int   `json:"trial" binding:"required"`
	DotPosition string `json:"dotPosition" binding:"required"`
}

// StartTrial sets the trial context on the pipeline so subsequent frames
// carry the trial annotation. Returns where the dot is drawn and where the
// correct response lands.
func (h *FramesHandler) StartTrial(c *gin.Context) {
	screening := c.MustGet(SessionContextKey).(*models.ScreeningSession)

	var req trialStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind trial start", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}
	if req.Phase != models.PhasePro && req.Phase != models.PhaseAnti {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown phase"})
		return
	}

	pipeline := h.registry.Pipeline(screening)
	pipeline.SetTrialContext(req.Phase, *req.Trial, req.DotPosition)

	c.JSON(http.StatusOK, gin.H{
		"stimulus":  models.StimulusPosition(req.DotPosition),
		"target":    models.TargetPosition(req.Phase, req.DotPosition),
		"threshold": pipeline.Threshold(),
	})
}

type trialCompleteRequest struct {
	Phase        string   `json:"phase" binding:"required"`
	StimulusTime *float64 `json:"stimulusTime" binding:"required"`
}

// CompleteTrial closes the active trial: the trial's frame window is scanned
// for the response saccade, scored, and the result persisted.
func (h *FramesHandler) CompleteTrial(c *gin.Context) {
	screening := c.MustGet(SessionContextKey).(*models.ScreeningSession)

	trial, err := strconv.Atoi(c.Param("trial"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trial number"})
		return
	}

	var req trialCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind trial completion", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}
	if req.Phase != models.PhasePro && req.Phase != models.PhaseAnti {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown phase"})
		return
	}

	pipeline := h.registry.Pipeline(screening)
	frames := pipeline.TrialFrames(req.Phase, trial)
	pipeline.ClearTrialContext()

	if len(frames) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No frames recorded for trial"})
		return
	}

	dotPosition := frames[len(frames)-1].DotPosition

	info := saccade.DetectSaccade(frames, *req.StimulusTime)
	analyzer := analysis.NewAnalyzer(config.Conf.Analysis, screening.CalibrationAccuracy, req.Phase)
	result := analyzer.Score(frames, *req.StimulusTime, info, trial, req.Phase, dotPosition)

	row := models.NewTrialResult(screening.ID, &result)
	if err := repository.SaveTrialResult(&row); err != nil {
		h.log.Error("Failed to save trial result",
			zap.Int("sessionID", screening.ID),
			zap.Int("trial", trial),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save trial result"})
		return
	}

	h.log.Debug("Trial scored",
		zap.Int("sessionID", screening.ID),
		zap.Int("trial", trial),
		zap.String("phase", req.Phase),
		zap.Bool("saccade", result.IsSaccade),
		zap.Float64("latencyMs", result.LatencyMs),
		zap.Float64("accuracy", result.AccuracyScore))

	c.JSON(http.StatusOK, result)
}
