package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/calibration"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/repository"
)

type CalibrationHandler struct {
	log      *zap.Logger
	registry *Registry
}

func NewCalibrationHandler(log *zap.Logger, registry *Registry) *CalibrationHandler {
	return &CalibrationHandler{log: log, registry: registry}
}

type calibrationRequest struct {
	Samples []models.GazeSample `json:"samples" binding:"required"`
}

// Submit takes the full sample set of one calibration run, fits the model and
// stores it. Below-threshold fits are stored too, marked unusable, and the
// response asks the client to recalibrate.
func (h *CalibrationHandler) Submit(c *gin.Context) {
	screening := c.MustGet(SessionContextKey).(*models.ScreeningSession)

	var req calibrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind calibration samples", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	cfg := config.Conf.Calibration
	session := calibration.NewSession(h.log, cfg.MinSamplesPerPoint)
	for _, sample := range req.Samples {
		session.AddSample(sample)
	}

	fitter := &calibration.Fitter{LambdaGrid: cfg.LambdaGrid, CVFolds: cfg.CVFolds}
	result := session.Finish(fitter, screening.ScreenWidth, screening.ScreenHeight, cfg.AccuracyThreshold)

	if err := repository.SaveCalibration(screening.ID, result.Model, result.Fits, result.Usable); err != nil {
		h.log.Error("Failed to save calibration", zap.Int("sessionID", screening.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save calibration"})
		return
	}

	if result.Usable {
		if err := repository.SetSessionCalibration(screening.ID, result.Accuracy); err != nil {
			h.log.Error("Failed to record calibration accuracy",
				zap.Int("sessionID", screening.ID), zap.Error(err))
		}
		h.registry.SetCalibration(screening.ID, result.Model)
	}

	c.JSON(http.StatusOK, gin.H{
		"accuracy":    result.Accuracy,
		"usable":      result.Usable,
		"recalibrate": !result.Usable,
		"fits":        result.Fits,
	})
}
