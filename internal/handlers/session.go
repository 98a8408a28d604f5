package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/repository"
)

// SessionContextKey is where the loader middleware stores the screening
// session for downstream handlers.
const SessionContextKey = "screeningSession"

type SessionHandler struct {
	log      *zap.Logger
	registry *Registry
	protocol *models.Protocol
}

func NewSessionHandler(log *zap.Logger, registry *Registry, protocol *models.Protocol) *SessionHandler {
	return &SessionHandler{log: log, registry: registry, protocol: protocol}
}

type startSessionRequest struct {
	SubjectLabel string  `json:"subjectLabel"`
	ScreenWidth  int     `json:"screenWidth" binding:"required"`
	ScreenHeight int     `json:"screenHeight" binding:"required"`
	TrackerFPS   float64 `json:"trackerFPS"`
}

// Start creates a new screening session and returns the trial protocol the
// client should run.
func (h *SessionHandler) Start(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind session request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	screening := &models.ScreeningSession{
		SubjectLabel: req.SubjectLabel,
		ScreenWidth:  req.ScreenWidth,
		ScreenHeight: req.ScreenHeight,
		TrackerFPS:   req.TrackerFPS,
	}
	if err := repository.CreateSession(screening); err != nil {
		h.log.Error("Failed to create session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	session := sessions.Default(c)
	session.Set("sessionID", screening.ID)
	if err := session.Save(); err != nil {
		h.log.Warn("Failed to save session cookie", zap.Error(err))
	}

	h.log.Info("Screening session started",
		zap.Int("sessionID", screening.ID),
		zap.String("subject", screening.SubjectLabel))

	c.JSON(http.StatusCreated, gin.H{
		"session":  screening,
		"protocol": h.protocol,
	})
}

// Get returns the session loaded by the middleware.
func (h *SessionHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, c.MustGet(SessionContextKey).(*models.ScreeningSession))
}

// End completes a session: the live pipeline is drained, its frame stream is
// persisted, and the session row is closed.
func (h *SessionHandler) End(c *gin.Context) {
	screening := c.MustGet(SessionContextKey).(*models.ScreeningSession)

	if pipeline := h.registry.Remove(screening.ID); pipeline != nil {
		frames := pipeline.Frames()
		records := make([]models.FrameRecord, 0, len(frames))
		for i := range frames {
			records = append(records, models.NewFrameRecord(screening.ID, &frames[i]))
		}
		if err := repository.SaveFrames(records); err != nil {
			h.log.Error("Failed to persist frame stream",
				zap.Int("sessionID", screening.ID),
				zap.Int("frames", len(records)),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to persist frames"})
			return
		}
		h.log.Info("Frame stream persisted",
			zap.Int("sessionID", screening.ID),
			zap.Int("frames", len(records)))
	}

	if err := repository.CompleteSession(screening.ID); err != nil {
		h.log.Error("Failed to complete session", zap.Int("sessionID", screening.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete session"})
		return
	}

	session := sessions.Default(c)
	session.Delete("sessionID")
	session.Save()

	c.JSON(http.StatusOK, gin.H{"status": models.SessionCompleted})
}
