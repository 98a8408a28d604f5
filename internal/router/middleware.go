package router

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/handlers"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/repository"
)

// SessionLoader resolves the :id route parameter into a screening session and
// stores it in the context. Requests against missing or expired sessions are
// rejected here so handlers can assume a live session.
func SessionLoader(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
			return
		}

		screening, err := repository.GetSession(id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		if screening.Status == models.SessionExpired {
			log.Warn("Request against expired session", zap.Int("sessionID", id))
			c.AbortWithStatusJSON(http.StatusGone, gin.H{"error": "Session expired"})
			return
		}

		c.Set(handlers.SessionContextKey, screening)
		c.Next()
	}
}
