package repository

import (
	"time"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/database"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

// CreateSession inserts a new active screening session.
func CreateSession(session *models.ScreeningSession) error {
	session.Status = models.SessionActive
	return database.DB.Create(session).Error
}

// GetSession fetches one session by ID.
func GetSession(id int) (*models.ScreeningSession, error) {
	var session models.ScreeningSession
	if err := database.DB.First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// CompleteSession marks a session finished.
func CompleteSession(id int) error {
	now := time.Now()
	return database.DB.Model(&models.ScreeningSession{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": models.SessionCompleted, "completed_at": now}).Error
}

// SetSessionCalibration records the accepted calibration accuracy on the
// session row.
func SetSessionCalibration(id int, accuracy float64) error {
	return database.DB.Model(&models.ScreeningSession{}).
		Where("id = ?", id).
		Update("calibration_accuracy", accuracy).Error
}

// ExpireStaleSessions closes sessions that have been inactive for longer than
// maxAge. Returns how many were expired.
func ExpireStaleSessions(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	result := database.DB.Model(&models.ScreeningSession{}).
		Where("status = ? AND updated_at < ?", models.SessionActive, cutoff).
		Update("status", models.SessionExpired)
	return result.RowsAffected, result.Error
}
