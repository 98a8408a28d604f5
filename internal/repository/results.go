package repository

import (
	"github.com/quangptt0910/SaccadeSync-sub000/internal/database"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

// frameBatchSize bounds the INSERT size for frame persistence; a screening
// session produces thousands of frames.
const frameBatchSize = 500

// SaveFrames persists a batch of annotated frames in one transaction.
func SaveFrames(records []models.FrameRecord) error {
	if len(records) == 0 {
		return nil
	}
	return database.DB.CreateInBatches(records, frameBatchSize).Error
}

// SaveTrialResult persists one scored trial. The full analysis is kept as
// raw JSON so excluded trials stay auditable.
func SaveTrialResult(result *models.TrialResult) error {
	return database.DB.Create(result).Error
}

// GetTrialResults returns all scored trials of a session in trial order.
func GetTrialResults(sessionID int) ([]models.TrialResult, error) {
	var results []models.TrialResult
	err := database.DB.Where("session_id = ?", sessionID).
		Order("trial_number ASC").
		Find(&results).Error
	return results, err
}

// GetTrialAnalyses returns the stored TrialAnalysis objects of one phase.
func GetTrialAnalyses(sessionID int, phase string) ([]models.TrialAnalysis, error) {
	var rows []models.TrialResult
	err := database.DB.Where("session_id = ? AND phase = ?", sessionID, phase).
		Order("trial_number ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	analyses := make([]models.TrialAnalysis, 0, len(rows))
	for i := range rows {
		a, err := rows[i].Analysis()
		if err != nil {
			continue // skip unreadable raw data, keep the rest
		}
		analyses = append(analyses, *a)
	}
	return analyses, nil
}

// GetFrames returns the persisted frame stream of a session in time order.
func GetFrames(sessionID int) ([]models.FrameRecord, error) {
	var frames []models.FrameRecord
	err := database.DB.Where("session_id = ?", sessionID).
		Order("timestamp ASC").
		Find(&frames).Error
	return frames, err
}
