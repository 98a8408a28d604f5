package repository

import (
	"time"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/calibration"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/database"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

// SaveCalibration persists a fitted calibration model and its fit quality.
// Re-calibration inserts a new row; the latest row wins.
func SaveCalibration(sessionID int, model *models.CalibrationModel, fits map[calibration.Eye]calibration.FitResult, usable bool) error {
	record := models.CalibrationRecord{
		SessionID:        sessionID,
		Method:           model.Metadata.Method,
		CoordinateSystem: model.Metadata.CoordinateSystem,
		ScreenWidth:      model.Metadata.ScreenWidth,
		ScreenHeight:     model.Metadata.ScreenHeight,
		Usable:           usable,
		CreatedAt:        time.Now(),
	}

	if left := fits[calibration.EyeLeft]; left.Calculated {
		record.LeftCoefX = left.CoefX
		record.LeftCoefY = left.CoefY
		record.LeftRMSE = left.RMSE
		record.LeftAccuracy = left.Accuracy
		record.SampleCount = left.SampleCount
	}
	if right := fits[calibration.EyeRight]; right.Calculated {
		record.RightCoefX = right.CoefX
		record.RightCoefY = right.CoefY
		record.RightRMSE = right.RMSE
		record.RightAccuracy = right.Accuracy
		if right.SampleCount > record.SampleCount {
			record.SampleCount = right.SampleCount
		}
	}

	return database.DB.Create(&record).Error
}

// GetLatestCalibration returns the newest calibration model for a session, or
// nil when the session has never calibrated.
func GetLatestCalibration(sessionID int) (*models.CalibrationModel, error) {
	var record models.CalibrationRecord
	err := database.DB.Where("session_id = ?", sessionID).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return record.Model(), nil
}
