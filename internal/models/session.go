package models

import "time"

// Session statuses.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionExpired   = "expired"
)

// ScreeningSession is one sitting of the screening protocol: calibration,
// pro block, anti block. Owns the calibration model and the frame stream.
type ScreeningSession struct {
	ID           int    `gorm:"primaryKey" json:"id"`
	SubjectLabel string `json:"subjectLabel"`
	Status       string `gorm:"index" json:"status"`

	ScreenWidth  int     `json:"screenWidth"`
	ScreenHeight int     `json:"screenHeight"`
	TrackerFPS   float64 `json:"trackerFPS"`

	// Best-eye accuracy of the accepted calibration, set once calibration
	// succeeds. Zero means not yet calibrated.
	CalibrationAccuracy float64 `json:"calibrationAccuracy"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
