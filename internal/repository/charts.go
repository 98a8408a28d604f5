package repository

import (
	"context"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/database"
)

// VelocityPoint is one sample of the session velocity trace.
type VelocityPoint struct {
	Timestamp float64 `json:"timestamp"`
	Velocity  float64 `json:"velocity"`
	IsSaccade bool    `json:"isSaccade"`
	Trial     int     `json:"trial"`
}

// ResidualPoint is one calibration landing error relative to its target.
type ResidualPoint struct {
	TargetX float64 `json:"targetX"`
	TargetY float64 `json:"targetY"`
	GazeX   float64 `json:"gazeX"`
	GazeY   float64 `json:"gazeY"`
}

// GetVelocityTimeline returns the velocity trace of a session for charting.
func GetVelocityTimeline(ctx context.Context, sessionID int) ([]VelocityPoint, error) {
	var points []VelocityPoint
	query := `
		SELECT timestamp, velocity, is_saccade, trial
		FROM frame_records
		WHERE session_id = ? AND velocity_valid
		ORDER BY timestamp ASC`
	err := database.DB.WithContext(ctx).Raw(query, sessionID).Scan(&points).Error
	return points, err
}

// GetGazeResiduals returns target-vs-gaze pairs from frames that carried a
// target, for the residual scatter chart.
func GetGazeResiduals(ctx context.Context, sessionID int) ([]ResidualPoint, error) {
	var points []ResidualPoint
	query := `
		SELECT target_x, target_y, cal_avg_x AS gaze_x, cal_avg_y AS gaze_y
		FROM frame_records
		WHERE session_id = ? AND has_target AND cal_avg_x IS NOT NULL
		ORDER BY timestamp ASC`
	err := database.DB.WithContext(ctx).Raw(query, sessionID).Scan(&points).Error
	return points, err
}
