// Package saccade turns the calibrated gaze stream into angular velocities
// and per-frame saccade/fixation classifications.
package saccade

import (
	"math"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

// Velocity failure reasons.
const (
	ReasonInvalidTimeDelta  = "invalid_time_delta"
	ReasonNoCalibrationData = "no_calibration_data"
	ReasonNoData            = "no_data"
)

// VelocityResult is the angular-velocity estimate between two consecutive
// frames. Valid and ExcessiveDisparity are independent signals: a frame with
// excessive binocular disparity is still usable for velocity purposes but
// physiologically suspect.
type VelocityResult struct {
	Velocity float64 `json:"velocity"`

	LeftVelocity  float64 `json:"leftVelocity"`
	RightVelocity float64 `json:"rightVelocity"`
	LeftValid     bool    `json:"leftValid"`
	RightValid    bool    `json:"rightValid"`

	Disparity          float64 `json:"disparity"`
	ExcessiveDisparity bool    `json:"excessiveDisparity"`

	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// VelocityEstimator converts screen-space gaze displacement into visual-angle
// degrees per second given the screen geometry and camera field of view.
type VelocityEstimator struct {
	ScreenWidth  float64
	ScreenHeight float64

	FOVHorizontalDeg float64
	FOVVerticalDeg   float64

	MaxFrameGapSec        float64
	MaxDisparityDegPerSec float64
}

// NewVelocityEstimator builds an estimator from the tracking config and the
// session's screen dimensions.
func NewVelocityEstimator(cfg config.TrackingConfig, screenWidth, screenHeight int) *VelocityEstimator {
	return &VelocityEstimator{
		ScreenWidth:           float64(screenWidth),
		ScreenHeight:          float64(screenHeight),
		FOVHorizontalDeg:      cfg.FOVHorizontalDeg,
		FOVVerticalDeg:        cfg.FOVVerticalDeg,
		MaxFrameGapSec:        cfg.MaxFrameGapSec,
		MaxDisparityDegPerSec: cfg.MaxBinocularDisparityDeg,
	}
}

// Estimate computes the angular velocity between two consecutive frames.
// Requires a calibrated cyclopean position on both frames; per-eye velocities
// and binocular disparity are produced when both eyes are tracked.
func (e *VelocityEstimator) Estimate(prev, curr *models.TrackingFrame) VelocityResult {
	var result VelocityResult

	dt := (curr.Timestamp - prev.Timestamp) / 1000
	if dt <= 0 || dt > e.MaxFrameGapSec {
		result.Reason = ReasonInvalidTimeDelta
		return result
	}

	if prev.Calibrated.Avg == nil || curr.Calibrated.Avg == nil {
		if prev.LeftIris == nil && prev.RightIris == nil && curr.LeftIris == nil && curr.RightIris == nil {
			result.Reason = ReasonNoData
		} else {
			result.Reason = ReasonNoCalibrationData
		}
		return result
	}

	result.Velocity = e.pointVelocity(*prev.Calibrated.Avg, *curr.Calibrated.Avg, dt)
	result.Valid = true

	if prev.Calibrated.Left != nil && curr.Calibrated.Left != nil {
		result.LeftVelocity = e.pointVelocity(*prev.Calibrated.Left, *curr.Calibrated.Left, dt)
		result.LeftValid = true
	}
	if prev.Calibrated.Right != nil && curr.Calibrated.Right != nil {
		result.RightVelocity = e.pointVelocity(*prev.Calibrated.Right, *curr.Calibrated.Right, dt)
		result.RightValid = true
	}

	if result.LeftValid && result.RightValid {
		result.Disparity = math.Abs(result.LeftVelocity - result.RightVelocity)
		// The frame stays usable on the cyclopean velocity; the flag is
		// carried separately so downstream quality scoring can see it.
		result.ExcessiveDisparity = result.Disparity > e.MaxDisparityDegPerSec
	}
	return result
}

// pointVelocity converts a normalized screen-space displacement into degrees
// of visual angle per second. Pixels per degree come from the screen span
// divided by the field of view, separately per axis.
func (e *VelocityEstimator) pointVelocity(p1, p2 models.Point, dt float64) float64 {
	dxPx := (p2.X - p1.X) * e.ScreenWidth
	dyPx := (p2.Y - p1.Y) * e.ScreenHeight

	ppdX := e.ScreenWidth / e.FOVHorizontalDeg
	ppdY := e.ScreenHeight / e.FOVVerticalDeg
	if ppdX <= 0 || ppdY <= 0 {
		return 0
	}

	dxDeg := dxPx / ppdX
	dyDeg := dyPx / ppdY

	return math.Sqrt(dxDeg*dxDeg+dyDeg*dyDeg) / dt
}
