package saccade

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

// testEstimator uses the default tracking geometry on a 1920x1080 screen:
// 48 px/deg horizontally, 36 px/deg vertically.
func testEstimator() *VelocityEstimator {
	return NewVelocityEstimator(config.Default().Tracking, 1920, 1080)
}

func cyclopeanFrame(ts, x, y float64) models.TrackingFrame {
	return models.TrackingFrame{
		Timestamp:  ts,
		Calibrated: models.CalibratedGaze{Avg: &models.Point{X: x, Y: y}},
	}
}

func TestEstimateAngularVelocity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		prev models.TrackingFrame
		curr models.TrackingFrame
		want float64
	}{
		{
			// 0.1 normalized → 192 px → 4° over 100 ms.
			name: "horizontal",
			prev: cyclopeanFrame(0, 0.4, 0.5),
			curr: cyclopeanFrame(100, 0.5, 0.5),
			want: 40,
		},
		{
			// 0.1 normalized → 108 px → 3° over 100 ms.
			name: "vertical",
			prev: cyclopeanFrame(0, 0.5, 0.4),
			curr: cyclopeanFrame(100, 0.5, 0.5),
			want: 30,
		},
		{
			name: "stationary",
			prev: cyclopeanFrame(0, 0.5, 0.5),
			curr: cyclopeanFrame(33, 0.5, 0.5),
			want: 0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := testEstimator().Estimate(&tt.prev, &tt.curr)
			assert.True(t, result.Valid)
			assert.InDelta(t, tt.want, result.Velocity, 1e-9)
		})
	}
}

func TestEstimateInvalidTimeDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prevTs float64
		currTs float64
	}{
		{name: "zero delta", prevTs: 1000, currTs: 1000},
		{name: "backwards", prevTs: 1000, currTs: 900},
		{name: "dropout gap", prevTs: 1000, currTs: 1600}, // > 500 ms
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prev := cyclopeanFrame(tt.prevTs, 0.4, 0.5)
			curr := cyclopeanFrame(tt.currTs, 0.5, 0.5)
			result := testEstimator().Estimate(&prev, &curr)

			assert.False(t, result.Valid)
			assert.Equal(t, ReasonInvalidTimeDelta, result.Reason)
			assert.Zero(t, result.Velocity)
		})
	}
}

func TestEstimateMissingData(t *testing.T) {
	t.Parallel()

	iris := models.Point{X: 0.5, Y: 0.5}

	t.Run("no calibration", func(t *testing.T) {
		t.Parallel()

		prev := models.TrackingFrame{Timestamp: 0, LeftIris: &iris}
		curr := models.TrackingFrame{Timestamp: 33, LeftIris: &iris}
		result := testEstimator().Estimate(&prev, &curr)

		assert.False(t, result.Valid)
		assert.Equal(t, ReasonNoCalibrationData, result.Reason)
	})

	t.Run("no data at all", func(t *testing.T) {
		t.Parallel()

		prev := models.TrackingFrame{Timestamp: 0}
		curr := models.TrackingFrame{Timestamp: 33}
		result := testEstimator().Estimate(&prev, &curr)

		assert.False(t, result.Valid)
		assert.Equal(t, ReasonNoData, result.Reason)
	})
}

func TestEstimateBinocularDisparity(t *testing.T) {
	t.Parallel()

	binocular := func(ts, leftX, rightX float64) models.TrackingFrame {
		avg := (leftX + rightX) / 2
		return models.TrackingFrame{
			Timestamp: ts,
			Calibrated: models.CalibratedGaze{
				Left:  &models.Point{X: leftX, Y: 0.5},
				Right: &models.Point{X: rightX, Y: 0.5},
				Avg:   &models.Point{X: avg, Y: 0.5},
			},
		}
	}

	// Left eye sweeps 0.5 normalized in 50 ms (400°/s) while the right eye
	// holds still: disparity far above the 100°/s ceiling.
	prev := binocular(0, 0.2, 0.5)
	curr := binocular(50, 0.7, 0.5)
	result := testEstimator().Estimate(&prev, &curr)

	assert.True(t, result.Valid, "excessive disparity does not invalidate the estimate")
	assert.True(t, result.LeftValid)
	assert.True(t, result.RightValid)
	assert.InDelta(t, 400, result.LeftVelocity, 1e-9)
	assert.InDelta(t, 0, result.RightVelocity, 1e-9)
	assert.InDelta(t, 400, result.Disparity, 1e-9)
	assert.True(t, result.ExcessiveDisparity)

	// Both eyes moving together stay well under the ceiling.
	prev = binocular(0, 0.4, 0.42)
	curr = binocular(100, 0.5, 0.52)
	result = testEstimator().Estimate(&prev, &curr)
	assert.True(t, result.Valid)
	assert.InDelta(t, 0, result.Disparity, 1e-9)
	assert.False(t, result.ExcessiveDisparity)
}

func TestEstimateMonocularSkipsDisparity(t *testing.T) {
	t.Parallel()

	monocular := func(ts, x float64) models.TrackingFrame {
		return models.TrackingFrame{
			Timestamp: ts,
			Calibrated: models.CalibratedGaze{
				Left: &models.Point{X: x, Y: 0.5},
				Avg:  &models.Point{X: x, Y: 0.5},
			},
		}
	}

	prev := monocular(0, 0.4)
	curr := monocular(100, 0.5)
	result := testEstimator().Estimate(&prev, &curr)

	assert.True(t, result.Valid)
	assert.True(t, result.LeftValid)
	assert.False(t, result.RightValid)
	assert.Zero(t, result.Disparity)
	assert.False(t, result.ExcessiveDisparity)
}
