package saccade

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
)

func TestThresholdEstimate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		estimator  ThresholdEstimator
		velocities []float64
		want       float64
	}{
		{
			name: "too few samples falls back to static",
			estimator: ThresholdEstimator{
				StaticThreshold:     30,
				MaxFixationVelocity: 100,
				MinSamples:          10,
				SDMultiplier:        2.5,
			},
			velocities: []float64{5, 6, 7},
			want:       30,
		},
		{
			name: "zero variance hits the floor",
			estimator: ThresholdEstimator{
				StaticThreshold:     30,
				MaxFixationVelocity: 100,
				MinSamples:          5,
				SDMultiplier:        2.5,
			},
			// mean 10, SD 0 → 10, floored at half the static threshold.
			velocities: []float64{10, 10, 10, 10, 10},
			want:       15,
		},
		{
			name: "mean plus k sd",
			estimator: ThresholdEstimator{
				StaticThreshold:     30,
				MaxFixationVelocity: 100,
				MinSamples:          4,
				SDMultiplier:        2.0,
			},
			// mean 10, population SD 5 → 10 + 2·5 = 20.
			velocities: []float64{5, 5, 15, 15},
			want:       20,
		},
		{
			name: "spikes filtered before statistics",
			estimator: ThresholdEstimator{
				StaticThreshold:     30,
				MaxFixationVelocity: 100,
				MinSamples:          5,
				SDMultiplier:        2.5,
			},
			// The 150 and 400 samples are tracking spikes, not fixation noise.
			velocities: []float64{10, 10, 10, 10, 10, 150, 400},
			want:       15,
		},
		{
			name: "negative velocities rejected",
			estimator: ThresholdEstimator{
				StaticThreshold:     30,
				MaxFixationVelocity: 100,
				MinSamples:          5,
				SDMultiplier:        2.5,
			},
			velocities: []float64{-1, 10, 10, 10, 10},
			want:       30, // only 4 survive the filter
		},
		{
			name: "lower bound applied",
			estimator: ThresholdEstimator{
				StaticThreshold:     30,
				MaxFixationVelocity: 100,
				MinSamples:          5,
				SDMultiplier:        2.5,
				MinThreshold:        25,
				MaxThreshold:        100,
			},
			velocities: []float64{10, 10, 10, 10, 10},
			want:       25,
		},
		{
			name: "upper bound applied",
			estimator: ThresholdEstimator{
				StaticThreshold:     30,
				MaxFixationVelocity: 100,
				MinSamples:          4,
				SDMultiplier:        2.5,
				MinThreshold:        25,
				MaxThreshold:        60,
			},
			// mean 50, population SD 30·... large enough to exceed 60.
			velocities: []float64{20, 30, 70, 80},
			want:       60,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.estimator.Estimate(tt.velocities)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNewThresholdEstimatorFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Tracking
	estimator := NewThresholdEstimator(cfg)

	assert.InDelta(t, 30, estimator.StaticThreshold, 1e-9)
	assert.InDelta(t, 100, estimator.MaxFixationVelocity, 1e-9)
	assert.Equal(t, 10, estimator.MinSamples)
	assert.InDelta(t, 2.5, estimator.SDMultiplier, 1e-9)
	assert.InDelta(t, 25, estimator.MinThreshold, 1e-9)
	assert.InDelta(t, 100, estimator.MaxThreshold, 1e-9)

	// No samples at all: static threshold.
	assert.InDelta(t, 30, estimator.Estimate(nil), 1e-9)
}
