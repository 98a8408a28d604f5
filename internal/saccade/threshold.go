package saccade

import (
	"math"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
)

// ThresholdEstimator derives a velocity threshold from the subject's own
// fixation-noise statistics instead of a fixed constant.
type ThresholdEstimator struct {
	// StaticThreshold is returned when too few fixation samples exist and
	// also sets the floor (half of it) for adaptive values.
	StaticThreshold float64

	// MaxFixationVelocity removes spurious spikes before the statistics.
	MaxFixationVelocity float64

	MinSamples   int
	SDMultiplier float64

	// Optional hard bounds for the per-trial variant. Zero disables a bound.
	MinThreshold float64
	MaxThreshold float64
}

// NewThresholdEstimator builds the per-trial estimator from config.
func NewThresholdEstimator(cfg config.TrackingConfig) *ThresholdEstimator {
	return &ThresholdEstimator{
		StaticThreshold:     cfg.StaticThresholdDegSec,
		MaxFixationVelocity: cfg.MaxFixationVelocityDegSec,
		MinSamples:          cfg.Adaptive.MinFixationSamples,
		SDMultiplier:        cfg.Adaptive.SDMultiplier,
		MinThreshold:        cfg.Adaptive.MinDegPerSec,
		MaxThreshold:        cfg.Adaptive.MaxDegPerSec,
	}
}

// Estimate computes mean + k·SD of the plausible fixation velocities, floored
// at half the static threshold. Falls back to the static threshold outright
// when fewer than MinSamples velocities survive the spike filter.
func (t *ThresholdEstimator) Estimate(fixationVelocities []float64) float64 {
	filtered := make([]float64, 0, len(fixationVelocities))
	for _, v := range fixationVelocities {
		if v >= 0 && v < t.MaxFixationVelocity {
			filtered = append(filtered, v)
		}
	}

	if len(filtered) < t.MinSamples {
		return t.StaticThreshold
	}

	var sum float64
	for _, v := range filtered {
		sum += v
	}
	mean := sum / float64(len(filtered))

	var variance float64
	for _, v := range filtered {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(filtered))
	sd := math.Sqrt(variance)

	threshold := mean + t.SDMultiplier*sd

	if floor := t.StaticThreshold * 0.5; threshold < floor {
		threshold = floor
	}
	if t.MinThreshold > 0 && threshold < t.MinThreshold {
		threshold = t.MinThreshold
	}
	if t.MaxThreshold > 0 && threshold > t.MaxThreshold {
		threshold = t.MaxThreshold
	}
	return threshold
}
