package analysis

import (
	"math"
	"sort"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

// NoValidTrialsWarning is returned when a phase has no usable trials.
const NoValidTrialsWarning = "No valid trials found"

// DefaultMinDataQuality is the trial data-quality floor for aggregation.
const DefaultMinDataQuality = 0.7

// ClassifyLatency buckets a saccade latency against the per-phase bounds.
func ClassifyLatency(latencyMs float64, b config.LatencyBounds) string {
	switch {
	case latencyMs < b.MinMs:
		return models.LatencyInvalid
	case latencyMs < b.ExpressMs:
		return models.LatencyExpress
	case latencyMs <= b.MaxMs:
		return models.LatencyNormal
	default:
		return models.LatencyDelayed
	}
}

// Aggregate filters the phase's trials down to the usable ones and computes
// descriptive statistics. Excluded trials remain in the raw per-trial output;
// they just do not contribute here.
func Aggregate(trials []models.TrialAnalysis, phase string, minDataQuality float64) models.PhaseStatistics {
	stats := models.PhaseStatistics{
		Phase:           phase,
		TotalTrialCount: len(trials),
	}

	var valid []models.TrialAnalysis
	for i := range trials {
		t := &trials[i]
		if t.IsSaccade && t.IsPhysiologicallyPlausible && t.Quality.DataQuality > minDataQuality {
			valid = append(valid, *t)
		}
	}

	if len(valid) == 0 {
		stats.Warning = NoValidTrialsWarning
		return stats
	}
	stats.ValidTrialCount = len(valid)

	latencies := make([]float64, len(valid))
	peaks := make([]float64, len(valid))
	accuracies := make([]float64, len(valid))
	gains := make([]float64, len(valid))
	durations := make([]float64, len(valid))
	var qualitySum float64
	for i := range valid {
		latencies[i] = valid[i].LatencyMs
		peaks[i] = valid[i].PeakVelocity
		accuracies[i] = valid[i].AccuracyScore
		gains[i] = valid[i].Gain
		durations[i] = valid[i].DurationMs
		qualitySum += valid[i].Quality.DataQuality
		stats.DisparityEvents += valid[i].Quality.DisparityEvents
	}

	stats.Latency = computeStat(latencies)
	stats.PeakVelocity = computeStat(peaks)
	stats.Accuracy = computeStat(accuracies)
	stats.Gain = computeStat(gains)
	stats.Duration = computeStat(durations)
	stats.MeanDataQuality = qualitySum / float64(len(valid))
	return stats
}

// computeStat computes mean, sample standard deviation, median, min and max.
func computeStat(values []float64) models.Stat {
	n := len(values)
	if n == 0 {
		return models.Stat{}
	}

	var sum float64
	min, max := values[0], values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(n)

	var variance float64
	if n > 1 {
		for _, v := range values {
			diff := v - mean
			variance += diff * diff
		}
		variance /= float64(n - 1) // Bessel's correction
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	var median float64
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return models.Stat{
		Mean:   mean,
		StdDev: math.Sqrt(variance),
		Median: median,
		Min:    min,
		Max:    max,
	}
}
