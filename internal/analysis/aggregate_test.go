package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

func validTrial(n int, latency, peak, accuracy, gain float64) models.TrialAnalysis {
	return models.TrialAnalysis{
		TrialNumber:                n,
		Phase:                      models.PhasePro,
		IsSaccade:                  true,
		IsPhysiologicallyPlausible: true,
		LatencyMs:                  latency,
		PeakVelocity:               peak,
		AccuracyScore:              accuracy,
		Gain:                       gain,
		DurationMs:                 45,
		Quality:                    models.TrialQuality{DataQuality: 0.9, FrameCount: 30},
	}
}

func TestAggregateEmpty(t *testing.T) {
	t.Parallel()

	stats := Aggregate(nil, models.PhasePro, DefaultMinDataQuality)

	assert.Equal(t, models.PhasePro, stats.Phase)
	assert.Zero(t, stats.ValidTrialCount)
	assert.Zero(t, stats.TotalTrialCount)
	assert.Equal(t, NoValidTrialsWarning, stats.Warning)
}

func TestAggregateFiltersUnusableTrials(t *testing.T) {
	t.Parallel()

	noSaccade := validTrial(2, 0, 0, 0, 0)
	noSaccade.IsSaccade = false
	noSaccade.Reason = ReasonNoSaccadeDetected

	implausible := validTrial(3, 250, 1500, 0.8, 1.0)
	implausible.IsPhysiologicallyPlausible = false

	lowQuality := validTrial(4, 250, 300, 0.8, 1.0)
	lowQuality.Quality.DataQuality = 0.5

	trials := []models.TrialAnalysis{
		validTrial(1, 200, 300, 0.9, 1.0),
		noSaccade,
		implausible,
		lowQuality,
		validTrial(5, 240, 320, 0.7, 0.95),
	}

	stats := Aggregate(trials, models.PhasePro, DefaultMinDataQuality)

	assert.Equal(t, 5, stats.TotalTrialCount)
	assert.Equal(t, 2, stats.ValidTrialCount)
	assert.Empty(t, stats.Warning)
	assert.InDelta(t, 220, stats.Latency.Mean, 1e-9)
	assert.InDelta(t, 310, stats.PeakVelocity.Mean, 1e-9)
	assert.InDelta(t, 0.8, stats.Accuracy.Mean, 1e-9)
	assert.InDelta(t, 0.9, stats.MeanDataQuality, 1e-9)
}

func TestAggregateAllFiltered(t *testing.T) {
	t.Parallel()

	bad := validTrial(1, 200, 300, 0.9, 1.0)
	bad.IsSaccade = false

	stats := Aggregate([]models.TrialAnalysis{bad}, models.PhaseAnti, DefaultMinDataQuality)

	assert.Equal(t, 1, stats.TotalTrialCount)
	assert.Zero(t, stats.ValidTrialCount)
	assert.Equal(t, NoValidTrialsWarning, stats.Warning)
}

func TestComputeStat(t *testing.T) {
	t.Parallel()

	t.Run("odd count", func(t *testing.T) {
		t.Parallel()

		s := computeStat([]float64{3, 1, 2})
		assert.InDelta(t, 2, s.Mean, 1e-9)
		assert.InDelta(t, 1, s.StdDev, 1e-9) // sample SD with Bessel's correction
		assert.InDelta(t, 2, s.Median, 1e-9)
		assert.InDelta(t, 1, s.Min, 1e-9)
		assert.InDelta(t, 3, s.Max, 1e-9)
	})

	t.Run("even count median", func(t *testing.T) {
		t.Parallel()

		s := computeStat([]float64{4, 1, 3, 2})
		assert.InDelta(t, 2.5, s.Median, 1e-9)
	})

	t.Run("single value", func(t *testing.T) {
		t.Parallel()

		s := computeStat([]float64{7})
		assert.InDelta(t, 7, s.Mean, 1e-9)
		assert.Zero(t, s.StdDev)
		assert.InDelta(t, 7, s.Median, 1e-9)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, models.Stat{}, computeStat(nil))
	})
}

func TestClassifyLatency(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Analysis
	pro := cfg.Bounds(models.PhasePro)
	anti := cfg.Bounds(models.PhaseAnti)

	require.InDelta(t, 120, pro.ExpressMs, 1e-9)
	require.InDelta(t, 180, anti.ExpressMs, 1e-9)

	tests := []struct {
		name    string
		latency float64
		bounds  config.LatencyBounds
		want    string
	}{
		{name: "anticipatory pro", latency: 80, bounds: pro, want: models.LatencyInvalid},
		{name: "express pro", latency: 100, bounds: pro, want: models.LatencyExpress},
		{name: "normal pro", latency: 300, bounds: pro, want: models.LatencyNormal},
		{name: "upper bound inclusive", latency: 600, bounds: pro, want: models.LatencyNormal},
		{name: "delayed pro", latency: 700, bounds: pro, want: models.LatencyDelayed},
		{name: "express anti has wider band", latency: 150, bounds: anti, want: models.LatencyExpress},
		{name: "normal anti", latency: 750, bounds: anti, want: models.LatencyNormal},
		{name: "delayed anti", latency: 900, bounds: anti, want: models.LatencyDelayed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClassifyLatency(tt.latency, tt.bounds))
		})
	}
}
