package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

func phaseStats(valid int, latency, peak, accuracy, gain float64) models.PhaseStatistics {
	return models.PhaseStatistics{
		ValidTrialCount: valid,
		TotalTrialCount: valid,
		Latency:         models.Stat{Mean: latency},
		PeakVelocity:    models.Stat{Mean: peak},
		Accuracy:        models.Stat{Mean: accuracy},
		Gain:            models.Stat{Mean: gain},
	}
}

func TestCompareNormal(t *testing.T) {
	t.Parallel()

	pro := phaseStats(10, 220, 400, 0.88, 1.0)
	anti := phaseStats(10, 370, 380, 0.82, 0.95)

	report := Compare(pro, anti)

	assert.InDelta(t, 150, report.LatencyDifference, 1e-9)
	assert.Equal(t, "Normal anti-saccade cost", report.LatencyInterpretation)
	assert.InDelta(t, 0.95, report.VelocityRatio, 1e-9)
	assert.Equal(t, "Normal anti-saccade velocity", report.VelocityInterpretation)
	assert.InDelta(t, 0.06, report.AccuracyDifference, 1e-9)
	assert.Equal(t, "Normal anti-saccade accuracy", report.AccuracyInterpretation)
	assert.InDelta(t, 0.95, report.GainRatio, 1e-9)
	assert.Equal(t, "Normal anti-saccade gain", report.GainInterpretation)
	assert.Equal(t, DiagnosisNormal, report.OverallDiagnosis)
}

func TestCompareBorderline(t *testing.T) {
	t.Parallel()

	// Only the velocity ratio is abnormal: 300/400 = 0.75 < 0.85.
	pro := phaseStats(10, 220, 400, 0.88, 1.0)
	anti := phaseStats(10, 370, 300, 0.82, 0.95)

	report := Compare(pro, anti)

	assert.InDelta(t, 0.75, report.VelocityRatio, 1e-9)
	assert.Equal(t, "Reduced anti-saccade velocity", report.VelocityInterpretation)
	assert.Equal(t, DiagnosisBorderline, report.OverallDiagnosis)
}

func TestCompareDeficitFindings(t *testing.T) {
	t.Parallel()

	// Reduced latency cost, reduced velocity, accuracy collapse, reduced
	// gain: every indicator abnormal.
	pro := phaseStats(10, 250, 400, 0.90, 1.0)
	anti := phaseStats(10, 300, 300, 0.60, 0.70)

	report := Compare(pro, anti)

	assert.Equal(t, "Reduced anti-saccade cost", report.LatencyInterpretation)
	assert.Equal(t, "Reduced anti-saccade velocity", report.VelocityInterpretation)
	assert.Equal(t, "Significant anti-saccade accuracy reduction", report.AccuracyInterpretation)
	assert.Equal(t, "Reduced anti-saccade gain", report.GainInterpretation)
	assert.Equal(t, DiagnosisDeficitFindings, report.OverallDiagnosis)
}

func TestCompareInconclusive(t *testing.T) {
	t.Parallel()

	good := phaseStats(10, 220, 400, 0.88, 1.0)
	empty := models.PhaseStatistics{Warning: NoValidTrialsWarning}

	tests := []struct {
		name string
		pro  models.PhaseStatistics
		anti models.PhaseStatistics
	}{
		{name: "no pro trials", pro: empty, anti: good},
		{name: "no anti trials", pro: good, anti: empty},
		{name: "neither phase", pro: empty, anti: empty},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			report := Compare(tt.pro, tt.anti)
			assert.Equal(t, DiagnosisInconclusive, report.OverallDiagnosis)
			assert.Empty(t, report.LatencyInterpretation)
		})
	}
}

func TestCompareZeroDenominators(t *testing.T) {
	t.Parallel()

	// Zero pro peak velocity and gain: the ratios stay zero and read as
	// reduced rather than dividing by zero.
	pro := phaseStats(5, 220, 0, 0.88, 0)
	anti := phaseStats(5, 370, 380, 0.82, 0.95)

	report := Compare(pro, anti)

	assert.Zero(t, report.VelocityRatio)
	assert.Equal(t, "Reduced anti-saccade velocity", report.VelocityInterpretation)
	assert.Zero(t, report.GainRatio)
	assert.NotEqual(t, DiagnosisInconclusive, report.OverallDiagnosis)
}
