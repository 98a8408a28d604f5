package analysis

import "github.com/quangptt0910/SaccadeSync-sub000/internal/models"

// Comparison cutoffs and interpretation strings.
const (
	normalLatencyCostMs      = 100.0
	reducedVelocityRatio     = 0.85
	significantAccuracyDrop  = 0.15
	reducedGainRatio         = 0.80
	DiagnosisInconclusive    = "Inconclusive"
	DiagnosisNormal          = "Within normal limits"
	DiagnosisBorderline      = "Borderline findings"
	DiagnosisDeficitFindings = "Findings consistent with inhibitory control deficit"
)

// Compare derives the pro-vs-anti diagnostic indicators from the two phase
// aggregates. Missing data on either side, or any internal failure, degrades
// to an inconclusive report instead of propagating.
func Compare(pro, anti models.PhaseStatistics) (report models.ComparisonReport) {
	defer func() {
		if r := recover(); r != nil {
			report = models.ComparisonReport{OverallDiagnosis: DiagnosisInconclusive}
		}
	}()

	if pro.ValidTrialCount == 0 || anti.ValidTrialCount == 0 {
		return models.ComparisonReport{OverallDiagnosis: DiagnosisInconclusive}
	}

	abnormal := 0

	report.LatencyDifference = anti.Latency.Mean - pro.Latency.Mean
	if report.LatencyDifference > normalLatencyCostMs {
		report.LatencyInterpretation = "Normal anti-saccade cost"
	} else {
		report.LatencyInterpretation = "Reduced anti-saccade cost"
		abnormal++
	}

	if pro.PeakVelocity.Mean > 0 {
		report.VelocityRatio = anti.PeakVelocity.Mean / pro.PeakVelocity.Mean
	}
	if report.VelocityRatio < reducedVelocityRatio {
		report.VelocityInterpretation = "Reduced anti-saccade velocity"
		abnormal++
	} else {
		report.VelocityInterpretation = "Normal anti-saccade velocity"
	}

	report.AccuracyDifference = pro.Accuracy.Mean - anti.Accuracy.Mean
	if report.AccuracyDifference > significantAccuracyDrop {
		report.AccuracyInterpretation = "Significant anti-saccade accuracy reduction"
		abnormal++
	} else {
		report.AccuracyInterpretation = "Normal anti-saccade accuracy"
	}

	if pro.Gain.Mean > 0 {
		report.GainRatio = anti.Gain.Mean / pro.Gain.Mean
	}
	if report.GainRatio < reducedGainRatio {
		report.GainInterpretation = "Reduced anti-saccade gain"
		abnormal++
	} else {
		report.GainInterpretation = "Normal anti-saccade gain"
	}

	switch {
	case abnormal >= 2:
		report.OverallDiagnosis = DiagnosisDeficitFindings
	case abnormal == 1:
		report.OverallDiagnosis = DiagnosisBorderline
	default:
		report.OverallDiagnosis = DiagnosisNormal
	}
	return report
}
