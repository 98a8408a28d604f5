// Package analysis scores completed trials and aggregates them into phase
// statistics and the final pro-vs-anti comparison report.
package analysis

import (
	"math"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

// Scoring failure reasons. Each short-circuits with a zero accuracy score.
const (
	ReasonNoSaccadeDetected = "no_saccade_detected"
	ReasonNoTargetData      = "no_target_data"
	ReasonNoLandingData     = "no_landing_data"
)

const (
	// Fixation baseline window, relative to stimulus onset.
	baselineWindowStartMs = 1000
	baselineWindowEndMs   = 500

	// Landing search starts this long after saccade offset, letting the
	// post-saccadic signal settle.
	landingDelayMs = 50

	// Binocular position-disparity bands for frame quality (normalized units).
	disparityHighCutoff = 0.10
	disparityMidCutoff  = 0.05

	// A "fixation" frame moving faster than this is tracking noise.
	implausibleFixationVelocity = 20.0

	// Adaptive ROI geometry.
	roiBaseRadius = 0.10
	roiMinRadius  = 0.12
	roiMaxRadius  = 0.25

	// Landing-frame quality below this flags unstable tracking.
	unstableTrackingQuality = 0.7

	// Physiological plausibility ceilings.
	maxPlausibleDurationMs   = 400.0
	maxPlausiblePeakVelocity = 1000.0
)

// Profile bundles the scoring constants that differ between the
// webcam-adjusted and research-grade variants. The webcam profile is the
// canonical one; the research profile stays selectable via config.
type Profile struct {
	Name               string
	GainWindowMs       float64
	StabilityThreshold float64

	LandingWeight   float64
	GainWeight      float64
	StabilityWeight float64

	HypometricCutoff    float64
	HypermetricCutoff   float64
	PoorStabilityCutoff float64
}

// WebcamProfile weights stability heavily: it is the primary ADHD-relevant
// signal and the least sensitive to single-frame webcam noise.
var WebcamProfile = Profile{
	Name:                "webcam",
	GainWindowMs:        100,
	StabilityThreshold:  0.70,
	LandingWeight:       0.20,
	GainWeight:          0.20,
	StabilityWeight:     0.60,
	HypometricCutoff:    0.75,
	HypermetricCutoff:   1.10,
	PoorStabilityCutoff: 0.60,
}

// ResearchProfile uses the stricter lab-grade constants.
var ResearchProfile = Profile{
	Name:                "research",
	GainWindowMs:        67,
	StabilityThreshold:  0.80,
	LandingWeight:       0.30,
	GainWeight:          0.30,
	StabilityWeight:     0.40,
	HypometricCutoff:    0.85,
	HypermetricCutoff:   1.15,
	PoorStabilityCutoff: 0.70,
}

// ProfileByName resolves a configured profile name, defaulting to webcam.
func ProfileByName(name string) Profile {
	if name == ResearchProfile.Name {
		return ResearchProfile
	}
	return WebcamProfile
}

// Analyzer scores one trial from its frame window and detected saccade.
type Analyzer struct {
	Profile            Profile
	ROIRadius          float64 // fixed radius; 0 selects the adaptive radius
	FixationDurationMs float64

	CalibrationAccuracy float64
	TrackerFPS          float64

	Bounds config.LatencyBounds
}

// NewAnalyzer builds an analyzer for one phase of a session.
func NewAnalyzer(cfg config.AnalysisConfig, calibrationAccuracy float64, phase string) *Analyzer {
	return &Analyzer{
		Profile:             ProfileByName(cfg.Profile),
		ROIRadius:           cfg.ROIRadius,
		FixationDurationMs:  cfg.FixationDurationMs,
		CalibrationAccuracy: calibrationAccuracy,
		TrackerFPS:          cfg.TrackerFPS,
		Bounds:              cfg.Bounds(phase),
	}
}

// Score computes the full TrialAnalysis for one trial window.
func (a *Analyzer) Score(frames []models.TrackingFrame, stimulusTime float64, info models.SaccadeInfo, trial int, phase, dotPosition string) models.TrialAnalysis {
	result := models.TrialAnalysis{
		TrialNumber: trial,
		Phase:       phase,
		DotPosition: dotPosition,
	}
	result.Quality = summarizeQuality(frames, stimulusTime)

	if !info.Detected {
		result.Reason = ReasonNoSaccadeDetected
		return result
	}
	result.IsSaccade = true
	result.LatencyMs = info.Latency
	result.PeakVelocity = info.PeakVelocity
	result.DurationMs = info.Duration
	result.LatencyClass = ClassifyLatency(info.Latency, a.Bounds)
	result.IsPhysiologicallyPlausible = result.LatencyClass != models.LatencyInvalid &&
		info.Duration <= maxPlausibleDurationMs &&
		info.PeakVelocity <= maxPlausiblePeakVelocity

	target, ok := targetAfterStimulus(frames, stimulusTime)
	if !ok {
		result.Reason = ReasonNoTargetData
		return result
	}

	baseline := fixationBaseline(frames, stimulusTime)

	landing := a.findLanding(frames, info.OffsetTime)
	if landing == nil {
		result.Reason = ReasonNoLandingData
		return result
	}
	landingPoint := *landing.Calibrated.Avg

	gain := SaccadicGain(baseline, landingPoint, target)
	result.Gain = gain
	result.IsHypometric = gain < a.Profile.HypometricCutoff
	result.IsHypermetric = gain > a.Profile.HypermetricCutoff

	radius := a.roiRadius()
	result.ROIRadius = radius

	landingDistance := distance(landingPoint, target)
	if landingDistance <= radius {
		result.LandingScore = 1.0
	} else {
		result.LandingScore = math.Max(0, 1-landingDistance/radius)
	}
	result.GainScore = math.Max(0, 1-math.Abs(gain-1))

	stability := a.sustainedStability(frames, landing.Timestamp, target, radius)
	result.StabilityScore = stability
	result.SustainedFixation = stability >= a.Profile.StabilityThreshold

	result.AccuracyScore = a.Profile.LandingWeight*result.LandingScore +
		a.Profile.GainWeight*result.GainScore +
		a.Profile.StabilityWeight*result.StabilityScore

	result.ADHDMarkers = models.ADHDMarkers{
		HypometricSaccade:     result.IsHypometric,
		PoorFixationStability: stability < a.Profile.PoorStabilityCutoff,
		UnstableTracking:      FrameQuality(landing) < unstableTrackingQuality,
	}
	return result
}

// roiRadius returns the configured fixed ROI radius, or the adaptive radius
// scaled by calibration accuracy and tracker frame rate.
func (a *Analyzer) roiRadius() float64 {
	if a.ROIRadius > 0 {
		return a.ROIRadius
	}

	qualityMultiplier := 1 + (0.95-a.CalibrationAccuracy)*2
	fpsMultiplier := 1.0
	if a.TrackerFPS > 0 {
		fpsMultiplier = math.Max(1, 60/a.TrackerFPS)
	}

	radius := roiBaseRadius * qualityMultiplier * fpsMultiplier
	return math.Min(roiMaxRadius, math.Max(roiMinRadius, radius))
}

// findLanding picks the best-quality frame in the landing window
// [offset+50, offset+50+gainWindow]. Falls back to the first frame after
// offset when the window has no usable frame; nil when nothing qualifies.
func (a *Analyzer) findLanding(frames []models.TrackingFrame, offsetTime float64) *models.TrackingFrame {
	windowStart := offsetTime + landingDelayMs
	windowEnd := windowStart + a.Profile.GainWindowMs

	var best *models.TrackingFrame
	bestQuality := 0.0
	for i := range frames {
		f := &frames[i]
		if f.Timestamp < windowStart || f.Timestamp > windowEnd || f.Calibrated.Avg == nil {
			continue
		}
		if q := FrameQuality(f); q > bestQuality {
			bestQuality = q
			best = f
		}
	}
	if best != nil {
		return best
	}

	for i := range frames {
		f := &frames[i]
		if f.Timestamp > offsetTime && f.Calibrated.Avg != nil {
			return f
		}
	}
	return nil
}

// sustainedStability computes the quality-weighted fraction of post-landing
// frames inside the ROI over the fixation window.
func (a *Analyzer) sustainedStability(frames []models.TrackingFrame, landingTime float64, target models.Point, radius float64) float64 {
	windowEnd := landingTime + a.FixationDurationMs

	var weightedIn, totalWeight float64
	for i := range frames {
		f := &frames[i]
		if f.Timestamp < landingTime || f.Timestamp > windowEnd || f.Calibrated.Avg == nil {
			continue
		}
		q := FrameQuality(f)
		totalWeight += q
		if IsWithinROI(*f.Calibrated.Avg, target, radius) {
			weightedIn += q
		}
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedIn / totalWeight
}

// FrameQuality scores the reliability of one frame in (0, 1]. Monocular
// tracking, binocular position disparity, and implausible fixation velocity
// each discount the weight.
func FrameQuality(f *models.TrackingFrame) float64 {
	q := 1.0

	if f.Calibrated.Left == nil || f.Calibrated.Right == nil {
		q *= 0.5
	} else {
		d := distance(*f.Calibrated.Left, *f.Calibrated.Right)
		switch {
		case d > disparityHighCutoff:
			q *= 0.3
		case d > disparityMidCutoff:
			q *= 0.7
		}
	}

	if f.Velocity > implausibleFixationVelocity && !f.IsSaccade {
		q *= 0.5
	}
	return q
}

// IsWithinROI reports whether a gaze point is inside the circular tolerance
// zone around the target. The boundary counts as inside.
func IsWithinROI(point, target models.Point, radius float64) bool {
	return distance(point, target) <= radius
}

// SaccadicGain is the ratio of actual to required saccade amplitude. A zero
// required amplitude counts as a perfect gain.
func SaccadicGain(baseline, landing, target models.Point) float64 {
	required := distance(target, baseline)
	if required == 0 {
		return 1.0
	}
	return distance(landing, baseline) / required
}

// fixationBaseline averages the calibrated gaze in the pre-stimulus window
// [stimulus-1000, stimulus-500). Falls back to screen center.
func fixationBaseline(frames []models.TrackingFrame, stimulusTime float64) models.Point {
	start := stimulusTime - baselineWindowStartMs
	end := stimulusTime - baselineWindowEndMs

	var sumX, sumY float64
	count := 0
	for i := range frames {
		f := &frames[i]
		if f.Timestamp < start || f.Timestamp >= end || f.Calibrated.Avg == nil {
			continue
		}
		sumX += f.Calibrated.Avg.X
		sumY += f.Calibrated.Avg.Y
		count++
	}
	if count == 0 {
		return models.Point{X: 0.5, Y: 0.5}
	}
	return models.Point{X: sumX / float64(count), Y: sumY / float64(count)}
}

// targetAfterStimulus finds the trial target from the first post-stimulus
// frame that carries one.
func targetAfterStimulus(frames []models.TrackingFrame, stimulusTime float64) (models.Point, bool) {
	for i := range frames {
		f := &frames[i]
		if f.Timestamp >= stimulusTime && f.HasTarget {
			return models.Point{X: f.TargetX, Y: f.TargetY}, true
		}
	}
	return models.Point{}, false
}

// summarizeQuality collects the trial-level data-quality summary over the
// post-stimulus frames.
func summarizeQuality(frames []models.TrackingFrame, stimulusTime float64) models.TrialQuality {
	var q models.TrialQuality
	var qualitySum float64
	for i := range frames {
		f := &frames[i]
		if f.Timestamp < stimulusTime {
			continue
		}
		q.FrameCount++
		qualitySum += FrameQuality(f)
		if f.ExcessiveDisparity {
			q.DisparityEvents++
		}
		if f.Calibrated.Left == nil || f.Calibrated.Right == nil {
			q.MonocularFrames++
		}
	}
	if q.FrameCount > 0 {
		q.DataQuality = qualitySum / float64(q.FrameCount)
	}
	return q
}

func distance(a, b models.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
