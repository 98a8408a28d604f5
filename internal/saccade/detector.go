package saccade

import "github.com/quangptt0910/SaccadeSync-sub000/internal/models"

// Classification is the per-frame saccade/fixation decision.
type Classification struct {
	Velocity           float64 `json:"velocity"`
	IsSaccade          bool    `json:"isSaccade"`
	IsValid            bool    `json:"isValid"`
	Reason             string  `json:"reason,omitempty"`
	Disparity          float64 `json:"disparity"`
	ExcessiveDisparity bool    `json:"excessiveDisparity"`
}

// Detector classifies frames against a velocity threshold. Its only state is
// the estimator geometry; the previous frame is supplied by the caller.
type Detector struct {
	estimator *VelocityEstimator
}

// NewDetector creates a detector around the given velocity estimator.
func NewDetector(estimator *VelocityEstimator) *Detector {
	return &Detector{estimator: estimator}
}

// Classify estimates the velocity between two consecutive frames and compares
// it against the threshold. Invalid velocity estimates never classify as
// saccades; excessive disparity does not invalidate the frame.
func (d *Detector) Classify(prev, curr *models.TrackingFrame, threshold float64) Classification {
	v := d.estimator.Estimate(prev, curr)

	c := Classification{
		Velocity:           v.Velocity,
		IsValid:            v.Valid,
		Reason:             v.Reason,
		Disparity:          v.Disparity,
		ExcessiveDisparity: v.ExcessiveDisparity,
	}
	if v.Valid {
		c.IsSaccade = v.Velocity > threshold
	}
	return c
}

// DetectSaccade scans annotated frames for the first saccade run after the
// stimulus. Onset is the first post-stimulus frame classified as a saccade
// that is not already inside a run; the run ends at the first non-saccade
// frame, and offset is the last frame of the run.
func DetectSaccade(frames []models.TrackingFrame, stimulusTime float64) models.SaccadeInfo {
	var info models.SaccadeInfo

	inRun := false
	for i := range frames {
		f := &frames[i]
		if f.Timestamp < stimulusTime {
			// Track run state before the stimulus so a saccade already in
			// flight at stimulus onset is not miscounted as a response.
			inRun = f.IsSaccade
			continue
		}

		switch {
		case f.IsSaccade && !info.Detected && !inRun:
			info.Detected = true
			info.OnsetTime = f.Timestamp
			info.OffsetTime = f.Timestamp
			info.PeakVelocity = f.Velocity
			inRun = true
		case f.IsSaccade && info.Detected:
			info.OffsetTime = f.Timestamp
			if f.Velocity > info.PeakVelocity {
				info.PeakVelocity = f.Velocity
			}
		case f.IsSaccade:
			// Carried over from before the stimulus; wait for it to end.
			inRun = true
		default:
			if info.Detected {
				// First run complete.
				info.Duration = info.OffsetTime - info.OnsetTime
				info.Latency = info.OnsetTime - stimulusTime
				return info
			}
			inRun = false
		}
	}

	if info.Detected {
		info.Duration = info.OffsetTime - info.OnsetTime
		info.Latency = info.OnsetTime - stimulusTime
	}
	return info
}
