package saccade

import (
	"sync"

	"go.uber.org/zap"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/calibration"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

// Pipeline is the per-session frame processor. Frames are processed to
// completion in arrival order: calibrate, estimate velocity, classify, then
// append to the immutable frame sequence. The per-frame path performs no I/O.
// All exported methods lock, so overlapping requests for the same session see
// a serialized frame sequence.
type Pipeline struct {
	log *zap.Logger
	cfg config.TrackingConfig

	mu sync.Mutex

	model     *models.CalibrationModel
	detector  *Detector
	threshold float64
	adaptive  *ThresholdEstimator

	frames []models.TrackingFrame

	// Rolling window of recent fixation velocities feeding the adaptive
	// threshold at the next trial boundary.
	fixationVelocities []float64

	trial       int
	phase       string
	dotPosition string
	targetX     float64
	targetY     float64
	hasTarget   bool
}

// NewPipeline builds the frame pipeline for one session. The calibration
// model may be nil or invalid, in which case raw iris coordinates are used.
func NewPipeline(log *zap.Logger, cfg config.TrackingConfig, model *models.CalibrationModel, screenWidth, screenHeight int) *Pipeline {
	estimator := NewVelocityEstimator(cfg, screenWidth, screenHeight)
	p := &Pipeline{
		log:       log,
		cfg:       cfg,
		model:     model,
		detector:  NewDetector(estimator),
		threshold: cfg.StaticThresholdDegSec,
	}
	if cfg.Adaptive.Enabled {
		p.adaptive = NewThresholdEstimator(cfg)
	}
	return p
}

// SetCalibrationModel replaces the calibration model after a re-calibration.
func (p *Pipeline) SetCalibrationModel(model *models.CalibrationModel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = model
}

// Threshold returns the velocity threshold currently in effect.
func (p *Pipeline) Threshold() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.threshold
}

// SetTrialContext sets the active trial annotation for subsequent frames and,
// when adaptive thresholding is enabled, refreshes the velocity threshold
// from the fixation noise observed so far. Called at trial boundaries, never
// inside the per-frame path.
func (p *Pipeline) SetTrialContext(phase string, trial int, dotPosition string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.phase = phase
	p.trial = trial
	p.dotPosition = dotPosition

	target := models.TargetPosition(phase, dotPosition)
	p.targetX = target.X
	p.targetY = target.Y
	p.hasTarget = true

	if p.adaptive != nil {
		old := p.threshold
		p.threshold = p.adaptive.Estimate(p.fixationVelocities)
		if p.threshold != old {
			p.log.Debug("Adaptive threshold updated",
				zap.Int("trial", trial),
				zap.String("phase", phase),
				zap.Float64("threshold", p.threshold),
				zap.Int("fixationSamples", len(p.fixationVelocities)))
		}
	}
}

// ClearTrialContext marks subsequent frames as outside any trial.
func (p *Pipeline) ClearTrialContext() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.phase = ""
	p.trial = 0
	p.dotPosition = ""
	p.targetX = 0
	p.targetY = 0
	p.hasTarget = false
}

// ProcessFrame ingests one raw frame and returns the annotated TrackingFrame
// that was appended. Velocity and saccade fields are set exactly once here.
func (p *Pipeline) ProcessFrame(timestamp float64, leftIris, rightIris *models.Point) models.TrackingFrame {
	p.mu.Lock()
	defer p.mu.Unlock()

	frame := models.TrackingFrame{
		Timestamp:   timestamp,
		LeftIris:    leftIris,
		RightIris:   rightIris,
		Trial:       p.trial,
		Phase:       p.phase,
		DotPosition: p.dotPosition,
		TargetX:     p.targetX,
		TargetY:     p.targetY,
		HasTarget:   p.hasTarget,
	}

	if p.model.Valid() {
		frame.Calibrated = calibration.PredictGaze(leftIris, rightIris, p.model)
	} else {
		// No usable model: fall back to raw iris coordinates.
		frame.Calibrated = calibration.RawGaze(leftIris, rightIris)
	}

	if n := len(p.frames); n > 0 {
		c := p.detector.Classify(&p.frames[n-1], &frame, p.threshold)
		frame.Velocity = c.Velocity
		frame.VelocityValid = c.IsValid
		frame.VelocityReason = c.Reason
		frame.IsSaccade = c.IsSaccade
		frame.BinocularDisparity = c.Disparity
		frame.ExcessiveDisparity = c.ExcessiveDisparity

		if c.IsValid && !c.IsSaccade {
			p.recordFixationVelocity(c.Velocity)
		}
	} else {
		frame.VelocityReason = ReasonInvalidTimeDelta
	}

	p.frames = append(p.frames, frame)
	return frame
}

// recordFixationVelocity keeps a bounded window of recent fixation-period
// velocities for the adaptive threshold.
func (p *Pipeline) recordFixationVelocity(v float64) {
	if v >= p.cfg.MaxFixationVelocityDegSec {
		return
	}
	p.fixationVelocities = append(p.fixationVelocities, v)
	if max := p.cfg.FixationVelocityWindowSize; max > 0 && len(p.fixationVelocities) > max {
		p.fixationVelocities = p.fixationVelocities[len(p.fixationVelocities)-max:]
	}
}

// Frames returns the full annotated frame sequence.
func (p *Pipeline) Frames() []models.TrackingFrame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// TrialFrames returns the frames annotated with the given phase and trial
// number, plus the preceding second of frames so scoring can establish a
// fixation baseline. Trial numbers restart at 1 in each phase, so the phase
// is part of the key.
func (p *Pipeline) TrialFrames(phase string, trial int) []models.TrackingFrame {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := -1
	end := -1
	for i := range p.frames {
		if p.frames[i].Phase == phase && p.frames[i].Trial == trial && p.frames[i].HasTarget {
			if start < 0 {
				start = i
			}
			end = i
		}
	}
	if start < 0 {
		return nil
	}

	baselineCutoff := p.frames[start].Timestamp - 1000
	for start > 0 && p.frames[start-1].Timestamp >= baselineCutoff {
		start--
	}
	return p.frames[start : end+1]
}
