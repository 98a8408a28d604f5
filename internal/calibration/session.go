package calibration

import (
	"go.uber.org/zap"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

// PointTarget is one calibration dot shown to the subject.
type PointTarget struct {
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// SampleSource yields the accepted iris samples collected while the subject
// fixates one calibration dot. Supplied by the caller that owns frame capture.
type SampleSource func(target PointTarget) []models.GazeSample

// Result is the outcome of a full calibration run.
type Result struct {
	Model     *models.CalibrationModel `json:"model,omitempty"`
	Fits      map[Eye]FitResult        `json:"fits,omitempty"`
	Accuracy  float64                  `json:"accuracy"`
	Usable    bool                     `json:"usable"`
	Cancelled bool                     `json:"cancelled"`
}

// Session owns the sample buffer of one calibration run. Samples are
// append-only; re-calibration starts a fresh Session.
type Session struct {
	log         *zap.Logger
	minPerPoint int
	samples     []models.GazeSample
}

// NewSession creates a calibration session. minPerPoint is the number of
// accepted samples expected per dot before the run is considered complete.
func NewSession(log *zap.Logger, minPerPoint int) *Session {
	return &Session{log: log, minPerPoint: minPerPoint}
}

// AddSample appends one calibration sample. Samples with neither eye tracked
// are rejected.
func (s *Session) AddSample(sample models.GazeSample) bool {
	if sample.IrisLeft == nil && sample.IrisRight == nil {
		return false
	}
	s.samples = append(s.samples, sample)
	return true
}

// Samples returns the accepted samples collected so far.
func (s *Session) Samples() []models.GazeSample {
	return s.samples
}

// PointSampleCount returns how many accepted samples a dot has.
func (s *Session) PointSampleCount(pointIndex int) int {
	count := 0
	for i := range s.samples {
		if s.samples[i].PointIndex == pointIndex {
			count++
		}
	}
	return count
}

// Complete reports whether every dot reached the per-point sample minimum.
func (s *Session) Complete(points []PointTarget) bool {
	for _, pt := range points {
		if s.PointSampleCount(pt.Index) < s.minPerPoint {
			return false
		}
	}
	return true
}

// Run walks the calibration dot sequence, collecting samples from source and
// fitting the model at the end. The cancelled flag is owned by the caller and
// checked between points only, never inside per-frame work. The call is
// synchronous and returns a complete Result either way.
func (s *Session) Run(points []PointTarget, source SampleSource, cancelled func() bool, fitter *Fitter, screenWidth, screenHeight int, accuracyThreshold float64) Result {
	for _, pt := range points {
		if cancelled != nil && cancelled() {
			s.log.Info("Calibration cancelled",
				zap.Int("point", pt.Index),
				zap.Int("samples", len(s.samples)))
			return Result{Cancelled: true}
		}

		accepted := 0
		for _, sample := range source(pt) {
			sample.PointIndex = pt.Index
			sample.TargetX = pt.X
			sample.TargetY = pt.Y
			if s.AddSample(sample) {
				accepted++
			}
		}
		if accepted < s.minPerPoint {
			s.log.Warn("Calibration point undersampled",
				zap.Int("point", pt.Index),
				zap.Int("accepted", accepted),
				zap.Int("wanted", s.minPerPoint))
		}
	}

	return s.Finish(fitter, screenWidth, screenHeight, accuracyThreshold)
}

// Finish fits the collected samples into a calibration model and judges
// whether it is accurate enough to use. Below-threshold results are returned
// with Usable=false so the caller can demand a re-calibration.
func (s *Session) Finish(fitter *Fitter, screenWidth, screenHeight int, accuracyThreshold float64) Result {
	model, fits := fitter.FitModel(s.samples, screenWidth, screenHeight)
	accuracy := BestAccuracy(fits)

	result := Result{
		Model:    model,
		Fits:     fits,
		Accuracy: accuracy,
		Usable:   model.Valid() && accuracy >= accuracyThreshold,
	}

	for eye, fit := range fits {
		if fit.Calculated {
			s.log.Info("Calibration eye fitted",
				zap.String("eye", string(eye)),
				zap.Float64("rmse", fit.RMSE),
				zap.Float64("accuracy", fit.Accuracy),
				zap.Int("samples", fit.SampleCount))
		} else {
			s.log.Warn("Calibration eye failed",
				zap.String("eye", string(eye)),
				zap.String("reason", fit.Reason),
				zap.Int("samples", fit.SampleCount))
		}
	}
	return result
}
