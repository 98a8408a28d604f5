package saccade

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quangptt0910/SaccadeSync-sub000/internal/config"
	"github.com/quangptt0910/SaccadeSync-sub000/internal/models"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return NewPipeline(zap.NewNop(), config.Default().Tracking, nil, 1920, 1080)
}

func TestPipelineProcessFrameRawFallback(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t)
	iris := models.Point{X: 0.5, Y: 0.5}

	first := p.ProcessFrame(0, &iris, &iris)
	require.NotNil(t, first.Calibrated.Avg, "no model falls back to raw iris coordinates")
	assert.InDelta(t, 0.5, first.Calibrated.Avg.X, 1e-12)
	assert.False(t, first.VelocityValid, "first frame has no predecessor")
	assert.Equal(t, ReasonInvalidTimeDelta, first.VelocityReason)

	moved := models.Point{X: 0.6, Y: 0.5}
	second := p.ProcessFrame(100, &moved, &moved)
	assert.True(t, second.VelocityValid)
	assert.InDelta(t, 40, second.Velocity, 1e-9)
	assert.True(t, second.IsSaccade, "40°/s exceeds the 30°/s static threshold")

	assert.Len(t, p.Frames(), 2)
}

func TestPipelineTrialAnnotation(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t)
	iris := models.Point{X: 0.5, Y: 0.5}

	p.ProcessFrame(0, &iris, &iris)

	p.SetTrialContext(models.PhaseAnti, 3, models.DotLeft)
	frame := p.ProcessFrame(33, &iris, &iris)

	assert.Equal(t, 3, frame.Trial)
	assert.Equal(t, models.PhaseAnti, frame.Phase)
	assert.Equal(t, models.DotLeft, frame.DotPosition)
	assert.True(t, frame.HasTarget)
	// Anti-saccade: the correct response mirrors the stimulus side.
	assert.InDelta(t, 0.8, frame.TargetX, 1e-12)
	assert.InDelta(t, 0.5, frame.TargetY, 1e-12)

	p.ClearTrialContext()
	frame = p.ProcessFrame(66, &iris, &iris)
	assert.Zero(t, frame.Trial)
	assert.False(t, frame.HasTarget)
}

func TestPipelineTrialFramesIncludesBaseline(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t)
	iris := models.Point{X: 0.5, Y: 0.5}

	// Two seconds of inter-trial fixation, then the trial.
	for ts := 0.0; ts < 2000; ts += 100 {
		p.ProcessFrame(ts, &iris, &iris)
	}
	p.SetTrialContext(models.PhasePro, 1, models.DotRight)
	for ts := 2000.0; ts <= 3000; ts += 100 {
		p.ProcessFrame(ts, &iris, &iris)
	}

	frames := p.TrialFrames(models.PhasePro, 1)
	require.NotEmpty(t, frames)

	// The window reaches one second back for the fixation baseline.
	assert.InDelta(t, 1000, frames[0].Timestamp, 1e-9)
	assert.InDelta(t, 3000, frames[len(frames)-1].Timestamp, 1e-9)

	assert.Nil(t, p.TrialFrames(models.PhasePro, 99))
}

func TestPipelineTrialFramesKeyedByPhase(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t)
	iris := models.Point{X: 0.5, Y: 0.5}

	// Trial numbers restart at 1 in each phase. The same trial number run in
	// both phases must yield two separate windows, not one spanning both.
	p.SetTrialContext(models.PhasePro, 1, models.DotLeft)
	for ts := 0.0; ts <= 1000; ts += 100 {
		p.ProcessFrame(ts, &iris, &iris)
	}
	p.ClearTrialContext()
	for ts := 1100.0; ts <= 4000; ts += 100 {
		p.ProcessFrame(ts, &iris, &iris)
	}
	p.SetTrialContext(models.PhaseAnti, 1, models.DotRight)
	for ts := 4100.0; ts <= 5000; ts += 100 {
		p.ProcessFrame(ts, &iris, &iris)
	}

	pro := p.TrialFrames(models.PhasePro, 1)
	require.NotEmpty(t, pro)
	assert.InDelta(t, 1000, pro[len(pro)-1].Timestamp, 1e-9)
	for _, f := range pro {
		assert.NotEqual(t, models.PhaseAnti, f.Phase)
	}

	anti := p.TrialFrames(models.PhaseAnti, 1)
	require.NotEmpty(t, anti)
	// One second of baseline before the anti trial, nothing from the pro trial.
	assert.InDelta(t, 3100, anti[0].Timestamp, 1e-9)
	assert.InDelta(t, 5000, anti[len(anti)-1].Timestamp, 1e-9)

	assert.Nil(t, p.TrialFrames(models.PhaseAnti, 2))
}

func TestPipelineConcurrentAccess(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t)
	const perWorker = 200

	// Two frame batches racing a trial start for the same session. Run with
	// -race: every frame must land exactly once and the trial context must
	// stay coherent.
	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			iris := models.Point{X: 0.5, Y: 0.5}
			for i := 0; i < perWorker; i++ {
				ts := float64(w*perWorker+i) * 10
				p.ProcessFrame(ts, &iris, &iris)
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 10; i++ {
			p.SetTrialContext(models.PhasePro, i, models.DotLeft)
			p.Threshold()
			p.ClearTrialContext()
		}
	}()
	wg.Wait()

	assert.Len(t, p.Frames(), 2*perWorker)
	for _, f := range p.Frames() {
		if f.HasTarget {
			assert.GreaterOrEqual(t, f.Trial, 1, "annotated frames carry a trial number")
		}
	}
}

func TestPipelineAdaptiveThresholdRefresh(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t)
	iris := models.Point{X: 0.5, Y: 0.5}

	assert.InDelta(t, 30, p.Threshold(), 1e-9, "static threshold before any fixation data")

	// A stationary fixation period: velocities are all zero, so the adaptive
	// estimate collapses to the configured lower bound.
	for ts := 0.0; ts <= 1500; ts += 100 {
		p.ProcessFrame(ts, &iris, &iris)
	}
	p.SetTrialContext(models.PhasePro, 1, models.DotLeft)

	assert.InDelta(t, 25, p.Threshold(), 1e-9)
}

func TestPipelineSaccadeFramesExcludedFromFixationStats(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t)

	// Alternate fixation and saccade movement; only fixation velocities may
	// feed the adaptive threshold, so the estimate stays near zero instead of
	// being dragged up by the saccades.
	x := 0.1
	for i := 0; i < 40; i++ {
		ts := float64(i) * 100
		if i%4 == 3 {
			x += 0.2 // 80°/s jump, classified as saccade
		}
		iris := models.Point{X: x, Y: 0.5}
		p.ProcessFrame(ts, &iris, &iris)
	}
	p.SetTrialContext(models.PhasePro, 1, models.DotLeft)

	assert.InDelta(t, 25, p.Threshold(), 1e-9)
}
