package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStimulusPosition(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Point{X: 0.2, Y: 0.5}, StimulusPosition(DotLeft))
	assert.Equal(t, Point{X: 0.8, Y: 0.5}, StimulusPosition(DotRight))
	assert.Equal(t, Point{X: 0.5, Y: 0.5}, StimulusPosition(DotCenter))
	assert.Equal(t, Point{X: 0.5, Y: 0.5}, StimulusPosition("bogus"), "unknown labels fall back to center")
}

func TestTargetPosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		phase string
		dot   string
		want  Point
	}{
		{name: "pro left targets stimulus", phase: PhasePro, dot: DotLeft, want: Point{X: 0.2, Y: 0.5}},
		{name: "pro right targets stimulus", phase: PhasePro, dot: DotRight, want: Point{X: 0.8, Y: 0.5}},
		{name: "anti left mirrors", phase: PhaseAnti, dot: DotLeft, want: Point{X: 0.8, Y: 0.5}},
		{name: "anti right mirrors", phase: PhaseAnti, dot: DotRight, want: Point{X: 0.2, Y: 0.5}},
		{name: "anti center has no mirror", phase: PhaseAnti, dot: DotCenter, want: Point{X: 0.5, Y: 0.5}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := TargetPosition(tt.phase, tt.dot)
			assert.InDelta(t, tt.want.X, got.X, 1e-12)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-12)
		})
	}
}

func TestLoadProtocol(t *testing.T) {
	t.Parallel()

	content := `
calibration_points:
  - { x: 0.1, y: 0.1 }
  - { x: 0.9, y: 0.9 }
samples_per_point: 15
phases:
  - name: pro
    trials: 2
    positions: [left, right]
    fixation_ms: 1500
    stimulus_ms: 1200
  - name: anti
    trials: 2
    positions: [right, left]
    fixation_ms: 1500
    stimulus_ms: 1500
`
	path := filepath.Join(t.TempDir(), "protocol.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	p, err := LoadProtocol(path)
	require.NoError(t, err)

	assert.Len(t, p.CalibrationPoints, 2)
	assert.Equal(t, 15, p.SamplesPerPoint)
	require.Len(t, p.Phases, 2)

	pro, ok := p.Phase("pro")
	require.True(t, ok)
	assert.Equal(t, 2, pro.Trials)
	assert.Equal(t, []string{"left", "right"}, pro.Positions)

	_, ok = p.Phase("missing")
	assert.False(t, ok)
}

func TestLoadProtocolErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadProtocol(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("phases: {not: [valid"), 0644))
	_, err = LoadProtocol(path)
	assert.Error(t, err)
}
