package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEyeModelValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		model *EyeModel
		want  bool
	}{
		{name: "nil model", model: nil, want: false},
		{
			name:  "short coefficients",
			model: &EyeModel{CoefX: []float64{1, 2}, CoefY: []float64{1, 2}},
			want:  false,
		},
		{
			name: "all-zero X coefficients",
			model: &EyeModel{
				CoefX: make([]float64, CoefficientCount),
				CoefY: []float64{0, 0, 1, 0, 0, 0},
			},
			want: false,
		},
		{
			name: "usable",
			model: &EyeModel{
				CoefX: []float64{0, 1, 0, 0, 0, 0},
				CoefY: []float64{0, 0, 1, 0, 0, 0},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.model.Valid())
		})
	}
}

func TestCalibrationModelValid(t *testing.T) {
	t.Parallel()

	var nilModel *CalibrationModel
	assert.False(t, nilModel.Valid())
	assert.False(t, (&CalibrationModel{}).Valid())

	eye := &EyeModel{
		CoefX: []float64{0, 1, 0, 0, 0, 0},
		CoefY: []float64{0, 0, 1, 0, 0, 0},
	}
	assert.True(t, (&CalibrationModel{Left: eye}).Valid())
	assert.True(t, (&CalibrationModel{Right: eye}).Valid())
}

func TestCalibrationRecordModel(t *testing.T) {
	t.Parallel()

	record := CalibrationRecord{
		LeftCoefX:        []float64{0, 1, 0, 0, 0, 0},
		LeftCoefY:        []float64{0, 0, 1, 0, 0, 0},
		Method:           "ridge_cv",
		CoordinateSystem: "normalized",
		ScreenWidth:      1920,
		ScreenHeight:     1080,
	}

	m := record.Model()
	require.NotNil(t, m.Left)
	assert.Nil(t, m.Right, "eye without stored coefficients stays absent")
	assert.True(t, m.Valid())
	assert.Equal(t, "ridge_cv", m.Metadata.Method)
	assert.Equal(t, 1920, m.Metadata.ScreenWidth)
}

func TestNewFrameRecordRoundTrip(t *testing.T) {
	t.Parallel()

	left := Point{X: 0.1, Y: 0.2}
	frame := TrackingFrame{
		Timestamp: 1234,
		LeftIris:  &left,
		Calibrated: CalibratedGaze{
			Left: &Point{X: 0.15, Y: 0.25},
			Avg:  &Point{X: 0.15, Y: 0.25},
		},
		Velocity:      42,
		VelocityValid: true,
		IsSaccade:     true,
		Trial:         2,
		Phase:         PhasePro,
		DotPosition:   DotLeft,
		TargetX:       0.2,
		TargetY:       0.5,
		HasTarget:     true,
	}

	r := NewFrameRecord(7, &frame)

	assert.Equal(t, 7, r.SessionID)
	require.NotNil(t, r.LeftIrisX)
	assert.InDelta(t, 0.1, *r.LeftIrisX, 1e-12)
	assert.Nil(t, r.RightIrisX, "missing eye stays NULL")
	require.NotNil(t, r.CalAvgX)
	assert.InDelta(t, 0.15, *r.CalAvgX, 1e-12)
	assert.True(t, r.IsSaccade)
	assert.Equal(t, 2, r.Trial)
	assert.Equal(t, DotLeft, r.DotPosition)
}
