package models

import (
	"time"

	"github.com/lib/pq"
)

// CoefficientCount is the length of every polynomial coefficient vector,
// ordered [1, x, y, x², y², xy].
const CoefficientCount = 6

// GazeSample is one accepted calibration frame: where the dot was and where
// the irises were while the user fixated it.
type GazeSample struct {
	PointIndex int     `json:"pointIndex"`
	TargetX    float64 `json:"targetX"`
	TargetY    float64 `json:"targetY"`
	IrisLeft   *Point  `json:"irisLeft,omitempty"`
	IrisRight  *Point  `json:"irisRight,omitempty"`
}

// EyeModel holds the fitted quadratic coefficients for one eye.
type EyeModel struct {
	CoefX []float64 `json:"coefX"`
	CoefY []float64 `json:"coefY"`
}

// Valid reports whether the model carries a usable fit. A model is usable
// only if at least one X coefficient is non-zero; consumers must fall back to
// raw iris coordinates otherwise.
func (m *EyeModel) Valid() bool {
	if m == nil || len(m.CoefX) < CoefficientCount || len(m.CoefY) < CoefficientCount {
		return false
	}
	for _, c := range m.CoefX {
		if c != 0 {
			return true
		}
	}
	return false
}

// ModelMetadata describes how and when a calibration model was produced.
type ModelMetadata struct {
	Method           string    `json:"method"`
	CoordinateSystem string    `json:"coordinateSystem"`
	Timestamp        time.Time `json:"timestamp"`
	ScreenWidth      int       `json:"screenWidth"`
	ScreenHeight     int       `json:"screenHeight"`
}

// CalibrationModel is the per-session output of a calibration run. It is
// replaced wholesale on re-calibration, never partially mutated.
type CalibrationModel struct {
	Left     *EyeModel     `json:"left,omitempty"`
	Right    *EyeModel     `json:"right,omitempty"`
	Metadata ModelMetadata `json:"metadata"`
}

// Valid reports whether at least one eye has a usable fit.
func (m *CalibrationModel) Valid() bool {
	if m == nil {
		return false
	}
	return m.Left.Valid() || m.Right.Valid()
}

// CalibrationRecord is the persisted form of a CalibrationModel plus its fit
// quality, one row per calibration run.
type CalibrationRecord struct {
	ID        int `gorm:"primaryKey"`
	SessionID int `gorm:"index"`

	LeftCoefX  pq.Float64Array `gorm:"type:double precision[]"`
	LeftCoefY  pq.Float64Array `gorm:"type:double precision[]"`
	RightCoefX pq.Float64Array `gorm:"type:double precision[]"`
	RightCoefY pq.Float64Array `gorm:"type:double precision[]"`

	LeftRMSE      float64
	LeftAccuracy  float64
	RightRMSE     float64
	RightAccuracy float64
	SampleCount   int
	Usable        bool

	Method           string
	CoordinateSystem string
	ScreenWidth      int
	ScreenHeight     int
	CreatedAt        time.Time
}

// Model rebuilds the in-memory calibration model from a stored record.
func (r *CalibrationRecord) Model() *CalibrationModel {
	m := &CalibrationModel{
		Metadata: ModelMetadata{
			Method:           r.Method,
			CoordinateSystem: r.CoordinateSystem,
			Timestamp:        r.CreatedAt,
			ScreenWidth:      r.ScreenWidth,
			ScreenHeight:     r.ScreenHeight,
		},
	}
	if len(r.LeftCoefX) == CoefficientCount {
		m.Left = &EyeModel{CoefX: r.LeftCoefX, CoefY: r.LeftCoefY}
	}
	if len(r.RightCoefX) == CoefficientCount {
		m.Right = &EyeModel{CoefX: r.RightCoefX, CoefY: r.RightCoefY}
	}
	return m
}
