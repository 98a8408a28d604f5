package models

// Point is a 2D position. Screen-space points are normalized to [0,1] unless
// a calibration model says otherwise.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CalibratedGaze holds the per-eye calibrated screen positions for one frame.
// Avg is the cyclopean estimate when at least one eye is available.
type CalibratedGaze struct {
	Left  *Point `json:"left,omitempty"`
	Right *Point `json:"right,omitempty"`
	Avg   *Point `json:"avg,omitempty"`
}

// TrackingFrame is one annotated sample of the gaze stream. Frames are
// appended in arrival order; velocity and saccade fields are set exactly once
// when the frame enters the pipeline, the trial context fields come from
// whatever trial is active at that moment.
type TrackingFrame struct {
	Timestamp float64 `json:"timestamp"` // milliseconds

	LeftIris   *Point         `json:"leftIris,omitempty"`
	RightIris  *Point         `json:"rightIris,omitempty"`
	Calibrated CalibratedGaze `json:"calibrated"`

	Velocity           float64 `json:"velocity"`
	VelocityValid      bool    `json:"velocityValid"`
	VelocityReason     string  `json:"velocityReason,omitempty"`
	IsSaccade          bool    `json:"isSaccade"`
	BinocularDisparity float64 `json:"binocularDisparity"`
	ExcessiveDisparity bool    `json:"excessiveDisparity"`

	Trial       int     `json:"trial"`
	Phase       string  `json:"phase,omitempty"`
	DotPosition string  `json:"dotPosition,omitempty"`
	TargetX     float64 `json:"targetX"`
	TargetY     float64 `json:"targetY"`
	HasTarget   bool    `json:"hasTarget"`
}

// SaccadeInfo describes the first saccade run found after a stimulus. It is
// derived by scanning a frame window and never stored.
type SaccadeInfo struct {
	Detected     bool    `json:"detected"`
	OnsetTime    float64 `json:"onsetTime"`
	OffsetTime   float64 `json:"offsetTime"`
	PeakVelocity float64 `json:"peakVelocity"`
	Duration     float64 `json:"duration"`
	Latency      float64 `json:"latency"`
}

// FrameRecord is the flattened, persisted form of a TrackingFrame. Nullable
// gaze coordinates use pointers so missing eyes stay NULL in the database.
type FrameRecord struct {
	ID        int `gorm:"primaryKey"`
	SessionID int `gorm:"index:idx_frames_session_ts,priority:1"`

	Timestamp float64 `gorm:"index:idx_frames_session_ts,priority:2"`

	LeftIrisX  *float64
	LeftIrisY  *float64
	RightIrisX *float64
	RightIrisY *float64

	CalLeftX  *float64
	CalLeftY  *float64
	CalRightX *float64
	CalRightY *float64
	CalAvgX   *float64
	CalAvgY   *float64

	Velocity           float64
	VelocityValid      bool
	IsSaccade          bool
	BinocularDisparity float64
	ExcessiveDisparity bool

	Trial       int
	Phase       string
	DotPosition string
	TargetX     float64
	TargetY     float64
	HasTarget   bool
}

// NewFrameRecord flattens a frame for storage.
func NewFrameRecord(sessionID int, f *TrackingFrame) FrameRecord {
	r := FrameRecord{
		SessionID:          sessionID,
		Timestamp:          f.Timestamp,
		Velocity:           f.Velocity,
		VelocityValid:      f.VelocityValid,
		IsSaccade:          f.IsSaccade,
		BinocularDisparity: f.BinocularDisparity,
		ExcessiveDisparity: f.ExcessiveDisparity,
		Trial:              f.Trial,
		Phase:              f.Phase,
		DotPosition:        f.DotPosition,
		TargetX:            f.TargetX,
		TargetY:            f.TargetY,
		HasTarget:          f.HasTarget,
	}
	r.LeftIrisX, r.LeftIrisY = splitPoint(f.LeftIris)
	r.RightIrisX, r.RightIrisY = splitPoint(f.RightIris)
	r.CalLeftX, r.CalLeftY = splitPoint(f.Calibrated.Left)
	r.CalRightX, r.CalRightY = splitPoint(f.Calibrated.Right)
	r.CalAvgX, r.CalAvgY = splitPoint(f.Calibrated.Avg)
	return r
}

func splitPoint(p *Point) (x, y *float64) {
	if p == nil {
		return nil, nil
	}
	px, py := p.X, p.Y
	return &px, &py
}
