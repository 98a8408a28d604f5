package models

import (
	"encoding/json"
	"time"
)

// Phase labels for the two trial blocks.
const (
	PhasePro  = "pro"
	PhaseAnti = "anti"
)

// Latency classifications.
const (
	LatencyExpress = "express"
	LatencyNormal  = "normal"
	LatencyDelayed = "delayed"
	LatencyInvalid = "invalid"
)

// ADHDMarkers are the per-trial biomarker flags.
type ADHDMarkers struct {
	HypometricSaccade     bool `json:"hypometricSaccade"`
	PoorFixationStability bool `json:"poorFixationStability"`
	UnstableTracking      bool `json:"unstableTracking"`
}

// TrialQuality summarizes tracking quality over one trial window.
type TrialQuality struct {
	DataQuality     float64 `json:"dataQuality"`
	DisparityEvents int     `json:"disparityEvents"`
	MonocularFrames int     `json:"monocularFrames"`
	FrameCount      int     `json:"frameCount"`
}

// TrialAnalysis is the scored outcome of a single trial. Immutable once
// produced; failed trials carry a Reason and a zero accuracy score.
type TrialAnalysis struct {
	TrialNumber int    `json:"trialNumber"`
	Phase       string `json:"phase"`
	DotPosition string `json:"dotPosition,omitempty"`

	IsSaccade bool   `json:"isSaccade"`
	Reason    string `json:"reason,omitempty"`

	LatencyMs    float64 `json:"latencyMs"`
	LatencyClass string  `json:"latencyClass,omitempty"`
	PeakVelocity float64 `json:"peakVelocity"`
	DurationMs   float64 `json:"durationMs"`

	Gain          float64 `json:"gain"`
	IsHypometric  bool    `json:"isHypometric"`
	IsHypermetric bool    `json:"isHypermetric"`

	LandingScore      float64 `json:"landingScore"`
	GainScore         float64 `json:"gainScore"`
	StabilityScore    float64 `json:"stabilityScore"`
	AccuracyScore     float64 `json:"accuracyScore"`
	SustainedFixation bool    `json:"sustainedFixation"`
	ROIRadius         float64 `json:"roiRadius"`

	IsPhysiologicallyPlausible bool `json:"isPhysiologicallyPlausible"`

	ADHDMarkers ADHDMarkers  `json:"adhdMarkers"`
	Quality     TrialQuality `json:"quality"`
}

// Stat is a basic descriptive-statistics bundle.
type Stat struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// PhaseStatistics aggregates the valid trials of one phase.
type PhaseStatistics struct {
	Phase           string `json:"phase"`
	ValidTrialCount int    `json:"validTrialCount"`
	TotalTrialCount int    `json:"totalTrialCount"`
	Warning         string `json:"warning,omitempty"`

	Latency      Stat `json:"latency"`
	PeakVelocity Stat `json:"peakVelocity"`
	Accuracy     Stat `json:"accuracy"`
	Gain         Stat `json:"gain"`
	Duration     Stat `json:"duration"`

	DisparityEvents int     `json:"disparityEvents"`
	MeanDataQuality float64 `json:"meanDataQuality"`
}

// ComparisonReport is the final pro-vs-anti output of a session.
type ComparisonReport struct {
	LatencyDifference      float64 `json:"latencyDifference"`
	LatencyInterpretation  string  `json:"latencyInterpretation"`
	VelocityRatio          float64 `json:"velocityRatio"`
	VelocityInterpretation string  `json:"velocityInterpretation"`
	AccuracyDifference     float64 `json:"accuracyDifference"`
	AccuracyInterpretation string  `json:"accuracyInterpretation"`
	GainRatio              float64 `json:"gainRatio"`
	GainInterpretation     string  `json:"gainInterpretation"`
	OverallDiagnosis       string  `json:"overallDiagnosis"`
}

// TrialResult is the persisted summary row for one scored trial. RawData
// keeps the full TrialAnalysis for auditability, including trials excluded
// from aggregate statistics.
type TrialResult struct {
	ID        int `gorm:"primaryKey"`
	SessionID int `gorm:"index"`

	TrialNumber   int
	Phase         string
	IsSaccade     bool
	Reason        string
	LatencyMs     float64
	LatencyClass  string
	PeakVelocity  float64
	DurationMs    float64
	Gain          float64
	AccuracyScore float64
	DataQuality   float64
	Plausible     bool

	RawData   json.RawMessage `gorm:"type:jsonb"`
	CreatedAt time.Time
}

// NewTrialResult builds the storage row for a scored trial.
func NewTrialResult(sessionID int, a *TrialAnalysis) TrialResult {
	raw, err := json.Marshal(a)
	if err != nil {
		raw = json.RawMessage("{}")
	}
	return TrialResult{
		SessionID:     sessionID,
		TrialNumber:   a.TrialNumber,
		Phase:         a.Phase,
		IsSaccade:     a.IsSaccade,
		Reason:        a.Reason,
		LatencyMs:     a.LatencyMs,
		LatencyClass:  a.LatencyClass,
		PeakVelocity:  a.PeakVelocity,
		DurationMs:    a.DurationMs,
		Gain:          a.Gain,
		AccuracyScore: a.AccuracyScore,
		DataQuality:   a.Quality.DataQuality,
		Plausible:     a.IsPhysiologicallyPlausible,
		RawData:       raw,
		CreatedAt:     time.Now(),
	}
}

// Analysis unmarshals the stored TrialAnalysis.
func (r *TrialResult) Analysis() (*TrialAnalysis, error) {
	var a TrialAnalysis
	if err := json.Unmarshal(r.RawData, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
