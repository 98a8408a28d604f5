package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Dot position labels used by the trial protocol.
const (
	DotCenter = "center"
	DotLeft   = "left"
	DotRight  = "right"
)

// Horizontal stimulus positions in normalized screen coordinates.
const (
	stimulusLeftX   = 0.2
	stimulusRightX  = 0.8
	stimulusCenterX = 0.5
	stimulusY       = 0.5
)

// PhaseBlock describes one block of trials in the protocol.
type PhaseBlock struct {
	Name         string   `yaml:"name"`
	Trials       int      `yaml:"trials"`
	Positions    []string `yaml:"positions"`
	FixationMs   float64  `yaml:"fixation_ms"`
	StimulusMs   float64  `yaml:"stimulus_ms"`
	Instructions string   `yaml:"instructions,omitempty"`
}

// Protocol is the YAML-defined trial sequence for a screening session.
type Protocol struct {
	CalibrationPoints []Point      `yaml:"calibration_points"`
	SamplesPerPoint   int          `yaml:"samples_per_point"`
	Phases            []PhaseBlock `yaml:"phases"`
}

// LoadProtocol reads and parses the protocol YAML file.
func LoadProtocol(path string) (*Protocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read protocol file: %w", err)
	}

	var p Protocol
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal protocol YAML: %w", err)
	}

	return &p, nil
}

// Phase returns the named phase block.
func (p *Protocol) Phase(name string) (PhaseBlock, bool) {
	for _, ph := range p.Phases {
		if ph.Name == name {
			return ph, true
		}
	}
	return PhaseBlock{}, false
}

// StimulusPosition maps a dot label to where the dot is drawn.
func StimulusPosition(dot string) Point {
	switch dot {
	case DotLeft:
		return Point{X: stimulusLeftX, Y: stimulusY}
	case DotRight:
		return Point{X: stimulusRightX, Y: stimulusY}
	default:
		return Point{X: stimulusCenterX, Y: stimulusY}
	}
}

// TargetPosition maps a dot label to where the subject is supposed to look.
// Pro-saccade trials target the stimulus itself; anti-saccade trials target
// the mirror of the stimulus side.
func TargetPosition(phase, dot string) Point {
	stim := StimulusPosition(dot)
	if phase == PhaseAnti && dot != DotCenter {
		return Point{X: 1.0 - stim.X, Y: stim.Y}
	}
	return stim
}
