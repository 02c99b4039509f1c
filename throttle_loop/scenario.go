package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Scenario drives the simulated peripherals of one bench run
type Scenario struct {
	Meta     ScenarioMeta      `json:"meta"`
	Timing   ScenarioTiming    `json:"timing"`
	Init     InitOutcome       `json:"init"`
	Defaults SensorStep        `json:"defaults"`
	Segments []ScenarioSegment `json:"segments"`
}

// ScenarioMeta contains scenario metadata
type ScenarioMeta struct {
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Description string `json:"description"`
}

// ScenarioTiming defines timing parameters
type ScenarioTiming struct {
	CycleMS   int     `json:"cycle_ms"`
	DurationS float64 `json:"duration_s"`
}

// InitOutcome lists peripherals whose initialization should fail
type InitOutcome struct {
	ADC0Fail  bool `json:"adc0_fail,omitempty"`
	ADC1Fail  bool `json:"adc1_fail,omitempty"`
	SpeedFail bool `json:"speed_fail,omitempty"`
}

// SensorStep is what the simulated peripherals report during one cycle
type SensorStep struct {
	Raw0      uint16  `json:"raw0"`
	Raw1      uint16  `json:"raw1"`
	Read0Fail bool    `json:"read0_fail,omitempty"`
	Read1Fail bool    `json:"read1_fail,omitempty"`
	Speed     float64 `json:"speed"`
}

// ScenarioSegment overrides the defaults in [T0, T1). T1 < 0 runs to the end.
type ScenarioSegment struct {
	T0      float64    `json:"t0"`
	T1      float64    `json:"t1"`
	Step    SensorStep `json:"step"`
	Comment string     `json:"comment,omitempty"`
}

// DefaultScenario reproduces the reference bench setup: both channels near
// 10 degrees and a speed of 10.
func DefaultScenario() Scenario {
	return Scenario{
		Meta:     ScenarioMeta{Name: "reference", Version: 1, Description: "Nominal pedal at ~10 deg, speed 10"},
		Timing:   ScenarioTiming{CycleMS: 10, DurationS: 1},
		Defaults: SensorStep{Raw0: 19712, Raw1: 23552, Speed: 10},
	}
}

// LoadScenario loads a scenario from JSON file
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read file: %w", err)
	}

	scen := DefaultScenario()
	if err := json.Unmarshal(data, &scen); err != nil {
		return Scenario{}, fmt.Errorf("unmarshal: %w", err)
	}

	if err := scen.Validate(); err != nil {
		return Scenario{}, err
	}
	return scen, nil
}

func (s *Scenario) Validate() error {
	if s.Timing.DurationS <= 0 {
		return fmt.Errorf("invalid duration_s: %f", s.Timing.DurationS)
	}
	if s.Timing.CycleMS <= 0 {
		return fmt.Errorf("invalid cycle_ms: %d", s.Timing.CycleMS)
	}
	for i, seg := range s.Segments {
		if seg.T1 >= 0 && seg.T1 <= seg.T0 {
			return fmt.Errorf("segment %d: t1 %.3f must be after t0 %.3f", i, seg.T1, seg.T0)
		}
	}
	return nil
}

// StepAt returns the sensor values active at time t; the first matching
// segment wins.
func (s *Scenario) StepAt(t float64) SensorStep {
	for _, seg := range s.Segments {
		t1 := seg.T1
		if t1 < 0 {
			t1 = s.Timing.DurationS
		}
		if t >= seg.T0 && t < t1 {
			return seg.Step
		}
	}
	return s.Defaults
}

// ParseSensorStep parses "raw0,raw1,speed", the form taken by -eval.
func ParseSensorStep(s string) (SensorStep, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return SensorStep{}, fmt.Errorf("sensor step %q: want raw0,raw1,speed", s)
	}
	var raws [2]uint16
	for i := range raws {
		v, err := strconv.ParseUint(strings.TrimSpace(parts[i]), 10, 16)
		if err != nil {
			return SensorStep{}, fmt.Errorf("sensor step raw%d: %w", i, err)
		}
		raws[i] = uint16(v)
	}
	speed, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return SensorStep{}, fmt.Errorf("sensor step speed: %w", err)
	}
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return SensorStep{}, fmt.Errorf("sensor step speed must be finite, got %v", speed)
	}
	return SensorStep{Raw0: raws[0], Raw1: raws[1], Speed: speed}, nil
}
