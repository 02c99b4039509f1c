package fusion

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every Config.Validate failure.
var ErrInvalidConfig = errors.New("invalid fusion config")

// ChannelCalibration is the inverted sensor transfer function:
// angle = Gain*voltage + Bias.
type ChannelCalibration struct {
	Gain float64 `json:"gain" yaml:"gain"`
	Bias float64 `json:"bias" yaml:"bias"`
}

// TorqueCoefficients of the affine regression
// torque = Intercept + AngleGain*angle + SpeedGain*speed.
type TorqueCoefficients struct {
	Intercept float64 `json:"intercept" yaml:"intercept"`
	AngleGain float64 `json:"angle_gain" yaml:"angle_gain"`
	SpeedGain float64 `json:"speed_gain" yaml:"speed_gain"`
}

// Config holds the calibration and policy constants of the fusion core.
type Config struct {
	ReferenceVoltage float64 `json:"reference_voltage" yaml:"reference_voltage"`
	ResolutionBits   int     `json:"resolution_bits" yaml:"resolution_bits"`

	Channel0 ChannelCalibration `json:"channel0" yaml:"channel0"`
	Channel1 ChannelCalibration `json:"channel1" yaml:"channel1"`

	MinPedalAngle      float64 `json:"min_pedal_angle" yaml:"min_pedal_angle"`
	MaxPedalAngle      float64 `json:"max_pedal_angle" yaml:"max_pedal_angle"`
	ToleranceDeviation float64 `json:"tolerance_deviation" yaml:"tolerance_deviation"`
	SafeAngle          float64 `json:"safe_angle" yaml:"safe_angle"`

	Torque TorqueCoefficients `json:"torque" yaml:"torque"`
}

// DefaultConfig returns the production calibration:
// channel0 voltage = 0.5 + 0.1*angle, channel1 voltage = 1.0 + 0.08*angle,
// 5 V reference at 16 bits, pedal range [0, 30] with 5% tolerance.
func DefaultConfig() Config {
	return Config{
		ReferenceVoltage:   5.0,
		ResolutionBits:     16,
		Channel0:           ChannelCalibration{Gain: 10, Bias: -5},
		Channel1:           ChannelCalibration{Gain: 12.5, Bias: -12.5},
		MinPedalAngle:      0,
		MaxPedalAngle:      30,
		ToleranceDeviation: 0.05,
		SafeAngle:          0,
		Torque: TorqueCoefficients{
			Intercept: 2.4437,
			AngleGain: 1.3249,
			SpeedGain: -0.345,
		},
	}
}

// Validate checks the config for values the core cannot work with.
func (c Config) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"reference_voltage", c.ReferenceVoltage},
		{"channel0.gain", c.Channel0.Gain},
		{"channel0.bias", c.Channel0.Bias},
		{"channel1.gain", c.Channel1.Gain},
		{"channel1.bias", c.Channel1.Bias},
		{"min_pedal_angle", c.MinPedalAngle},
		{"max_pedal_angle", c.MaxPedalAngle},
		{"tolerance_deviation", c.ToleranceDeviation},
		{"safe_angle", c.SafeAngle},
		{"torque.intercept", c.Torque.Intercept},
		{"torque.angle_gain", c.Torque.AngleGain},
		{"torque.speed_gain", c.Torque.SpeedGain},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidConfig, f.name, f.v)
		}
	}

	if c.ReferenceVoltage <= 0 {
		return fmt.Errorf("%w: reference_voltage must be > 0, got %v", ErrInvalidConfig, c.ReferenceVoltage)
	}
	if c.ResolutionBits <= 0 || c.ResolutionBits > 16 {
		return fmt.Errorf("%w: resolution_bits must be in 1..16, got %d", ErrInvalidConfig, c.ResolutionBits)
	}
	if c.Channel0.Gain == 0 || c.Channel1.Gain == 0 {
		return fmt.Errorf("%w: channel gain must be non-zero", ErrInvalidConfig)
	}
	// The unknown-channel sentinel must stay outside the pedal range.
	if c.MinPedalAngle <= InvalidAngle {
		return fmt.Errorf("%w: min_pedal_angle must be > %v, got %v", ErrInvalidConfig, float64(InvalidAngle), c.MinPedalAngle)
	}
	if c.MinPedalAngle >= c.MaxPedalAngle {
		return fmt.Errorf("%w: pedal range [%v, %v] is empty", ErrInvalidConfig, c.MinPedalAngle, c.MaxPedalAngle)
	}
	if c.ToleranceDeviation < 0 || c.ToleranceDeviation >= 1 {
		return fmt.Errorf("%w: tolerance_deviation must be in [0, 1), got %v", ErrInvalidConfig, c.ToleranceDeviation)
	}
	return nil
}

func (c Config) calibration(ch ChannelID) (ChannelCalibration, bool) {
	switch ch {
	case Channel0:
		return c.Channel0, true
	case Channel1:
		return c.Channel1, true
	default:
		return ChannelCalibration{}, false
	}
}
