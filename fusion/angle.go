package fusion

import "math"

// InvalidAngle is returned by Convert for an unknown channel. It lies
// outside every valid pedal range, so the arbiter treats it as unusable.
const InvalidAngle = -1.0

// Converter maps raw ADC samples to pedal angles.
type Converter struct {
	cfg       Config
	fullScale float64
}

// NewConverter creates a converter for the given calibration.
func NewConverter(cfg Config) Converter {
	return Converter{
		cfg:       cfg,
		fullScale: math.Pow(2, float64(cfg.ResolutionBits)),
	}
}

// Voltage reconstructs the sensor voltage of a raw sample.
func (c Converter) Voltage(raw uint16) float64 {
	return (float64(raw) / c.fullScale) * c.cfg.ReferenceVoltage
}

// Convert returns the pedal angle in degrees for a raw sample of ch.
func (c Converter) Convert(ch ChannelID, raw uint16) float64 {
	cal, ok := c.cfg.calibration(ch)
	if !ok {
		return InvalidAngle
	}
	return float64(cal.Gain*c.Voltage(raw)) + cal.Bias
}

// Estimate converts one reading into an available AngleEstimate.
func (c Converter) Estimate(r ChannelReading) AngleEstimate {
	return AngleEstimate{
		Channel:   r.Channel,
		Angle:     c.Convert(r.Channel, r.Raw),
		Available: true,
	}
}

// Unavailable is the estimate of a channel that could not be read.
func Unavailable(ch ChannelID) AngleEstimate {
	return AngleEstimate{Channel: ch, Angle: InvalidAngle}
}
