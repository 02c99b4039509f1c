package fusion

// ADC is the two-channel pedal sensor converter.
type ADC interface {
	Init(ch ChannelID) error
	Read(ch ChannelID) (uint16, error)
}

// SpeedSource provides the current vehicle speed in the unit the torque
// regression was fitted with.
type SpeedSource interface {
	Init() error
	Speed() float64
}

// FaultSink is the write-only fault indicator. Setting an already active
// indicator again has no further effect.
type FaultSink interface {
	Set(active bool)
}

// Logger is the subset of utils.Logger the core writes to.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

type nopSink struct{}

func (nopSink) Set(bool) {}
