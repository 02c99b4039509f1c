package fusion

import (
	"fmt"
	"strings"
)

// ChannelID identifies one of the two redundant pedal-position sensors.
type ChannelID int

const (
	Channel0 ChannelID = iota
	Channel1
)

func (c ChannelID) String() string {
	switch c {
	case Channel0:
		return "channel0"
	case Channel1:
		return "channel1"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// ChannelReading is one raw ADC sample, full scale 0..65535.
type ChannelReading struct {
	Channel ChannelID
	Raw     uint16
}

// AngleEstimate is the pedal angle derived from a single channel.
// Available is false when the channel could not be read this cycle.
type AngleEstimate struct {
	Channel   ChannelID
	Angle     float64
	Available bool
}

// DecisionKind tags how the arbiter arrived at the trusted angle.
type DecisionKind int

const (
	// DecisionTrusted: both channels usable, Channel0 trusted.
	DecisionTrusted DecisionKind = iota
	// DecisionFallback: one channel unusable, the other one is used.
	DecisionFallback
	// DecisionSafeDefault: no usable channel, the safe angle is used.
	DecisionSafeDefault
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionTrusted:
		return "trusted"
	case DecisionFallback:
		return "fallback"
	case DecisionSafeDefault:
		return "safe_default"
	default:
		return "unknown"
	}
}

// Fault is a bitmask of the anomalies detected during one cycle.
type Fault uint8

const (
	FaultInit Fault = 1 << iota
	FaultChannel0Read
	FaultChannel1Read
	FaultChannel0Range
	FaultChannel1Range
	FaultDisagreement
)

var faultNames = []struct {
	bit  Fault
	name string
}{
	{FaultInit, "init"},
	{FaultChannel0Read, "channel0_read"},
	{FaultChannel1Read, "channel1_read"},
	{FaultChannel0Range, "channel0_range"},
	{FaultChannel1Range, "channel1_range"},
	{FaultDisagreement, "disagreement"},
}

// Has reports whether every bit of other is set in f.
func (f Fault) Has(other Fault) bool {
	return other != 0 && f&other == other
}

// Kinds lists the individual fault names set in f, in bit order.
func (f Fault) Kinds() []string {
	var out []string
	for _, fn := range faultNames {
		if f&fn.bit != 0 {
			out = append(out, fn.name)
		}
	}
	return out
}

func (f Fault) String() string {
	if f == 0 {
		return "none"
	}
	return strings.Join(f.Kinds(), "|")
}

func readFault(ch ChannelID) Fault {
	if ch == Channel1 {
		return FaultChannel1Read
	}
	return FaultChannel0Read
}

func rangeFault(ch ChannelID) Fault {
	if ch == Channel1 {
		return FaultChannel1Range
	}
	return FaultChannel0Range
}

// PedalAngleDecision is the only value that crosses from the arbiter
// into the torque model.
type PedalAngleDecision struct {
	Kind   DecisionKind
	Source ChannelID // meaningless for DecisionSafeDefault
	Angle  float64
	Faults Fault
}

// FaultRaised reports whether the decision signalled the fault sink.
func (d PedalAngleDecision) FaultRaised() bool {
	return d.Faults != 0
}

// TorqueCommand is the integral drive torque request of one cycle.
type TorqueCommand int

// CycleResult collects everything one decision cycle produced.
type CycleResult struct {
	Readings  [2]ChannelReading
	Estimates [2]AngleEstimate
	Decision  PedalAngleDecision
	Speed     float64
	Torque    TorqueCommand
}
