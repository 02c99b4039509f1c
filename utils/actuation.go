package utils

import (
	"context"
	"fmt"

	"go.einride.tech/can"

	"throttle-fusion-core/fusion"
)

// Signal names of the throttle command frame.
const (
	SignalTorqueCmd     = "torque_cmd_nm"
	SignalPedalAngle    = "pedal_angle_deg"
	SignalFaultActive   = "fault_active"
	SignalDecisionKind  = "decision_kind"
	SignalDecisionSrc   = "decision_source"
	SignalFaultBits     = "fault_bits"
	DefaultCommandFrame = "THROTTLE_CMD_1"
)

// DecisionSourceNone is sent in decision_source when no channel was
// trusted (decision_kind=safe_default).
const DecisionSourceNone = 3

// BoolToFloat converts bool to float64 (for CAN encoding)
func BoolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

// ThrottleCommandValues maps one cycle result onto command frame signals.
func ThrottleCommandValues(res fusion.CycleResult) map[string]float64 {
	src := float64(res.Decision.Source)
	if res.Decision.Kind == fusion.DecisionSafeDefault {
		src = DecisionSourceNone
	}
	return map[string]float64{
		SignalTorqueCmd:    float64(res.Torque),
		SignalPedalAngle:   res.Decision.Angle,
		SignalFaultActive:  BoolToFloat(res.Decision.FaultRaised()),
		SignalDecisionKind: float64(res.Decision.Kind),
		SignalDecisionSrc:  src,
		SignalFaultBits:    float64(res.Decision.Faults),
	}
}

// CommandPublisher encodes cycle results into the command frame and hands
// them to a CANWriter.
type CommandPublisher struct {
	cmap   *CANMap
	fd     *FrameDef
	writer CANWriter
}

// NewCommandPublisher checks that frameName exists and carries the torque
// signal.
func NewCommandPublisher(cmap *CANMap, frameName string, writer CANWriter) (*CommandPublisher, error) {
	fd, err := cmap.FrameByName(frameName)
	if err != nil {
		return nil, fmt.Errorf("frame: %w", err)
	}
	if _, ok := fd.Signal(SignalTorqueCmd); !ok {
		return nil, fmt.Errorf("frame %s has no %s signal", fd.Name, SignalTorqueCmd)
	}
	return &CommandPublisher{cmap: cmap, fd: fd, writer: writer}, nil
}

// Frame returns the definition of the command frame.
func (p *CommandPublisher) Frame() *FrameDef {
	return p.fd
}

// Encode builds the frame for res without sending it.
func (p *CommandPublisher) Encode(res fusion.CycleResult) (can.Frame, error) {
	return p.cmap.EncodeEinrideFrame(p.fd.Name, ThrottleCommandValues(res))
}

// Publish encodes and transmits res.
func (p *CommandPublisher) Publish(ctx context.Context, res fusion.CycleResult) (can.Frame, error) {
	frame, err := p.Encode(res)
	if err != nil {
		return can.Frame{}, fmt.Errorf("encode: %w", err)
	}
	if err := p.writer.WriteFrame(ctx, frame); err != nil {
		return frame, fmt.Errorf("transmit 0x%X: %w", frame.ID, err)
	}
	return frame, nil
}

// Readback decodes frame the way a receiver would and returns the torque
// it carries. It differs from the commanded torque when the value
// saturated the signal range.
func (p *CommandPublisher) Readback(frame can.Frame) (float64, error) {
	vals, err := p.cmap.DecodeEinrideFrame(frame)
	if err != nil {
		return 0, fmt.Errorf("readback: %w", err)
	}
	return vals[SignalTorqueCmd], nil
}

func (p *CommandPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
