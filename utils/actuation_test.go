package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.einride.tech/can"

	"throttle-fusion-core/fusion"
)

type fakeWriter struct {
	frames []can.Frame
	err    error
	closed bool
}

func (w *fakeWriter) WriteFrame(_ context.Context, f can.Frame) error {
	if w.err != nil {
		return w.err
	}
	w.frames = append(w.frames, f)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func fallbackResult() fusion.CycleResult {
	return fusion.CycleResult{
		Decision: fusion.PedalAngleDecision{
			Kind:   fusion.DecisionFallback,
			Source: fusion.Channel1,
			Angle:  9.96,
			Faults: fusion.FaultChannel0Range,
		},
		Speed:  20,
		Torque: 8,
	}
}

func TestThrottleCommandValues(t *testing.T) {
	t.Parallel()

	vals := ThrottleCommandValues(fallbackResult())
	assert.Equal(t, 8.0, vals[SignalTorqueCmd])
	assert.Equal(t, 9.96, vals[SignalPedalAngle])
	assert.Equal(t, 1.0, vals[SignalFaultActive])
	assert.Equal(t, float64(fusion.DecisionFallback), vals[SignalDecisionKind])
	assert.Equal(t, 1.0, vals[SignalDecisionSrc])
	assert.Equal(t, float64(fusion.FaultChannel0Range), vals[SignalFaultBits])

	assert.Equal(t, 0.0, BoolToFloat(false))
}

func TestCommandPublisher_Publish(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	pub, err := NewCommandPublisher(mustParse(t, testCANMap), DefaultCommandFrame, w)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x210), pub.Frame().ID)

	frame, err := pub.Publish(context.Background(), fallbackResult())
	require.NoError(t, err)
	require.Len(t, w.frames, 1)
	assert.Equal(t, frame, w.frames[0])

	vals, err := mustParse(t, testCANMap).DecodeEinrideFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, 8.0, vals[SignalTorqueCmd])
	assert.InDelta(t, 9.96, vals[SignalPedalAngle], 1e-9)
	assert.Equal(t, 1.0, vals[SignalFaultActive])

	require.NoError(t, pub.Close())
	assert.True(t, w.closed)
}

func TestThrottleCommandValues_SafeDefaultHasNoSource(t *testing.T) {
	t.Parallel()

	res := fusion.CycleResult{
		Decision: fusion.PedalAngleDecision{
			Kind:   fusion.DecisionSafeDefault,
			Faults: fusion.FaultChannel0Range | fusion.FaultChannel1Range,
		},
		Torque: 2,
	}
	pub, err := NewCommandPublisher(mustParse(t, testCANMap), DefaultCommandFrame, &fakeWriter{})
	require.NoError(t, err)
	frame, err := pub.Encode(res)
	require.NoError(t, err)

	vals, err := mustParse(t, testCANMap).DecodeEinrideFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, float64(fusion.DecisionSafeDefault), vals[SignalDecisionKind])
	assert.Equal(t, float64(DecisionSourceNone), vals[SignalDecisionSrc])

	// A trusted channel0 decision stays distinguishable on the wire.
	res.Decision = fusion.PedalAngleDecision{Kind: fusion.DecisionTrusted, Source: fusion.Channel0, Angle: 10}
	frame, err = pub.Encode(res)
	require.NoError(t, err)
	vals, err = mustParse(t, testCANMap).DecodeEinrideFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, 0.0, vals[SignalDecisionSrc])
}

func TestCommandPublisher_Readback(t *testing.T) {
	t.Parallel()

	pub, err := NewCommandPublisher(mustParse(t, testCANMap), DefaultCommandFrame, &fakeWriter{})
	require.NoError(t, err)

	frame, err := pub.Encode(fallbackResult())
	require.NoError(t, err)
	wire, err := pub.Readback(frame)
	require.NoError(t, err)
	assert.Equal(t, 8.0, wire)

	res := fallbackResult()
	res.Torque = 40000
	frame, err = pub.Encode(res)
	require.NoError(t, err)
	wire, err = pub.Readback(frame)
	require.NoError(t, err)
	assert.Equal(t, 32767.0, wire, "torque saturates to the int16 field")

	_, err = pub.Readback(can.Frame{ID: 0x7FF, Length: 8})
	assert.Error(t, err)
}

func TestCommandPublisher_Errors(t *testing.T) {
	t.Parallel()

	m := mustParse(t, testCANMap)
	_, err := NewCommandPublisher(m, "MISSING", &fakeWriter{})
	assert.Error(t, err)
	_, err = NewCommandPublisher(m, "VEHICLE_STATE_1", &fakeWriter{})
	assert.ErrorContains(t, err, SignalTorqueCmd)

	busErr := errors.New("bus off")
	pub, err := NewCommandPublisher(m, DefaultCommandFrame, &fakeWriter{err: busErr})
	require.NoError(t, err)
	_, err = pub.Publish(context.Background(), fallbackResult())
	assert.ErrorIs(t, err, busErr)
}
