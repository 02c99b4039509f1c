package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	sets []bool
}

func (s *recordingSink) Set(active bool) { s.sets = append(s.sets, active) }

func est(ch ChannelID, angle float64) AngleEstimate {
	return AngleEstimate{Channel: ch, Angle: angle, Available: true}
}

func TestArbiter_Resolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		e0, e1     AngleEstimate
		wantKind   DecisionKind
		wantSource ChannelID
		wantAngle  float64
		wantFaults Fault
	}{
		{
			name: "agree", e0: est(Channel0, 10), e1: est(Channel1, 10.4),
			wantKind: DecisionTrusted, wantSource: Channel0, wantAngle: 10,
		},
		{
			name: "agree at lower tolerance edge", e0: est(Channel0, 20), e1: est(Channel1, 19),
			wantKind: DecisionTrusted, wantSource: Channel0, wantAngle: 20,
		},
		{
			name: "agree at upper tolerance edge", e0: est(Channel0, 20), e1: est(Channel1, 21),
			wantKind: DecisionTrusted, wantSource: Channel0, wantAngle: 20,
		},
		{
			name: "both zero agree", e0: est(Channel0, 0), e1: est(Channel1, 0),
			wantKind: DecisionTrusted, wantSource: Channel0, wantAngle: 0,
		},
		{
			name: "channel1 too high still trusts channel0", e0: est(Channel0, 10), e1: est(Channel1, 12),
			wantKind: DecisionTrusted, wantSource: Channel0, wantAngle: 10, wantFaults: FaultDisagreement,
		},
		{
			name: "channel1 too low still trusts channel0", e0: est(Channel0, 10), e1: est(Channel1, 9),
			wantKind: DecisionTrusted, wantSource: Channel0, wantAngle: 10, wantFaults: FaultDisagreement,
		},
		{
			name: "channel0 zero channel1 positive disagree", e0: est(Channel0, 0), e1: est(Channel1, 0.5),
			wantKind: DecisionTrusted, wantSource: Channel0, wantAngle: 0, wantFaults: FaultDisagreement,
		},
		{
			name: "channel0 above range", e0: est(Channel0, 30.5), e1: est(Channel1, 12),
			wantKind: DecisionFallback, wantSource: Channel1, wantAngle: 12, wantFaults: FaultChannel0Range,
		},
		{
			name: "channel0 below range", e0: est(Channel0, -0.1), e1: est(Channel1, 30),
			wantKind: DecisionFallback, wantSource: Channel1, wantAngle: 30, wantFaults: FaultChannel0Range,
		},
		{
			name: "channel1 out of range", e0: est(Channel0, 7), e1: est(Channel1, 31),
			wantKind: DecisionFallback, wantSource: Channel0, wantAngle: 7, wantFaults: FaultChannel1Range,
		},
		{
			name: "channel1 unavailable", e0: est(Channel0, 7), e1: Unavailable(Channel1),
			wantKind: DecisionFallback, wantSource: Channel0, wantAngle: 7, wantFaults: FaultChannel1Read,
		},
		{
			name: "channel0 unavailable", e0: Unavailable(Channel0), e1: est(Channel1, 15),
			wantKind: DecisionFallback, wantSource: Channel1, wantAngle: 15, wantFaults: FaultChannel0Read,
		},
		{
			name: "both out of range", e0: est(Channel0, -5), e1: est(Channel1, 45),
			wantKind: DecisionSafeDefault, wantAngle: 0, wantFaults: FaultChannel0Range | FaultChannel1Range,
		},
		{
			name: "both unavailable", e0: Unavailable(Channel0), e1: Unavailable(Channel1),
			wantKind: DecisionSafeDefault, wantAngle: 0, wantFaults: FaultChannel0Read | FaultChannel1Read,
		},
		{
			name: "range bounds are inclusive", e0: est(Channel0, 30), e1: est(Channel1, 30),
			wantKind: DecisionTrusted, wantSource: Channel0, wantAngle: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			d := NewArbiter(DefaultConfig(), sink, nil).Resolve(tt.e0, tt.e1)

			assert.Equal(t, tt.wantKind, d.Kind)
			if tt.wantKind != DecisionSafeDefault {
				assert.Equal(t, tt.wantSource, d.Source)
			}
			assert.Equal(t, tt.wantAngle, d.Angle)
			assert.Equal(t, tt.wantFaults, d.Faults)
			assert.Equal(t, tt.wantFaults != 0, d.FaultRaised())

			if tt.wantFaults != 0 {
				assert.Equal(t, []bool{true}, sink.sets)
			} else {
				assert.Empty(t, sink.sets)
			}
		})
	}
}

func TestArbiter_TrustedAngleStaysInRange(t *testing.T) {
	t.Parallel()

	arb := NewArbiter(DefaultConfig(), nil, nil)
	angles := []float64{-50, -1, -0.001, 0, 0.5, 5, 14.9, 15, 29.999, 30, 30.001, 31, 100}
	for _, a0 := range angles {
		for _, a1 := range angles {
			d := arb.Resolve(est(Channel0, a0), est(Channel1, a1))
			if d.Kind == DecisionSafeDefault {
				assert.Equal(t, 0.0, d.Angle)
				continue
			}
			assert.GreaterOrEqual(t, d.Angle, 0.0, "a0=%v a1=%v", a0, a1)
			assert.LessOrEqual(t, d.Angle, 30.0, "a0=%v a1=%v", a0, a1)
		}
	}
}

func TestArbiter_NoStateAcrossCalls(t *testing.T) {
	t.Parallel()

	arb := NewArbiter(DefaultConfig(), nil, nil)
	first := arb.Resolve(est(Channel0, -3), est(Channel1, -3))
	assert.Equal(t, DecisionSafeDefault, first.Kind)

	second := arb.Resolve(est(Channel0, 10), est(Channel1, 10))
	assert.Equal(t, DecisionTrusted, second.Kind)
	assert.False(t, second.FaultRaised())
}

func TestFault_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", Fault(0).String())
	assert.Equal(t, "channel0_range|disagreement", (FaultChannel0Range | FaultDisagreement).String())
	assert.True(t, (FaultInit | FaultChannel1Read).Has(FaultChannel1Read))
	assert.False(t, FaultInit.Has(0))
	assert.Equal(t, []string{"channel1_read"}, FaultChannel1Read.Kinds())
}
