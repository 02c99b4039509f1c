package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTorqueModel_Compute(t *testing.T) {
	t.Parallel()

	m := NewTorqueModel(DefaultConfig())
	tests := []struct {
		name         string
		angle, speed float64
		want         TorqueCommand
	}{
		{"idle", 0, 0, 2},
		{"full pedal standstill", 30, 0, 42},          // 2.4437 + 39.747 = 42.19
		{"reference", 10.0390625, 10, 12},             // 12.2944...
		{"negative truncates toward zero", 0, 20, -4}, // -4.4563, floor would be -5
		{"large negative", 0, 100, -32},               // -32.0563
		{"just below one", 0, 4.2, 0},                 // 0.9947
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Compute(tt.angle, tt.speed))
		})
	}
}

func TestTorqueModel_Raw(t *testing.T) {
	t.Parallel()

	m := NewTorqueModel(DefaultConfig())
	assert.InDelta(t, 2.4437, m.Raw(0, 0), 1e-12)
	assert.InDelta(t, 2.4437+1.3249*10-0.345*10, m.Raw(10, 10), 1e-9)
}

func TestTorqueModel_NotClamped(t *testing.T) {
	t.Parallel()

	m := NewTorqueModel(DefaultConfig())
	assert.Equal(t, TorqueCommand(-342), m.Compute(0, 1000)) // -342.5563
	assert.Equal(t, TorqueCommand(134), m.Compute(100, 0))   // 134.9337
}
