package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"throttle-fusion-core/fusion"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, fusion.DefaultConfig(), cfg.Fusion)
	assert.Equal(t, "THROTTLE_CMD_1", cfg.CAN.Frame)
	assert.Empty(t, cfg.CAN.Interface)
	require.NoError(t, Validate(cfg))
}

func TestLoad_ShippedDefaultFile(t *testing.T) {
	cfg, err := Load("default.yaml")
	require.NoError(t, err)
	assert.Equal(t, fusion.DefaultConfig(), cfg.Fusion)
	assert.Equal(t, "throttle_loop.log", cfg.Log.File)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
fusion:
  tolerance_deviation: 0.1
  channel1:
    gain: 12.5
    bias: -12.5
metrics:
  listen: ":9102"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0.1, cfg.Fusion.ToleranceDeviation)
	assert.Equal(t, 30.0, cfg.Fusion.MaxPedalAngle, "unset keys keep defaults")
	assert.Equal(t, ":9102", cfg.Metrics.Listen)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("THROTTLE_LOG_LEVEL", "error")
	t.Setenv("THROTTLE_CAN_IFACE", "vcan0")
	t.Setenv("THROTTLE_METRICS_ADDR", "127.0.0.1:9100")
	t.Setenv("THROTTLE_FAULT_PIN", "GPIO17")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "vcan0", cfg.CAN.Interface)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Listen)
	assert.Equal(t, "GPIO17", cfg.Indicator.GPIOPin)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "log: [unclosed"))
	assert.ErrorContains(t, err, "parse yaml")

	_, err = Load(writeFile(t, "log:\n  level: loud\n"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = Load(writeFile(t, "fusion:\n  max_pedal_angle: -1\n"))
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, fusion.ErrInvalidConfig)

	_, err = Load(writeFile(t, "fusion:\n  tolerance_deviation: .nan\n"))
	assert.ErrorIs(t, err, fusion.ErrInvalidConfig)
	assert.ErrorContains(t, err, "tolerance_deviation")

	_, err = Load(writeFile(t, "fusion:\n  min_pedal_angle: -5\n"))
	assert.ErrorIs(t, err, fusion.ErrInvalidConfig)
	assert.ErrorContains(t, err, "min_pedal_angle")

	_, err = Load(writeFile(t, "fusion:\n  torque:\n    intercept: .inf\n"))
	assert.ErrorIs(t, err, fusion.ErrInvalidConfig)

	_, err = Load(writeFile(t, "can:\n  interface: vcan0\n  frame: \"\"\n"))
	assert.ErrorIs(t, err, ErrValidation)
}
