package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"throttle-fusion-core/fusion"
)

// ErrValidation is wrapped by every validation failure.
var ErrValidation = errors.New("configuration validation failed")

// Config is the complete runtime configuration of the throttle loop.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Fusion    fusion.Config   `yaml:"fusion"`
	CAN       CANConfig       `yaml:"can"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Indicator IndicatorConfig `yaml:"indicator"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Stdout     bool   `yaml:"stdout"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// CANConfig holds the actuation frame settings. An empty Interface
// disables transmission.
type CANConfig struct {
	Interface string `yaml:"interface"`
	MapPath   string `yaml:"map"`
	Frame     string `yaml:"frame"`
}

// MetricsConfig holds the Prometheus endpoint. An empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// IndicatorConfig selects the fault indicator. An empty GPIOPin uses the
// in-memory indicator.
type IndicatorConfig struct {
	GPIOPin string `yaml:"gpio_pin"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			File:       "throttle_loop.log",
			Stdout:     true,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Fusion: fusion.DefaultConfig(),
		CAN: CANConfig{
			MapPath: "config/can/can_map.csv",
			Frame:   "THROTTLE_CMD_1",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path and environment overrides, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("THROTTLE_LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := os.LookupEnv("THROTTLE_CAN_IFACE"); ok {
		cfg.CAN.Interface = v
	}
	if v, ok := os.LookupEnv("THROTTLE_METRICS_ADDR"); ok {
		cfg.Metrics.Listen = v
	}
	if v, ok := os.LookupEnv("THROTTLE_FAULT_PIN"); ok {
		cfg.Indicator.GPIOPin = v
	}
}

// Validate checks cross-field constraints.
func Validate(cfg *Config) error {
	switch cfg.Log.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "critical":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrValidation, cfg.Log.Level)
	}
	if cfg.Log.MaxSizeMB < 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
		return fmt.Errorf("%w: log rotation limits must not be negative", ErrValidation)
	}
	if err := cfg.Fusion.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if cfg.CAN.Interface != "" {
		if cfg.CAN.MapPath == "" {
			return fmt.Errorf("%w: can.map is required when can.interface is set", ErrValidation)
		}
		if cfg.CAN.Frame == "" {
			return fmt.Errorf("%w: can.frame is required when can.interface is set", ErrValidation)
		}
	}
	return nil
}
