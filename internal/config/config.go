// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all externally configurable settings. The confidence threshold
// and prediction cooldown are tunables; everything else about the inference
// trigger (feature size, window length, drain counts) is a fixed design
// constant and deliberately not configurable.
type Config struct {
	// Port is the TCP port the server listens on.
	Port string `env:"WEBSOCKET_PORT" envDefault:"5001"`

	// ConfidenceThreshold is the minimum confidence for an emitted prediction.
	ConfidenceThreshold float64 `env:"CONFIDENCE_THRESHOLD" envDefault:"0.7"`

	// PredictionCooldown is the minimum time between emitted predictions per session.
	PredictionCooldown time.Duration `env:"PREDICTION_COOLDOWN" envDefault:"2s"`

	// ModelDir is the directory holding the trained model artifact:
	// gestures_map.json, normalization_stats.json, and the model weights.
	ModelDir string `env:"MODEL_DIR" envDefault:"model"`

	// LogFile is the path for the rotating JSON log file.
	LogFile string `env:"LOG_FILE_PATH" envDefault:"mudra.log"`

	// Environment selects development or production logging output.
	Environment string `env:"GO_ENV" envDefault:"development"`
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	// A missing .env file is fine; the environment alone is enough.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("CONFIDENCE_THRESHOLD %f out of range [0,1]", cfg.ConfidenceThreshold)
	}

	return cfg, nil
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Production reports whether the service runs in production mode.
func (c *Config) Production() bool {
	return c.Environment == "production"
}
