package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Engine  EngineConfig
	Ops     OpsConfig
	Logging LogConfig
	Demo    DemoConfig
}

// EngineConfig holds pipeline engine configuration.
type EngineConfig struct {
	QueueCapacity int  `envconfig:"QUEUE_CAPACITY" default:"64"`
	Replicas      int  `envconfig:"REPLICAS" default:"2"`
	SingleThread  bool `envconfig:"SINGLE_THREAD" default:"false"`
}

// OpsConfig holds the ops HTTP server configuration.
type OpsConfig struct {
	Port    string `envconfig:"OPS_PORT" default:"9090"`
	Host    string `envconfig:"OPS_HOST" default:"0.0.0.0"`
	Enabled bool   `envconfig:"OPS_ENABLED" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// DemoConfig holds the demo workload configuration.
type DemoConfig struct {
	Frames      int     `envconfig:"DEMO_FRAMES" default:"200"`
	FrameBytes  int     `envconfig:"DEMO_FRAME_BYTES" default:"4096"`
	RatePerSec  float64 `envconfig:"DEMO_RATE" default:"30"`
	RateBurst   int     `envconfig:"DEMO_RATE_BURST" default:"1"`
	RateLimited bool    `envconfig:"DEMO_RATE_LIMITED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			QueueCapacity: 64,
			Replicas:      2,
		},
		Ops: OpsConfig{
			Port:    "9090",
			Host:    "0.0.0.0",
			Enabled: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Demo: DemoConfig{
			Frames:      200,
			FrameBytes:  4096,
			RatePerSec:  30,
			RateBurst:   1,
			RateLimited: true,
		},
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Engine.QueueCapacity < 1 {
		return fmt.Errorf("config: queue capacity must be at least 1, got %d", c.Engine.QueueCapacity)
	}
	if c.Engine.Replicas < 1 {
		return fmt.Errorf("config: replicas must be at least 1, got %d", c.Engine.Replicas)
	}
	if c.Demo.FrameBytes < 1 {
		return fmt.Errorf("config: frame bytes must be at least 1, got %d", c.Demo.FrameBytes)
	}
	return nil
}
