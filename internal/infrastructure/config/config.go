package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Sensor    SensorConfig
	Display   DisplayConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// SensorConfig holds directory sensor configuration.
type SensorConfig struct {
	Dir     string `envconfig:"SENSOR_DIR" default:"/tmp/markertrack/events"`
	Pattern string `envconfig:"SENSOR_PATTERN" default:"*"`
	Consume bool   `envconfig:"SENSOR_CONSUME" default:"true"`
}

// DisplayConfig holds display fan-out configuration.
type DisplayConfig struct {
	ClientBuffer int `envconfig:"DISPLAY_BUFFER" default:"16"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string   `envconfig:"LOG_LEVEL" default:"info"`
	Development bool     `envconfig:"LOG_DEV" default:"false"`
	Outputs     []string `envconfig:"LOG_OUTPUT" default:"stdout"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`

	// Global adds one bucket shared by all clients in front of the per-IP ones
	Global      bool `envconfig:"RATE_LIMIT_GLOBAL" default:"false"`
	GlobalRPS   int  `envconfig:"RATE_LIMIT_GLOBAL_RPS" default:"1000"`
	GlobalBurst int  `envconfig:"RATE_LIMIT_GLOBAL_BURST" default:"2000"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Display.ClientBuffer <= 0 {
		return nil, fmt.Errorf("failed to load config: DISPLAY_BUFFER must be positive, got %d", cfg.Display.ClientBuffer)
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
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Sensor: SensorConfig{
			Dir:     "/tmp/markertrack/events",
			Pattern: "*",
			Consume: true,
		},
		Display: DisplayConfig{
			ClientBuffer: 16,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
			Outputs:     []string{"stdout"},
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
			GlobalRPS:         1000,
			GlobalBurst:       2000,
		},
	}
}
