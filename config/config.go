// Package config loads runtime configuration from environment variables.
package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the leave engine.
type Config struct {
	Addr         string        `envconfig:"ADDR" default:":8080"`
	DBPath       string        `envconfig:"DB_PATH" default:"leave.db"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout  time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`

	// Working-hour spans per leave type. DayOffHours is carried for
	// completeness with the deployment config; the core never reads it.
	DayOffHours     int `envconfig:"DAY_OFF_HOURS" default:"8"`
	HalfDayHours    int `envconfig:"HALF_DAY_HOURS" default:"4"`
	QuarterDayHours int `envconfig:"QUARTER_DAY_HOURS" default:"2"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"40"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("LEAVE", &cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	return &cfg, nil
}
