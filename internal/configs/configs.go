/*
Package configs loads the relay's configuration from the environment.

Values come from process environment variables; a .env file in the working directory, when
present, fills in variables that are not already set.
*/
package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/samber/lo"
)

const (
	// EnvDevelopment is the default running environment.
	EnvDevelopment = "development"

	// DefaultPort is used when PORT is unset.
	DefaultPort = 3001

	// DefaultDotEnvFile is read by LoadConfig when it exists.
	DefaultDotEnvFile = ".env"
)

// AppConfig holds every setting the relay needs at startup.
type AppConfig struct {
	// General server settings
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Port        int    `envconfig:"PORT" default:"3001"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// AllowedOrigins lists origins accepted for WebSocket upgrades and CORS outside development.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`

	// Upgrade limiter: WebSocket upgrades per second and burst, per client IP.
	WSRate  float64 `envconfig:"WS_RATE" default:"0.5"`
	WSBurst int     `envconfig:"WS_BURST" default:"10"`

	// API limiter: HTTP API requests per second and burst, per client IP.
	APIRate  float64 `envconfig:"API_RATE" default:"5"`
	APIBurst int     `envconfig:"API_BURST" default:"20"`

	// Event limiter: inbound frames per second and burst, per connection.
	EventRate  float64 `envconfig:"EVENT_RATE" default:"20"`
	EventBurst int     `envconfig:"EVENT_BURST" default:"40"`
}

// IsDevelopment reports whether the relay runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// LoadConfig reads DefaultDotEnvFile if present, then parses the environment.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(DefaultDotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DefaultDotEnvFile, err)
	}

	return FromEnv()
}

// FromEnv parses the configuration from environment variables, applying defaults.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("invalid environment configuration: %w", err)
	}

	if cfg.Environment == "" {
		cfg.Environment = EnvDevelopment
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	cfg.AllowedOrigins = lo.Compact(lo.Map(cfg.AllowedOrigins, func(origin string, _ int) string {
		return strings.TrimSpace(origin)
	}))

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the allowed range (%d-%d)", cfg.Port, 1024, 65535)
	}

	if cfg.WSRate <= 0 || cfg.WSBurst <= 0 || cfg.APIRate <= 0 || cfg.APIBurst <= 0 ||
		cfg.EventRate <= 0 || cfg.EventBurst <= 0 {
		return nil, fmt.Errorf("rate limits must be positive (WS_RATE=%v WS_BURST=%d API_RATE=%v API_BURST=%d EVENT_RATE=%v EVENT_BURST=%d)",
			cfg.WSRate, cfg.WSBurst, cfg.APIRate, cfg.APIBurst, cfg.EventRate, cfg.EventBurst)
	}

	return cfg, nil
}
