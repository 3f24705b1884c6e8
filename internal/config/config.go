// Package config loads the orchestrator's settings from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// PathEnv names the environment variable holding the YAML config path.
const PathEnv = "ORCHESTRATOR_CONFIG"

// Config holds application configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port string `yaml:"port"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// JWTSecret enables bearer authentication on /api when set.
	JWTSecret string `yaml:"jwt_secret"`

	Handler HandlerConfig `yaml:"handler"`

	History HistoryConfig `yaml:"history"`

	// TokenEncoding is the tiktoken encoding used for token counts.
	TokenEncoding string `yaml:"token_encoding"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// HandlerConfig configures calls to the handler runtime.
type HandlerConfig struct {
	RuntimeURL string        `yaml:"runtime_url"`
	Timeout    time.Duration `yaml:"timeout"`

	// RateLimit is the sustained outbound request rate per second.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`

	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the circuit breaker around the runtime.
type BreakerConfig struct {
	MaxRequests uint32        `yaml:"max_requests"`
	Interval    time.Duration `yaml:"interval"`
	Timeout     time.Duration `yaml:"timeout"`
	// ConsecutiveFailures trips the breaker once exceeded.
	ConsecutiveFailures uint32 `yaml:"consecutive_failures"`
}

// HistoryConfig bounds the in-memory execution history.
type HistoryConfig struct {
	// Limit is the number of execution records kept.
	Limit int `yaml:"limit"`
	// Window is the number of conversation turns sent with each request.
	Window int `yaml:"window"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:     "8080",
		LogLevel: "info",
		Handler: HandlerConfig{
			RuntimeURL: "http://localhost:8000",
			Timeout:    120 * time.Second,
			RateLimit:  5,
			RateBurst:  10,
			Breaker: BreakerConfig{
				MaxRequests:         3,
				Interval:            60 * time.Second,
				Timeout:             30 * time.Second,
				ConsecutiveFailures: 5,
			},
		},
		History: HistoryConfig{
			Limit:  50,
			Window: 10,
		},
		TokenEncoding:   "cl100k_base",
		ShutdownTimeout: 30 * time.Second,
	}
}

// Load builds the configuration. path may be empty, in which case no file is
// read; a named file that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("HANDLER_RUNTIME_URL"); v != "" {
		c.Handler.RuntimeURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("HANDLER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HANDLER_TIMEOUT: %w", err)
		}
		c.Handler.Timeout = d
	}
	if v := os.Getenv("HANDLER_RATE_LIMIT"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("HANDLER_RATE_LIMIT: %w", err)
		}
		c.Handler.RateLimit = r
	}
	if v := os.Getenv("HISTORY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HISTORY_LIMIT: %w", err)
		}
		c.History.Limit = n
	}
	if v := os.Getenv("HISTORY_WINDOW"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HISTORY_WINDOW: %w", err)
		}
		c.History.Window = n
	}
	return nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.Handler.RuntimeURL == "" {
		errs = append(errs, errors.New("handler runtime_url is required"))
	}
	if c.Handler.Timeout <= 0 {
		errs = append(errs, errors.New("handler timeout must be positive"))
	}
	if c.Handler.RateLimit <= 0 {
		errs = append(errs, errors.New("handler rate_limit must be positive"))
	}
	if c.Handler.RateBurst <= 0 {
		errs = append(errs, errors.New("handler rate_burst must be positive"))
	}
	if c.History.Limit <= 0 {
		errs = append(errs, errors.New("history limit must be positive"))
	}
	if c.History.Window <= 0 {
		errs = append(errs, errors.New("history window must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
