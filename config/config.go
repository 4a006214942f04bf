// Package config loads the frame configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	RootPath   string `env:"DPF_ROOT_PATH"`
	CacheDir   string `env:"DPF_CACHE_DIR"`
	ListenAddr string `env:"DPF_LISTEN_ADDR" default:"0.0.0.0:8080"`
	ServerURL  string `env:"DPF_SERVER_URL" default:"http://localhost:8080"`

	LogLevel  string `env:"DPF_LOG_LEVEL" default:"info"`
	LogFormat string `env:"DPF_LOG_FORMAT" default:"text"`

	DisplayCmd     string        `env:"DPF_DISPLAY_CMD" default:"/usr/local/bin/inky-show"`
	DisplayTimeout time.Duration `env:"DPF_DISPLAY_TIMEOUT" default:"2m"`
	DisplayOutput  string        `env:"DPF_DISPLAY_OUTPUT" default:"HDMI-A-1"`

	CacheLimit int `env:"DPF_CACHE_LIMIT" default:"1000"`

	AWSProfile     string        `env:"DPF_AWS_PROFILE"`
	S3Bucket       string        `env:"DPF_S3_BUCKET"`
	RemoteInterval time.Duration `env:"DPF_REMOTE_INTERVAL" default:"1h"`

	ButtonsEnabled  bool `env:"DPF_BUTTONS_ENABLED" default:"false"`
	DispatchWorkers int  `env:"DPF_DISPATCH_WORKERS" default:"2"`
	DispatchQueue   int  `env:"DPF_DISPATCH_QUEUE" default:"16"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if cfg.CacheDir == "" && cfg.RootPath != "" {
		cfg.CacheDir = filepath.Join(cfg.RootPath, "cache")
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ClientConfig is what the cli subcommands need to reach a running frame.
type ClientConfig struct {
	ServerURL string `env:"DPF_SERVER_URL" default:"http://localhost:8080"`
}

// LoadClient reads the client configuration without requiring a root path.
func LoadClient() (*ClientConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	var cfg ClientConfig
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	return &cfg, nil
}

// DatabasePath is where the settings database lives.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.RootPath, "frame.db")
}

// InfoScreenPath is the scratch file the info screen is painted into.
func (c *Config) InfoScreenPath() string {
	return filepath.Join(c.RootPath, "info.png")
}

// RemoteEnabled reports whether a bucket is configured for photo sync.
func (c *Config) RemoteEnabled() bool {
	return c.S3Bucket != ""
}

func validate(cfg *Config) error {
	if cfg.RootPath == "" {
		return errors.New("DPF_ROOT_PATH is required")
	}
	if cfg.CacheLimit <= 0 {
		return fmt.Errorf("DPF_CACHE_LIMIT must be positive, got %d", cfg.CacheLimit)
	}
	if cfg.DisplayTimeout <= 0 {
		return fmt.Errorf("DPF_DISPLAY_TIMEOUT must be positive, got %s", cfg.DisplayTimeout)
	}
	if cfg.RemoteInterval <= 0 {
		return fmt.Errorf("DPF_REMOTE_INTERVAL must be positive, got %s", cfg.RemoteInterval)
	}
	if cfg.DispatchWorkers <= 0 {
		return fmt.Errorf("DPF_DISPATCH_WORKERS must be positive, got %d", cfg.DispatchWorkers)
	}
	if cfg.DispatchQueue < 0 {
		return fmt.Errorf("DPF_DISPATCH_QUEUE must not be negative, got %d", cfg.DispatchQueue)
	}
	return nil
}
