package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tylermilner/op-replay-clipper/internal/logger"
	"github.com/tylermilner/op-replay-clipper/internal/manifest"
	"github.com/tylermilner/op-replay-clipper/internal/route"
)

// Config defines configuration for the routefetch CLI.
type Config struct {
	APIURL     string        `yaml:"api_url"`
	ConnectURL string        `yaml:"connect_url"`
	Workers    int           `yaml:"workers"`
	FileTypes  []string      `yaml:"file_types"`
	Overwrite  bool          `yaml:"overwrite"`
	Progress   bool          `yaml:"progress"`
	Mirror     string        `yaml:"mirror"`
	Bzip2      string        `yaml:"bzip2"`
	LogLevel   string        `yaml:"log_level"`
	Timeout    time.Duration `yaml:"timeout"`
	Retry      RetryConfig   `yaml:"retry"`
}

// RetryConfig defines retry behavior.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		APIURL:     manifest.DefaultAPIURL,
		ConnectURL: manifest.DefaultConnectURL,
		Workers:    20,
		FileTypes:  append([]string(nil), route.DefaultFileTypes...),
		Bzip2:      "bzip2",
		LogLevel:   "info",
		Retry: RetryConfig{
			Attempts:   5,
			Backoff:    time.Second,
			MaxBackoff: 30 * time.Second,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	APIURL     string          `yaml:"api_url"`
	ConnectURL string          `yaml:"connect_url"`
	Workers    int             `yaml:"workers"`
	FileTypes  []string        `yaml:"file_types"`
	Overwrite  bool            `yaml:"overwrite"`
	Progress   bool            `yaml:"progress"`
	Mirror     string          `yaml:"mirror"`
	Bzip2      string          `yaml:"bzip2"`
	LogLevel   string          `yaml:"log_level"`
	Timeout    string          `yaml:"timeout"`
	Retry      yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

// LoadFromFile loads configuration from a YAML file on top of Default().
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.APIURL != "" {
		cfg.APIURL = yc.APIURL
	}
	if yc.ConnectURL != "" {
		cfg.ConnectURL = yc.ConnectURL
	}
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	if len(yc.FileTypes) > 0 {
		cfg.FileTypes = yc.FileTypes
	}
	cfg.Overwrite = yc.Overwrite
	cfg.Progress = yc.Progress
	if yc.Mirror != "" {
		cfg.Mirror = yc.Mirror
	}
	if yc.Bzip2 != "" {
		cfg.Bzip2 = yc.Bzip2
	}
	if yc.LogLevel != "" {
		cfg.LogLevel = yc.LogLevel
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_backoff: %w", err)
		}
		cfg.Retry.MaxBackoff = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the ROUTEFETCH_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("ROUTEFETCH_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("ROUTEFETCH_CONNECT_URL"); v != "" {
		c.ConnectURL = v
	}
	if v := os.Getenv("ROUTEFETCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse ROUTEFETCH_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("ROUTEFETCH_FILE_TYPES"); v != "" {
		c.FileTypes = splitList(v)
	}
	if v := os.Getenv("ROUTEFETCH_OVERWRITE"); v != "" {
		c.Overwrite = v == "true" || v == "1"
	}
	if v := os.Getenv("ROUTEFETCH_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("ROUTEFETCH_MIRROR"); v != "" {
		c.Mirror = v
	}
	if v := os.Getenv("ROUTEFETCH_BZIP2"); v != "" {
		c.Bzip2 = v
	}
	if v := os.Getenv("ROUTEFETCH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("ROUTEFETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse ROUTEFETCH_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("ROUTEFETCH_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse ROUTEFETCH_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("ROUTEFETCH_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse ROUTEFETCH_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("ROUTEFETCH_RETRY_MAX_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse ROUTEFETCH_RETRY_MAX_BACKOFF: %w", err)
		}
		c.Retry.MaxBackoff = d
	}

	return nil
}

// Validate validates the configuration. File types are checked before any
// request is made.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("config: api_url is required")
	}
	if c.ConnectURL == "" {
		return errors.New("config: connect_url is required")
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.Retry.Attempts < 0 {
		return errors.New("config: retry.attempts must not be negative")
	}
	if c.Timeout < 0 {
		return errors.New("config: timeout must not be negative")
	}
	if _, err := route.ParseFileTypes(c.FileTypes); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.APIURL != "" {
		c.APIURL = override.APIURL
	}
	if override.ConnectURL != "" {
		c.ConnectURL = override.ConnectURL
	}
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if len(override.FileTypes) > 0 {
		c.FileTypes = override.FileTypes
	}
	if override.Overwrite {
		c.Overwrite = override.Overwrite
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.Mirror != "" {
		c.Mirror = override.Mirror
	}
	if override.Bzip2 != "" {
		c.Bzip2 = override.Bzip2
	}
	if override.LogLevel != "" {
		c.LogLevel = override.LogLevel
	}
	if override.Timeout != 0 {
		c.Timeout = override.Timeout
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Backoff != 0 {
		c.Retry.Backoff = override.Retry.Backoff
	}
	if override.Retry.MaxBackoff != 0 {
		c.Retry.MaxBackoff = override.Retry.MaxBackoff
	}
	return c
}

// splitList splits a comma or space separated list.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
}
