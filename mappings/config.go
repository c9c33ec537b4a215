package mappings

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/mcmappings/mappings/internal/fetch"
	"github.com/hazyhaar/mcmappings/scheme"
)

// Config holds all mcmappings configuration.
type Config struct {
	Version     string        `yaml:"version" validate:"required"`
	Scheme      scheme.Scheme `yaml:"scheme"`
	BaseURL     string        `yaml:"base_url" validate:"required,url"`
	Concurrency int           `yaml:"concurrency" validate:"min=1,max=64"`
	HTTP        HTTPConfig    `yaml:"http"`
	HistoryPath string        `yaml:"history_path"`
	Listen      string        `yaml:"listen" validate:"omitempty,hostname_port"`
	LogLevel    string        `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// HTTPConfig controls the default page transport.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxBytes  int64         `yaml:"max_bytes" validate:"gt=0"`
	UserAgent string        `yaml:"user_agent"`
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = 30 * time.Second
	}
	if c.HTTP.MaxBytes <= 0 {
		c.HTTP.MaxBytes = 10 * 1024 * 1024
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = "mcmappings/1.0"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate applies defaults and checks c.
func (c *Config) Validate() error {
	c.defaults()
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !c.Scheme.Valid() {
		return fmt.Errorf("config: %w: %d", scheme.ErrUnknown, int(c.Scheme))
	}
	return nil
}

// Options returns the Extractor options described by c.
func (c *Config) Options(logger *slog.Logger) []Option {
	return []Option{
		WithBaseURL(c.BaseURL),
		WithHTTPConfig(fetch.Config{
			Timeout:   c.HTTP.Timeout,
			MaxBytes:  c.HTTP.MaxBytes,
			UserAgent: c.HTTP.UserAgent,
		}),
		WithLogger(logger),
	}
}

// Level maps LogLevel to a slog level. Unknown values mean info.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoadConfigFile reads a YAML config file. Defaults are applied and the
// result validated.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
