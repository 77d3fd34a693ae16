// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the runner configuration.
type Config struct {
	LLM     LLMConfig     `toml:"llm"`
	Stream  StreamConfig  `toml:"stream"`
	Storage StorageConfig `toml:"storage"`
	Events  EventsConfig  `toml:"events"`
	Log     LogConfig     `toml:"log"`
}

// LLMConfig contains model provider settings.
type LLMConfig struct {
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
}

// StreamConfig paces the offline fallback script.
type StreamConfig struct {
	FallbackDelayMs  int `toml:"fallback_delay_ms"`
	FallbackJitterMs int `toml:"fallback_jitter_ms"`
}

// StorageConfig contains session persistence settings.
type StorageConfig struct {
	Path string `toml:"path"` // Directory for session JSONL files
}

// EventsConfig contains event bus settings.
type EventsConfig struct {
	Enabled       bool   `toml:"enabled"`
	URL           string `toml:"url"`
	SubjectPrefix string `toml:"subject_prefix"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Debug bool `toml:"debug"`
}

// New creates a new config with defaults.
func New() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:     "gemini-3-flash-preview",
			APIKeyEnv: "GEMINI_API_KEY",
		},
		Stream: StreamConfig{
			FallbackDelayMs:  800,
			FallbackJitterMs: 500,
		},
		Storage: StorageConfig{
			Path: "~/.local/sentinel/sessions",
		},
		Events: EventsConfig{
			SubjectPrefix: "sentinel",
		},
	}
}

// Default returns a default configuration.
func Default() *Config {
	return New()
}

// LoadFile loads configuration from a TOML file.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadDefault loads configuration from sentinel.toml in the current
// directory, falling back to defaults when the file is absent.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	path := filepath.Join(cwd, "sentinel.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}
	return LoadFile(path)
}

// GetAPIKey returns the API key from the configured environment variable.
func (c *Config) GetAPIKey() string {
	if c.LLM.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.LLM.APIKeyEnv)
}

// FallbackDelay returns the base pause between fallback script chunks.
func (c *Config) FallbackDelay() time.Duration {
	return time.Duration(c.Stream.FallbackDelayMs) * time.Millisecond
}

// FallbackJitter returns the random extra pause added per chunk.
func (c *Config) FallbackJitter() time.Duration {
	return time.Duration(c.Stream.FallbackJitterMs) * time.Millisecond
}

// SessionDir expands the storage path, resolving a leading "~".
func (c *Config) SessionDir() string {
	path := c.Storage.Path
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return path
}
