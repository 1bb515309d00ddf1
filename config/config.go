// Package config loads YAML configuration for go-react-agent applications.
// A user-level file (~/.reactagent/config.yaml) is layered under a
// project-level file (./.reactagent/config.yaml), with the latter taking
// precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configDir = ".reactagent"

// StoreConfig selects the branch store backend.
type StoreConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `yaml:"driver"`
	// DSN is the database path / connection string for sql drivers.
	DSN string `yaml:"dsn"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// Config is the application configuration.
type Config struct {
	// Provider selects the model invoker: "openai", "anthropic" or "mock".
	Provider string `yaml:"provider"`
	// Model is the provider-specific model name.
	Model string `yaml:"model"`
	// Temperature for generation.
	Temperature float64 `yaml:"temperature"`
	// MaxTokens bounds completion length.
	MaxTokens int64 `yaml:"max_tokens"`
	// SystemPrompt, when set, is prepended to every run.
	SystemPrompt string `yaml:"system_prompt"`
	// MaxIterations bounds model invocations per run.
	MaxIterations int `yaml:"max_iterations"`
	// HistoryWindowSize bounds context assembly from the store.
	HistoryWindowSize int         `yaml:"history_window_size"`
	Store             StoreConfig `yaml:"store"`
	Log               LogConfig   `yaml:"log"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Provider:          "openai",
		Temperature:       0.7,
		MaxTokens:         4096,
		MaxIterations:     25,
		HistoryWindowSize: 100,
		Store:             StoreConfig{Driver: "memory"},
		Log:               LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads configuration from the user's home directory and the current
// working directory, with the latter taking precedence over the former and
// both over the defaults.
func Load() (*Config, error) {
	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, configDir, "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			if err := loadFromFile(userPath, cfg); err != nil {
				return nil, fmt.Errorf("load user config: %w", err)
			}
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	projectPath := filepath.Join(wd, configDir, "config.yaml")
	if _, err := os.Stat(projectPath); err == nil {
		if err := loadFromFile(projectPath, cfg); err != nil {
			return nil, fmt.Errorf("load project config: %w", err)
		}
	}

	return cfg, nil
}

// LoadFile reads configuration from a single explicit path over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
