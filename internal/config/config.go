// Package config loads dialogic settings from YAML with environment
// overrides. API credentials live in the local store, not here; the
// environment variables only act as fallbacks for unattended use.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"dialogic/internal/provider"
)

// Config holds all dialogic configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Storage
	Storage StorageConfig `yaml:"storage"`

	// Per-provider model overrides
	Models ModelsConfig `yaml:"models"`

	// Ollama endpoint
	Ollama OllamaConfig `yaml:"ollama"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig configures the SQLite store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ModelsConfig overrides the default model per provider. Empty values
// fall back to each client's built-in default.
type ModelsConfig struct {
	OpenAI    string `yaml:"openai"`
	Anthropic string `yaml:"anthropic"`
	Gemini    string `yaml:"gemini"`
	Ollama    string `yaml:"ollama"`
}

// OllamaConfig configures the local Ollama endpoint.
type OllamaConfig struct {
	Host string `yaml:"host"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "dialogic",
		Version: "1.0.0",

		Storage: StorageConfig{
			DatabasePath: defaultDatabasePath(),
		},

		Ollama: OllamaConfig{
			Host: provider.DefaultOllamaHost,
		},

		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".dialogic", "config.yaml")
	}
	return filepath.Join(home, ".dialogic", "config.yaml")
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".dialogic", "dialogic.db")
	}
	return filepath.Join(home, ".dialogic", "dialogic.db")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("DIALOGIC_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.Ollama.Host = host
	}
	if level := os.Getenv("DIALOGIC_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// ModelFor returns the configured model override for a provider, or ""
// when the client default should be used.
func (c *Config) ModelFor(p provider.Provider) string {
	switch p {
	case provider.ProviderOpenAI:
		return c.Models.OpenAI
	case provider.ProviderAnthropic:
		return c.Models.Anthropic
	case provider.ProviderGemini:
		return c.Models.Gemini
	case provider.ProviderOllama:
		return c.Models.Ollama
	default:
		return ""
	}
}

// EnvCredential returns the conventional environment credential for a
// provider. Used as a fallback when the store holds no key, so CI and
// scripted runs work without an interactive connect.
func EnvCredential(p provider.Provider) string {
	switch p {
	case provider.ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case provider.ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case provider.ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	case provider.ProviderOllama:
		return os.Getenv("OLLAMA_HOST")
	default:
		return ""
	}
}
