package config

import (
	"path/filepath"
	"testing"

	"dialogic/internal/provider"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "dialogic" {
		t.Errorf("expected Name=dialogic, got %s", cfg.Name)
	}
	if cfg.Ollama.Host != provider.DefaultOllamaHost {
		t.Errorf("expected default ollama host, got %s", cfg.Ollama.Host)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("expected a default database path")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected Level=warn, got %s", cfg.Logging.Level)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	// Ensure no env vars interfere
	t.Setenv("DIALOGIC_DB", "")
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("DIALOGIC_LOG_LEVEL", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Models.OpenAI = "gpt-4o-mini"
	cfg.Storage.DatabasePath = "/tmp/dialogic-test.db"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Models.OpenAI != "gpt-4o-mini" {
		t.Errorf("expected openai model override, got %s", loaded.Models.OpenAI)
	}
	if loaded.Storage.DatabasePath != "/tmp/dialogic-test.db" {
		t.Errorf("expected database path round-trip, got %s", loaded.Storage.DatabasePath)
	}
}

func TestConfig_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("DIALOGIC_DB", "")
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("DIALOGIC_LOG_LEVEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "dialogic" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DIALOGIC_DB", "/custom/path.db")
	t.Setenv("OLLAMA_HOST", "http://ollama.lan:11434")
	t.Setenv("DIALOGIC_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.DatabasePath != "/custom/path.db" {
		t.Errorf("expected DIALOGIC_DB override, got %s", cfg.Storage.DatabasePath)
	}
	if cfg.Ollama.Host != "http://ollama.lan:11434" {
		t.Errorf("expected OLLAMA_HOST override, got %s", cfg.Ollama.Host)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected DIALOGIC_LOG_LEVEL override, got %s", cfg.Logging.Level)
	}
}

func TestModelFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Models.Anthropic = "claude-3-opus-latest"

	if got := cfg.ModelFor(provider.ProviderAnthropic); got != "claude-3-opus-latest" {
		t.Errorf("expected anthropic override, got %s", got)
	}
	if got := cfg.ModelFor(provider.ProviderGemini); got != "" {
		t.Errorf("expected empty override for gemini, got %s", got)
	}
}

func TestEnvCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OLLAMA_HOST", "http://box:11434")

	if got := EnvCredential(provider.ProviderOpenAI); got != "sk-env" {
		t.Errorf("expected env key, got %s", got)
	}
	if got := EnvCredential(provider.ProviderOllama); got != "http://box:11434" {
		t.Errorf("expected env host, got %s", got)
	}
	t.Setenv("GEMINI_API_KEY", "")
	if got := EnvCredential(provider.ProviderGemini); got != "" {
		t.Errorf("expected empty credential, got %s", got)
	}
}
