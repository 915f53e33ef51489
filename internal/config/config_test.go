package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.LLMProviders) == 0 {
		t.Error("expected default LLM providers")
	}
	if cfg.LLMProviders["openai"].APIKey != "${OPENAI_API_KEY}" {
		t.Error("expected openai API key placeholder")
	}
	if cfg.Defaults.LLMProvider != "openai" {
		t.Errorf("expected default provider openai, got %s", cfg.Defaults.LLMProvider)
	}
	if cfg.Postgres.Port != "5433" {
		t.Errorf("expected postgres port 5433, got %s", cfg.Postgres.Port)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		os.Setenv("TEST_API_KEY", "secret123")
		defer os.Unsetenv("TEST_API_KEY")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestToProviderRegistryConfig(t *testing.T) {
	os.Setenv("TEST_EXTRACT_KEY", "resolved-key")
	defer os.Unsetenv("TEST_EXTRACT_KEY")

	cfg := &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openai": {
				Type:    "openai",
				Model:   "gpt-4o-mini",
				APIKey:  "${TEST_EXTRACT_KEY}",
				Enabled: true,
			},
		},
	}

	regCfg := cfg.ToProviderRegistryConfig()
	p, ok := regCfg.LLMProviders["openai"]
	if !ok {
		t.Fatal("expected openai provider in registry config")
	}
	if p.APIKey != "resolved-key" {
		t.Errorf("expected resolved API key, got %s", p.APIKey)
	}
	if p.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %s", p.Model)
	}
}

func TestEnabledLLMProviders(t *testing.T) {
	cfg := &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"on":  {Type: "openai", Enabled: true},
			"off": {Type: "openrouter", Enabled: false},
		},
	}

	enabled := cfg.EnabledLLMProviders()
	if len(enabled) != 1 {
		t.Fatalf("expected 1 enabled provider, got %d", len(enabled))
	}
	if _, ok := enabled["on"]; !ok {
		t.Error("expected provider 'on' to be enabled")
	}
}

func TestWriteDefault(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("failed to write default config: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "llm_providers") {
		t.Error("expected llm_providers section")
	}
	if !strings.Contains(content, "${OPENAI_API_KEY}") {
		t.Error("expected env var placeholder to survive marshaling")
	}
}
