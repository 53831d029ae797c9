package remark

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Generation.Model != "gpt-4o-mini" {
		t.Errorf("expected default model gpt-4o-mini, got %q", cfg.Generation.Model)
	}
	if cfg.Generation.MaxTokens != 1500 {
		t.Errorf("expected max_tokens 1500, got %d", cfg.Generation.MaxTokens)
	}
	if cfg.Generation.Temperature == nil || *cfg.Generation.Temperature != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", cfg.Generation.Temperature)
	}
	if cfg.Generation.APIType != "chat_completions" {
		t.Errorf("expected chat_completions, got %q", cfg.Generation.APIType)
	}
	if cfg.Cache.TTLMinutes != 60 {
		t.Errorf("expected ttl 60, got %d", cfg.Cache.TTLMinutes)
	}
}

func TestConfigDirResolution(t *testing.T) {
	t.Setenv("REMARK_CONFIG_DIR", "/custom/remark")
	if got := ConfigDir(); got != "/custom/remark" {
		t.Errorf("expected /custom/remark, got %s", got)
	}

	t.Setenv("REMARK_CONFIG_DIR", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := ConfigDir(); got != "/xdg/remark" {
		t.Errorf("expected /xdg/remark, got %s", got)
	}
	if got := ConfigPath(); got != "/xdg/remark/config.json" {
		t.Errorf("unexpected config path %s", got)
	}
	if got := PromptPath(); got != "/xdg/remark/prompt.md" {
		t.Errorf("unexpected prompt path %s", got)
	}
}

func TestLoadConfigMissingReturnsDefaults(t *testing.T) {
	t.Setenv("REMARK_CONFIG_DIR", t.TempDir())
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Generation.Model != DefaultConfig().Generation.Model {
		t.Errorf("expected default model, got %q", cfg.Generation.Model)
	}
}

func TestLoadConfigFillsMissingFields(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REMARK_CONFIG_DIR", dir)
	os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"generation":{"model":"gpt-4o"}}`), 0644)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Generation.Model != "gpt-4o" {
		t.Errorf("expected configured model, got %q", cfg.Generation.Model)
	}
	if cfg.Generation.BaseURL == "" {
		t.Error("expected base_url to be filled from defaults")
	}
	if cfg.Generation.MaxTokens != 1500 {
		t.Errorf("expected default max_tokens, got %d", cfg.Generation.MaxTokens)
	}
	if cfg.Telemetry.OpenRouter == nil {
		t.Error("expected telemetry default to be applied")
	}
}

func TestLoadConfigKeepsZeroTemperature(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REMARK_CONFIG_DIR", dir)
	os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"generation":{"temperature":0}}`), 0644)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Generation.Temperature == nil || *cfg.Generation.Temperature != 0 {
		t.Errorf("expected explicit temperature 0 kept, got %v", cfg.Generation.Temperature)
	}

	os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"generation":{}}`), 0644)
	cfg, err = LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Generation.Temperature == nil || *cfg.Generation.Temperature != 0.3 {
		t.Errorf("expected default temperature when unset, got %v", cfg.Generation.Temperature)
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REMARK_CONFIG_DIR", dir)
	os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{not json`), 0644)

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestResolveGenerationAPIKeyPriority(t *testing.T) {
	cfg := &Config{Generation: GenerationConfig{APIKey: "from-config"}}

	t.Setenv("REMARK_GENERATION_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	if got := ResolveGenerationAPIKey(cfg); got != "from-config" {
		t.Errorf("expected config key, got %q", got)
	}

	t.Setenv("OPENAI_API_KEY", "from-openai")
	if got := ResolveGenerationAPIKey(cfg); got != "from-openai" {
		t.Errorf("expected OPENAI_API_KEY, got %q", got)
	}

	t.Setenv("REMARK_GENERATION_API_KEY", "from-remark")
	if got := ResolveGenerationAPIKey(cfg); got != "from-remark" {
		t.Errorf("expected REMARK_GENERATION_API_KEY, got %q", got)
	}
}

func TestResolveGenerationOverrides(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv("REMARK_GENERATION_API_BASE_URL", "http://localhost:8080/v1")
	t.Setenv("REMARK_GENERATION_MODEL", "local-model")

	if got := ResolveGenerationBaseURL(cfg); got != "http://localhost:8080/v1" {
		t.Errorf("unexpected base url %q", got)
	}
	if got := ResolveGenerationModel(cfg); got != "local-model" {
		t.Errorf("unexpected model %q", got)
	}
	if got := ResolveGenerationModel(nil); got != "local-model" {
		t.Errorf("env should apply without config, got %q", got)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Setenv("REMARK_GENERATION_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := DefaultConfig()
	cfg.Generation.APIType = "completions"
	warnings := ValidateConfig(cfg)
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
	if !strings.Contains(warnings[0], "API key") {
		t.Errorf("expected API key warning, got %q", warnings[0])
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg.Generation.APIType = "responses"
	if warnings := ValidateConfig(cfg); len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}

	if warnings := ValidateConfig(nil); len(warnings) != 0 {
		t.Errorf("expected no warnings for nil config, got %v", warnings)
	}
}

func TestOpenRouterTelemetryEnabled(t *testing.T) {
	if OpenRouterTelemetryEnabled(nil) {
		t.Error("expected telemetry off for nil config")
	}
	on := true
	if !OpenRouterTelemetryEnabled(&Config{Telemetry: TelemetryConfig{OpenRouter: &on}}) {
		t.Error("expected telemetry on when configured")
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ".env"), []byte("REMARK_TEST_DOTENV=from-file\nREMARK_TEST_PRESET=from-file\n"), 0644)

	t.Setenv("REMARK_TEST_DOTENV", "")
	os.Unsetenv("REMARK_TEST_DOTENV")
	t.Setenv("REMARK_TEST_PRESET", "from-env")

	if err := LoadDotenv(dir); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("REMARK_TEST_DOTENV"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
	if got := os.Getenv("REMARK_TEST_PRESET"); got != "from-env" {
		t.Errorf("expected existing env to win, got %q", got)
	}
}

func TestLoadDotenvMissingFile(t *testing.T) {
	if err := LoadDotenv(t.TempDir()); err != nil {
		t.Errorf("expected nil for missing .env, got %v", err)
	}
}
