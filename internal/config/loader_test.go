package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadNonExistentUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	def := DefaultConfig()
	if cfg.Agents.Defaults.Model != def.Agents.Defaults.Model {
		t.Errorf("expected default model %q, got %q", def.Agents.Defaults.Model, cfg.Agents.Defaults.Model)
	}
	if !cfg.Channels.Console.Enabled {
		t.Error("console channel should default to enabled")
	}
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
agents:
  defaults:
    model: openai/gpt-4o
    maxTokens: 4096
channels:
  telegram:
    enabled: true
    token: tg-token
    allowFrom: ["12345"]
devices:
  - name: Porch Cam
    zone: porch
    class: camera
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Agents.Defaults.Model != "openai/gpt-4o" {
		t.Errorf("model = %q", cfg.Agents.Defaults.Model)
	}
	if cfg.Agents.Defaults.MaxTokens != 4096 {
		t.Errorf("maxTokens = %d", cfg.Agents.Defaults.MaxTokens)
	}
	if !cfg.Channels.Telegram.Enabled || cfg.Channels.Telegram.Token != "tg-token" {
		t.Errorf("telegram = %+v", cfg.Channels.Telegram)
	}
	if len(cfg.Devices) != 1 || cfg.Devices[0].Class != "camera" {
		t.Errorf("devices = %+v", cfg.Devices)
	}
}

func TestLoadInvalidYAMLFallsBack(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "agents: [not: valid: yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected fallback to defaults, got: %v", err)
	}
	def := DefaultConfig()
	if cfg.Agents.Defaults.Model != def.Agents.Defaults.Model {
		t.Errorf("expected default model, got %q", cfg.Agents.Defaults.Model)
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
agents:
  defaults:
    model: custom/model
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def := DefaultConfig()
	if cfg.Agents.Defaults.Model != "custom/model" {
		t.Errorf("model = %q", cfg.Agents.Defaults.Model)
	}
	if cfg.Agents.Defaults.Temperature != def.Agents.Defaults.Temperature {
		t.Errorf("temperature should keep default, got %v", cfg.Agents.Defaults.Temperature)
	}
	if cfg.Sessions.SweepEvery != def.Sessions.SweepEvery {
		t.Errorf("sweepEvery should keep default, got %q", cfg.Sessions.SweepEvery)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	original := DefaultConfig()
	original.Agents.Defaults.Model = "deepseek/deepseek-chat"
	original.Agents.Defaults.MaxTokens = 1234
	original.Channels.Slack.BotToken = "xoxb-test"

	if err := Save(&original, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Agents.Defaults.Model != original.Agents.Defaults.Model {
		t.Errorf("model = %q", loaded.Agents.Defaults.Model)
	}
	if loaded.Agents.Defaults.MaxTokens != original.Agents.Defaults.MaxTokens {
		t.Errorf("maxTokens = %d", loaded.Agents.Defaults.MaxTokens)
	}
	if loaded.Channels.Slack.BotToken != "xoxb-test" {
		t.Errorf("slack token = %q", loaded.Channels.Slack.BotToken)
	}
}

func TestSaveFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	if err := Save(&cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected permissions 0600, got %04o", perm)
	}
}

func TestMatchProviderPrefixAndKeyword(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers.DeepSeek.APIKey = "sk-ds"
	cfg.Providers.Anthropic.APIKey = "sk-ant"

	if got := cfg.GetProviderName("deepseek/deepseek-chat"); got != "deepseek" {
		t.Errorf("prefix match = %q", got)
	}
	if got := cfg.GetProviderName("claude-sonnet-4"); got != "anthropic" {
		t.Errorf("keyword match = %q", got)
	}
	if got := cfg.GetAPIKey("claude-sonnet-4"); got != "sk-ant" {
		t.Errorf("api key = %q", got)
	}
}

func TestMatchProviderFallbackFirstConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers.OpenRouter.APIKey = "sk-or-xyz"

	result := cfg.MatchProvider("some-unknown-model")
	if result.Name != "openrouter" {
		t.Errorf("fallback = %q", result.Name)
	}
	if got := cfg.GetAPIBase("some-unknown-model"); got != "https://openrouter.ai/api/v1" {
		t.Errorf("api base = %q", got)
	}
}
