package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("RIOT_API_KEY", "")
	path := writeConfig(t, `{"port": 9090, "riot": {"api_key": "from-file"}}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error = %v", err)
	}
	if cfg.Port != 9090 {
		t.Fatalf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Riot.APIKey != "from-file" {
		t.Fatalf("Riot.APIKey = %q, want from-file", cfg.Riot.APIKey)
	}
	if cfg.Riot.MaxRetries != 3 || cfg.PUBG.Shard != "steam" || cfg.OpenAI.ImageSize != "512x512" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.RabbitMQ.RoutingKey != cfg.RabbitMQ.QueueName {
		t.Fatalf("routing key %q should default to queue %q", cfg.RabbitMQ.RoutingKey, cfg.RabbitMQ.QueueName)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	t.Setenv("RIOT_API_KEY", "from-env")
	t.Setenv("OPENAI_ORGANIZATION", "org-123")
	path := writeConfig(t, `{"riot": {"api_key": "from-file"}}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error = %v", err)
	}
	if cfg.Riot.APIKey != "from-env" {
		t.Fatalf("Riot.APIKey = %q, want from-env", cfg.Riot.APIKey)
	}
	if cfg.OpenAI.Organization != "org-123" {
		t.Fatalf("OpenAI.Organization = %q, want org-123", cfg.OpenAI.Organization)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := LoadConfig(writeConfig(t, `{not json`)); err == nil {
		t.Fatalf("expected error for malformed file")
	}
}
