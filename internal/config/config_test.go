package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAMLDefaults(t *testing.T) {
	path := writeConfig(t, "abewatch.yaml", `
log_level: debug
storage:
  driver: memory
discord:
  ignored_channels: [111, 222]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log_level = %q", cfg.LogLevel)
	}
	if cfg.Storage.Driver != "memory" {
		t.Fatalf("driver = %q", cfg.Storage.Driver)
	}
	if cfg.Detection.TTL != 24*time.Hour {
		t.Fatalf("ttl default = %v", cfg.Detection.TTL)
	}
	if cfg.Detection.AttributionCap != 5 {
		t.Fatalf("attribution cap default = %d", cfg.Detection.AttributionCap)
	}
	if cfg.Discord.CommandPrefix != "!" {
		t.Fatalf("prefix default = %q", cfg.Discord.CommandPrefix)
	}
	if len(cfg.Discord.IgnoredChannels) != 2 || cfg.Discord.IgnoredChannels[0] != 111 {
		t.Fatalf("ignored channels = %v", cfg.Discord.IgnoredChannels)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "abewatch.json", `{"log_level":"warn","storage":{"driver":"sqlite","dsn":":memory:"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "warn" || cfg.Storage.DSN != ":memory:" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestValidateRejectsBadDriver(t *testing.T) {
	path := writeConfig(t, "abewatch.yaml", "storage:\n  driver: cassandra\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected driver validation error")
	}
}

func TestValidateKafkaNeedsBrokers(t *testing.T) {
	path := writeConfig(t, "abewatch.yaml", "publish:\n  kafka:\n    enabled: true\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected kafka validation error")
	}
}
