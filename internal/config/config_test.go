package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/assetflow/internal/core/transfer"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, ".assetflow")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Actor.Role != string(transfer.RoleUser) {
		t.Errorf("expected default role User, got %q", cfg.Actor.Role)
	}
	if cfg.Gateway.Timeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %s", cfg.Gateway.Timeout)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.Server.Addr)
	}
	if cfg.Kafka.Topic != "transfer-events" {
		t.Errorf("expected default topic, got %q", cfg.Kafka.Topic)
	}
	if cfg.IsRemote() {
		t.Error("expected local gateway by default")
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
actor:
  id: 2
  role: Manager
gateway:
  url: http://localhost:9000
  timeout: 3s
kafka:
  brokers: [kafka-1:9092, kafka-2:9092]
policy:
  allow_self_approval: true
`)

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if got := cfg.Caller(); got.ID != 2 || got.Role != transfer.RoleManager {
		t.Errorf("unexpected caller: %+v", got)
	}
	if !cfg.IsRemote() || cfg.Gateway.Timeout != 3*time.Second {
		t.Errorf("unexpected gateway: %+v", cfg.Gateway)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("expected 2 brokers, got %v", cfg.Kafka.Brokers)
	}
	if !cfg.Policy.AllowSelfApproval {
		t.Error("expected self approval to be allowed")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected default log format, got %q", cfg.Log.Format)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "actor:\n  id: 2\n  role: Manager\n")
	t.Setenv("ASSETFLOW_ACTOR_ID", "7")
	t.Setenv("ASSETFLOW_ACTOR_ROLE", "Administrator")
	t.Setenv("ASSETFLOW_KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Actor.ID != 7 || cfg.Actor.Role != "Administrator" {
		t.Errorf("expected env to win, got %+v", cfg.Actor)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Errorf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9999\"\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv(EnvConfigPath, path)

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("expected :9999, got %q", cfg.Server.Addr)
	}
}

func TestLoadConfig_InvalidRole(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "actor:\n  id: 1\n  role: Janitor\n")

	_, err := LoadConfig(dir)
	if err == nil || !strings.Contains(err.Error(), "invalid actor role") {
		t.Errorf("expected invalid role error, got %v", err)
	}
}

func TestSaveConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		Actor:   Actor{ID: 4, Role: "User"},
		Gateway: Gateway{Timeout: 5 * time.Second},
		Server:  Server{Addr: ":8080"},
		Kafka:   Kafka{Topic: "transfer-events"},
		Log:     Log{Level: "debug", Format: "json"},
	}

	if err := SaveConfig(dir, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Actor.ID != 4 || loaded.Log.Format != "json" || loaded.Gateway.Timeout != 5*time.Second {
		t.Errorf("saved config not read back: %+v", loaded)
	}
}

func TestLog_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := Log{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "transfer_id", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, `"transfer_id":3`) {
		t.Errorf("expected JSON output, got %q", out)
	}
}
