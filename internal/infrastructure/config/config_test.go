package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
gateway:
  id: "test-gateway"
database:
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "broker.lan"
    port: 1883
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
bridges:
  - id: "AA11"
    ca: "/etc/leapgate/aa11-ca.pem"
    cert: "/etc/leapgate/aa11-cert.pem"
    key: "/etc/leapgate/aa11-key.pem"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.ID != "test-gateway" {
		t.Errorf("Gateway.ID = %q, want %q", cfg.Gateway.ID, "test-gateway")
	}
	if cfg.MQTT.Broker.Host != "broker.lan" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.lan")
	}
	if len(cfg.Bridges) != 1 || cfg.Bridges[0].ID != "AA11" {
		t.Errorf("Bridges = %+v, want one entry with ID AA11", cfg.Bridges)
	}

	// Defaults survive partial files
	if cfg.Discovery.Service != "_lutron._tcp" {
		t.Errorf("Discovery.Service = %q, want default", cfg.Discovery.Service)
	}
	if cfg.Options.LongClickSpeed != "default" {
		t.Errorf("Options.LongClickSpeed = %q, want %q", cfg.Options.LongClickSpeed, "default")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_IncompleteBridgeEntry(t *testing.T) {
	content := `
database:
  path: "/tmp/test.db"
api:
  enabled: false
bridges:
  - id: "AA11"
    ca: "/etc/leapgate/ca.pem"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected error for bridge missing cert/key, got nil")
	}
	if !strings.Contains(err.Error(), "bridges[0]") {
		t.Errorf("error = %v, want mention of bridges[0]", err)
	}
}

func TestLoad_DuplicateBridgeID(t *testing.T) {
	content := `
api:
  enabled: false
bridges:
  - id: "AA11"
    ca: "a"
    cert: "b"
    key: "c"
  - id: "aa11"
    ca: "a"
    cert: "b"
    key: "c"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected error for duplicate bridge ID (case-insensitive), got nil")
	}
}

func TestLoad_InvalidClickSpeed(t *testing.T) {
	content := `
api:
  enabled: false
options:
  long_click_speed: "instant"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected error for invalid click speed, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
database:
  path: "/tmp/file-value.db"
api:
  enabled: false
`
	t.Setenv("LEAPGATE_DATABASE_PATH", "/tmp/env-value.db")
	t.Setenv("LEAPGATE_MQTT_HOST", "env-broker.lan")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/env-value.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.MQTT.Broker.Host != "env-broker.lan" {
		t.Errorf("MQTT.Broker.Host = %q, want env override", cfg.MQTT.Broker.Host)
	}
}

func TestValidate_JWTSecretRequiredWithAPI(t *testing.T) {
	cfg := defaultConfig()
	cfg.API.Enabled = true
	cfg.Security.JWT.Secret = ""

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for missing JWT secret, got nil")
	}

	cfg.API.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with API disabled error = %v, want nil", err)
	}
}
