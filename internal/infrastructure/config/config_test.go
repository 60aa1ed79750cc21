package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testVaultKey = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func writeTestConfig(t *testing.T, content string) string {
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
service:
  id: "test-service"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
vault:
  key: "` + testVaultKey + `"
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	cfg, err := Load(writeTestConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.ID != "test-service" {
		t.Errorf("Service.ID = %q, want %q", cfg.Service.ID, "test-service")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}

	if len(cfg.VaultKey()) != vaultKeyBytes {
		t.Errorf("VaultKey() length = %d, want %d", len(cfg.VaultKey()), vaultKeyBytes)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeTestConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_MissingVaultKey(t *testing.T) {
	content := `
service:
  id: "test-service"
database:
  path: "/tmp/test.db"
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	_, err := Load(writeTestConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected error for missing vault key, got nil")
	}
	if !strings.Contains(err.Error(), "vault.key") {
		t.Errorf("Load() error = %v, want vault.key validation failure", err)
	}
}

func TestLoad_ShortVaultKey(t *testing.T) {
	content := `
service:
  id: "test-service"
database:
  path: "/tmp/test.db"
vault:
  key: "deadbeef"
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	_, err := Load(writeTestConfig(t, content))
	if err == nil {
		t.Error("Load() expected error for short vault key, got nil")
	}
}

func TestLoad_WeakJWTSecret(t *testing.T) {
	content := `
service:
  id: "test-service"
database:
  path: "/tmp/test.db"
vault:
  key: "` + testVaultKey + `"
security:
  jwt:
    secret: "short"
`
	_, err := Load(writeTestConfig(t, content))
	if err == nil {
		t.Error("Load() expected error for weak JWT secret, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	content := `
service:
  id: "test-service"
database:
  path: "/tmp/test.db"
vault:
  key: "` + testVaultKey + `"
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	t.Setenv("TRUSTEDGE_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("TRUSTEDGE_MQTT_HOST", "broker.internal")

	cfg, err := Load(writeTestConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.MQTT.Broker.Host != "broker.internal" {
		t.Errorf("MQTT.Broker.Host = %q, want env override", cfg.MQTT.Broker.Host)
	}
}

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	if cfg.API.Port != 8080 {
		t.Errorf("default API.Port = %d, want 8080", cfg.API.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if !cfg.Database.WALMode {
		t.Error("default Database.WALMode = false, want true")
	}
}

func TestTimeoutHelpers(t *testing.T) {
	cfg := defaultConfig()

	if cfg.GetReadTimeout().Seconds() != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30s", cfg.GetReadTimeout())
	}
	if cfg.GetIdleTimeout().Seconds() != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60s", cfg.GetIdleTimeout())
	}
}
