package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "locator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "locators.db", cfg.Storage.DSN)
	assert.Equal(t, "store", cfg.Telemetry.Backend)
	assert.True(t, cfg.Healing.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Healing.QueryTimeout)
	assert.Equal(t, 2, cfg.Healing.MinFrequency)
	assert.Equal(t, 50, cfg.Extract.TextMaxLength)
	assert.Equal(t, 2, cfg.Extract.MaxClasses)
	assert.Equal(t, 500*time.Millisecond, cfg.Desktop.CacheTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: postgres
  dsn: host=db user=locator
healing:
  query_timeout: 750ms
  min_frequency: 3
extract:
  text_max_length: 20
  dynamic_prefixes: [acme-]
  reliability:
    - kind: test-id
      reliability: 100
    - kind: id
      reliability: 90
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, 750*time.Millisecond, cfg.Healing.QueryTimeout)
	assert.Equal(t, 3, cfg.Healing.MinFrequency)
	assert.Equal(t, 20, cfg.Extract.TextMaxLength)
	assert.Equal(t, []string{"acme-"}, cfg.Extract.DynamicPrefixes)
	require.Len(t, cfg.Extract.Reliability, 2)
	assert.Equal(t, ReliabilityRule{Kind: "test-id", Reliability: 100}, cfg.Extract.Reliability[0])
	// untouched keys keep their defaults
	assert.Equal(t, 4, cfg.Healing.Parallelism)
}

func TestLoad_EnvOverrideAndExpansion(t *testing.T) {
	t.Setenv("LOCATOR_HEALING_MIN_FREQUENCY", "5")
	t.Setenv("DB_PASSWORD", "s3cret")
	path := writeConfig(t, `
storage:
  driver: mysql
  dsn: locator:${DB_PASSWORD}@tcp(db:3306)/locators
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Healing.MinFrequency)
	assert.Equal(t, "locator:s3cret@tcp(db:3306)/locators", cfg.Storage.DSN)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"driver", "storage:\n  driver: oracle\n"},
		{"backend", "telemetry:\n  backend: s3\n"},
		{"min frequency", "healing:\n  min_frequency: 0\n"},
		{"timeout", "healing:\n  query_timeout: 0s\n"},
		{"kafka topic", "telemetry:\n  kafka:\n    brokers: [localhost:9092]\n    topic: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestConfig_YAML(t *testing.T) {
	out, err := Default().YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "driver: sqlite")
	assert.Contains(t, string(out), "min_frequency: 2")
}
