package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepserish-bk/db-security-scanner/internal/model"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, runtime.NumCPU(), cfg.Scan.Workers)
	assert.Equal(t, "HIGH", cfg.Scan.FailOn)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.Equal(t, 7, cfg.Cache.RetentionDays)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "dbsec.findings", cfg.Publish.Subject)
	assert.False(t, cfg.Publish.Enabled)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `scan:
  workers: 2
  fail_on: MEDIUM
rules:
  enabled: [sql]
cache:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Scan.Workers)
	assert.Equal(t, model.SeverityMedium, cfg.FailSeverity())
	assert.Equal(t, []model.Category{model.CategorySQL}, cfg.EnabledRules())
	assert.False(t, cfg.Cache.Enabled)

	// Untouched sections keep their defaults.
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		substr string
	}{
		{"zero workers", "scan:\n  workers: -1\n", "scan.workers"},
		{"unknown severity", "scan:\n  fail_on: banana\n", "scan.fail_on"},
		{"unknown category", "rules:\n  enabled: [banana]\n", "rules.enabled"},
		{"confidence out of range", "rules:\n  min_confidence: 2\n", "min_confidence"},
		{"port out of range", "server:\n  port: 0\n", "server.port"},
		{"negative retention", "cache:\n  retention_days: -1\n", "retention"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.raw), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrBadConfig)
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Scan.Workers = 3
	cfg.Publish.Enabled = true
	cfg.Publish.URL = "nats://127.0.0.1:4222"

	require.NoError(t, cfg.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestFailSeverityFallback(t *testing.T) {
	cfg := Default()
	cfg.Scan.FailOn = "medium"
	assert.Equal(t, model.SeverityMedium, cfg.FailSeverity())

	cfg.Scan.FailOn = "nonsense"
	assert.Equal(t, model.SeverityHigh, cfg.FailSeverity())
}

func TestSeverityThresholds(t *testing.T) {
	cfg := Default()
	cfg.Scan.FailOn = "low"
	assert.Equal(t, map[model.Severity]int{model.SeverityLow: 1}, cfg.SeverityThresholds())
}

func TestCachePath(t *testing.T) {
	cfg := Default()
	cfg.Cache.Dir = "/var/lib/dbsec"
	assert.Equal(t, filepath.Join("/var/lib/dbsec", "cache.db"), cfg.CachePath())
}
