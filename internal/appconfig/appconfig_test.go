package appconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sewer", cfg.Service)
	assert.Equal(t, "systems.yaml", cfg.Systems)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 100, cfg.Recorder.Limit)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "sewer.yaml", `
systems: /etc/sewer/systems.yaml
workers: 4
http:
  addr: ":9000"
  mode: debug
log:
  level: debug
  format: json
`)
	t.Setenv("SEWER_HTTP_ADDR", ":9100")
	t.Setenv("SEWER_TELEMETRY_INTERVAL", "5s")

	cfg, err := Load(WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, "/etc/sewer/systems.yaml", cfg.Systems)
	assert.Equal(t, int64(4), cfg.Workers)
	assert.Equal(t, ":9100", cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.HTTP.Mode)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 5*time.Second, cfg.Telemetry.Interval)
}

func TestLoad_EnvFile(t *testing.T) {
	path := writeFile(t, ".env", "SEWER_SERVICE=sewer-test\nSEWER_RECORDER_LIMIT=7\n")
	t.Cleanup(func() {
		os.Unsetenv("SEWER_SERVICE")
		os.Unsetenv("SEWER_RECORDER_LIMIT")
	})

	cfg, err := Load(WithEnvFile(path))
	require.NoError(t, err)
	assert.Equal(t, "sewer-test", cfg.Service)
	assert.Equal(t, 7, cfg.Recorder.Limit)
}

func TestLoad_MissingExplicitFiles(t *testing.T) {
	_, err := Load(WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Error(t, err)

	_, err = Load(WithEnvFile(filepath.Join(t.TempDir(), "absent.env")))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"SEWER_HTTP_MODE":             "loud",
		"SEWER_TELEMETRY_SAMPLE_RATE": "2",
		"SEWER_LOG_LEVEL":             "chatty",
		"SEWER_RECORDER_LIMIT":        "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_TelemetryNeedsEndpoint(t *testing.T) {
	path := writeFile(t, "sewer.yaml", "telemetry:\n  enabled: true\n  endpoint: \"\"\n")
	_, err := Load(WithConfigFile(path))
	assert.Error(t, err)
}
