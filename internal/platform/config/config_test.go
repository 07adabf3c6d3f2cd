package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "avd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, errs := Load("")
	require.Empty(t, errs)

	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultMaxRequests, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, DefaultAuditTimeout, cfg.Audit.Timeout)
	assert.Equal(t, devSigningKey, cfg.Auth.JWTSigningKey)
	assert.Empty(t, cfg.Database.URL)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9000"
ratelimit:
  max_requests: 20
  window: 30s
kafka:
  brokers: ["file-broker:9092"]
`)
	t.Setenv("AVD_RATELIMIT_MAX_REQUESTS", "5")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")

	cfg, errs := Load(path)
	require.Empty(t, errs)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestLoadCollectsErrors(t *testing.T) {
	t.Setenv("AVD_ENV", "production")
	t.Setenv("AVD_RATELIMIT_WINDOW", "soon")
	t.Setenv("AVD_LOG_FORMAT", "xml")

	_, errs := Load("")

	assert.Len(t, errs, 3)
	assert.Contains(t, errs, ErrMissingSigningKey)
	assert.Contains(t, errs, ErrInvalidLogFormat)
}

func TestMissingFileFails(t *testing.T) {
	_, errs := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Len(t, errs, 1)
}
