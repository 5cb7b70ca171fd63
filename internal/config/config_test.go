package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.GreaterOrEqual(t, cfg.MaxConcurrency, 1)
	assert.Equal(t, "memory", cfg.History.Backend)
}

func TestNewAppliesOptionsOverDefaults(t *testing.T) {
	cfg, err := New(
		WithMaxConcurrency(8),
		WithExecutorTimeout(10*time.Second),
		WithPlanCacheTTL(time.Minute),
		WithHistoryBackend("sqlite", "custom.db"),
		WithHistoryRetentionDays(7),
		WithLogFormat("text"),
		WithDebugLogging(true),
	)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.Equal(t, 10*time.Second, cfg.Executor.DefaultTimeout)
	assert.Equal(t, time.Minute, cfg.Cache.PlanTTL)
	assert.Equal(t, "sqlite", cfg.History.Backend)
	assert.Equal(t, "custom.db", cfg.History.DSN)
	assert.Equal(t, 7, cfg.History.RetentionDays)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.True(t, cfg.Logging.Debug)
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("INTENTD_MAX_CONCURRENCY", "3")
	t.Setenv("INTENTD_EXECUTOR_TIMEOUT", "2s")
	t.Setenv("INTENTD_HISTORY_BACKEND", "sqlite")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxConcurrency)
	assert.Equal(t, 2*time.Second, cfg.Executor.DefaultTimeout)
	assert.Equal(t, "sqlite", cfg.History.Backend)
}

func TestOptionsOverrideEnv(t *testing.T) {
	t.Setenv("INTENTD_MAX_CONCURRENCY", "3")

	cfg, err := New(WithMaxConcurrency(9))
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.MaxConcurrency)
}

func TestValidateRejectsNegativeConcurrency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConcurrency = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownHistoryBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.History.Backend = "postgres"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsTelemetryWithoutEndpoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Endpoint = ""
	assert.Error(t, cfg.Validate())
}

func TestWithTelemetryEnablesAndSetsEndpoint(t *testing.T) {
	cfg, err := New(WithTelemetry("http://localhost:4317"))
	require.NoError(t, err)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "http://localhost:4317", cfg.Telemetry.Endpoint)
}

func TestValidateRejectsRedisHistoryWithoutAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.History.Backend = "redis"
	cfg.History.RedisAddr = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsRedisCacheWithoutAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisAddr = ""
	assert.Error(t, cfg.Validate())
}

func TestWithHistoryRedisAddrSelectsBackend(t *testing.T) {
	cfg, err := New(WithHistoryRedisAddr("localhost:6379"))
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.History.Backend)
	assert.Equal(t, "localhost:6379", cfg.History.RedisAddr)
}

func TestWithPlanCacheRedisSelectsBackend(t *testing.T) {
	cfg, err := New(WithPlanCacheRedis("localhost:6379"))
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
}

func TestLoadFromFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intentd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_concurrency: 6
history:
  backend: sqlite
  dsn: from-file.db
`), 0o644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))
	assert.Equal(t, 6, cfg.MaxConcurrency)
	assert.Equal(t, "sqlite", cfg.History.Backend)
	assert.Equal(t, "from-file.db", cfg.History.DSN)
}

func TestLoadFromFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intentd.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"max_concurrency": 3}`), 0o644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))
	assert.Equal(t, 3, cfg.MaxConcurrency)
}

func TestLoadFromFileRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intentd.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_concurrency = 3"), 0o644))

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestWithConfigFileMergesBeforeOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intentd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_concurrency: 2\n"), 0o644))

	cfg, err := New(WithConfigFile(path), WithMaxConcurrency(9))
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.MaxConcurrency)
}
