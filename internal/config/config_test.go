package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresCoreVariables(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "secret",
	})
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/ec_site",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "secret",
		"PORT":         "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 5*time.Minute, cfg.GalleryCacheTTL)
	require.Equal(t, "0 3 * * *", cfg.SweepSchedule)
	require.Equal(t, 4, cfg.WorkerConcurrency)
	require.Equal(t, "ecsite", cfg.MetricsNamespace)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":       "postgres://localhost/ec_site",
		"REDIS_URL":          "redis://localhost:6379/0",
		"JWT_SECRET":         "secret",
		"PORT":               "9090",
		"ACCESS_TOKEN_TTL":   "1h",
		"WORKER_CONCURRENCY": "8",
		"METRICS_BUCKETS_MS": "10, 50, 250",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 8, cfg.WorkerConcurrency)
	require.Equal(t, "10, 50, 250", cfg.MetricsBucketsMS)
}
