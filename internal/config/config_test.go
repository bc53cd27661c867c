package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "LOG_LEVEL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"RESULT_CACHE_TTL", "RESULT_CACHE_CAPACITY", "BUNDLE_TTL", "BUNDLE_CACHE_CAPACITY",
		"PROFILE_QUEUE_SIZE", "BREAKER_FAILURE_THRESHOLD", "BREAKER_OPEN_TIMEOUT",
		"RECORD_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	assert.Equal(t, 8080, ServerPort())
	assert.Equal(t, ":8080", ServerAddr())
	assert.Equal(t, "info", LogLevel())
	assert.Equal(t, 100.0, RateLimitRPS())
	assert.Equal(t, 20, RateLimitBurst())
	assert.Equal(t, 30*time.Minute, ResultCacheTTL())
	assert.Equal(t, 1000, ResultCacheCapacity())
	assert.Equal(t, time.Hour, BundleTTL())
	assert.Equal(t, 1000, BundleCacheCapacity())
	assert.Equal(t, 256, ProfileQueueSize())
	assert.Equal(t, uint32(5), BreakerFailureThreshold())
	assert.Equal(t, 30*time.Second, BreakerOpenTimeout())
	assert.Equal(t, 500*time.Millisecond, RecordTimeout())
}

func TestOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RESULT_CACHE_TTL", "5m")
	t.Setenv("BUNDLE_TTL", "90m")
	t.Setenv("PROFILE_QUEUE_SIZE", "16")
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "2")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RECORD_TIMEOUT", "250ms")

	assert.Equal(t, ":9090", ServerAddr())
	assert.Equal(t, 5*time.Minute, ResultCacheTTL())
	assert.Equal(t, 90*time.Minute, BundleTTL())
	assert.Equal(t, 16, ProfileQueueSize())
	assert.Equal(t, uint32(2), BreakerFailureThreshold())
	assert.Equal(t, 2.5, RateLimitRPS())
	assert.Equal(t, 250*time.Millisecond, RecordTimeout())
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RESULT_CACHE_TTL", "soon")
	t.Setenv("PROFILE_QUEUE_SIZE", "-3")
	t.Setenv("RATE_LIMIT_RPS", "0")

	assert.Equal(t, 30*time.Minute, ResultCacheTTL())
	assert.Equal(t, 256, ProfileQueueSize())
	assert.Equal(t, 100.0, RateLimitRPS())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("RECO_TEST_VALUE=from-file\n"), 0o600))
	require.NoError(t, os.WriteFile(envFile+".secret", []byte("RECO_TEST_SECRET=hidden\n"), 0o600))

	t.Setenv("RECO_ENV", envFile)
	t.Setenv("RECO_TEST_VALUE", "")
	t.Setenv("RECO_TEST_SECRET", "")
	require.NoError(t, os.Unsetenv("RECO_TEST_VALUE"))
	require.NoError(t, os.Unsetenv("RECO_TEST_SECRET"))

	require.NoError(t, Load())
	assert.Equal(t, "from-file", os.Getenv("RECO_TEST_VALUE"))
	assert.Equal(t, "hidden", os.Getenv("RECO_TEST_SECRET"))
}
