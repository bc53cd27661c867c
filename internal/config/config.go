package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by RECO_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("RECO_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	return positiveInt("RATE_LIMIT_BURST", 20)
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// ResultCacheTTL is how long trending and similarity lists are memoized.
// Defaults to 30m.
func ResultCacheTTL() time.Duration {
	return positiveDuration("RESULT_CACHE_TTL", 30*time.Minute)
}

func ResultCacheCapacity() int {
	return positiveInt("RESULT_CACHE_CAPACITY", 1000)
}

// BundleTTL is the lifetime of a personalized bundle. Defaults to 1h.
func BundleTTL() time.Duration {
	return positiveDuration("BUNDLE_TTL", time.Hour)
}

func BundleCacheCapacity() int {
	return positiveInt("BUNDLE_CACHE_CAPACITY", 1000)
}

// ProfileQueueSize bounds pending preference refreshes. Defaults to 256.
func ProfileQueueSize() int {
	return positiveInt("PROFILE_QUEUE_SIZE", 256)
}

// BreakerFailureThreshold is the number of consecutive store failures that
// opens a circuit breaker. Defaults to 5.
func BreakerFailureThreshold() uint32 {
	return uint32(positiveInt("BREAKER_FAILURE_THRESHOLD", 5))
}

// BreakerOpenTimeout is how long an open breaker rejects calls before
// probing again. Defaults to 30s.
func BreakerOpenTimeout() time.Duration {
	return positiveDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second)
}

// RecordTimeout bounds a single interaction write. Defaults to 500ms.
func RecordTimeout() time.Duration {
	return positiveDuration("RECORD_TIMEOUT", 500*time.Millisecond)
}

func positiveInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func positiveDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
