package session

import (
	"os"
	"strconv"
	"strings"
)

// Config selects and tunes the session backend.
//
// An empty RedisAddr keeps sessions in process memory.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// KeyPrefix namespaces session keys in Redis.
	KeyPrefix string

	// CreateAttempts bounds token regeneration on collision in Redis.
	CreateAttempts int
}

// DefaultConfig returns the in-memory configuration.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:      "hello:session:",
		CreateAttempts: 3,
	}
}

// RedisEnabled reports whether a Redis backend is configured.
func (c Config) RedisEnabled() bool { return c.RedisAddr != "" }

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional:
//   - HELLO_REDIS_ADDR
//   - HELLO_REDIS_PASSWORD
//   - HELLO_REDIS_DB (0..15)
//   - HELLO_REDIS_PREFIX
//   - HELLO_SESSION_CREATE_ATTEMPTS (1..10)
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("HELLO_REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("HELLO_REDIS_PASSWORD")

	if v := strings.TrimSpace(os.Getenv("HELLO_REDIS_DB")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 15 {
			return Config{}, ErrConfig
		}
		cfg.RedisDB = n
	}

	if v := strings.TrimSpace(os.Getenv("HELLO_REDIS_PREFIX")); v != "" {
		cfg.KeyPrefix = v
	}

	if v := strings.TrimSpace(os.Getenv("HELLO_SESSION_CREATE_ATTEMPTS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 10 {
			return Config{}, ErrConfig
		}
		cfg.CreateAttempts = n
	}

	return cfg, nil
}
