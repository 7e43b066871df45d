package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string // json, text or pretty
	LogColor  bool   // pretty only

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBSchema    string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, /readyz returns 503 unless Postgres is configured and reachable.
	ReadinessRequireDB bool

	// Seed the demo member and items when the stores are empty. Defaults to
	// on only for the in-memory stores.
	SeedDemoData bool

	// If true, HELLO_SESSION_KEY_HMAC must be set (>= 32 bytes) so Redis
	// session keys are HMAC digests rather than plain SHA-256.
	RequireSessionKeyHMAC bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	dbURL := EnvString("HELLO_DATABASE_URL", "")

	return Config{
		HTTPAddr:  EnvString("HELLO_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("HELLO_LOG_LEVEL", "info"),
		LogFormat: EnvOneOf("HELLO_LOG_FORMAT", "json", "json", "text", "pretty"),
		LogColor:  EnvBool("HELLO_LOG_COLOR", false),

		ReadHeaderTimeout: EnvDuration("HELLO_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("HELLO_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("HELLO_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("HELLO_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("HELLO_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: dbURL,
		DBSchema:    EnvString("HELLO_DB_SCHEMA", "hello"),
		DBMaxConns:  EnvInt32("HELLO_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("HELLO_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("HELLO_READINESS_REQUIRE_DB", false),

		SeedDemoData: EnvBool("HELLO_SEED_DEMO_DATA", dbURL == ""),

		RequireSessionKeyHMAC: EnvBool("HELLO_REQUIRE_SESSION_KEY_HMAC", false),
	}
}
