package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls the login API's cookie transport and request limits.
type Config struct {
	CookieName     string
	CookiePath     string
	CookieSecure   bool
	CookieSameSite http.SameSite

	TrustProxy   bool
	MaxBodyBytes int64

	LoginIPMax    int
	LoginIPWindow time.Duration
}

// DefaultConfig returns the settings used when no environment overrides exist.
func DefaultConfig() Config {
	return Config{
		CookieName:     "mySessionId",
		CookiePath:     "/",
		CookieSecure:   false,
		CookieSameSite: http.SameSiteLaxMode,
		MaxBodyBytes:   1 << 20,
		LoginIPMax:     20,
		LoginIPWindow:  5 * time.Minute,
	}
}

// LoadConfigFromEnv loads login API config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	def := DefaultConfig()
	cfg := Config{
		CookieName:     envString("HELLO_SESSION_COOKIE", def.CookieName),
		CookiePath:     envString("HELLO_COOKIE_PATH", def.CookiePath),
		CookieSecure:   envBool("HELLO_COOKIE_SECURE", def.CookieSecure),
		CookieSameSite: parseSameSite(os.Getenv("HELLO_COOKIE_SAMESITE"), def.CookieSameSite),
		TrustProxy:     envBool("HELLO_TRUST_PROXY", def.TrustProxy),
		MaxBodyBytes:   envInt64("HELLO_MAX_BODY_BYTES", def.MaxBodyBytes),
		LoginIPMax:     envInt("HELLO_LOGIN_IP_MAX", def.LoginIPMax),
		LoginIPWindow:  envDuration("HELLO_LOGIN_IP_WINDOW", def.LoginIPWindow),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.LoginIPWindow <= 0 {
		cfg.LoginIPWindow = def.LoginIPWindow
	}
	if !strings.HasPrefix(cfg.CookiePath, "/") {
		cfg.CookiePath = "/"
	}
	// SameSite=None is rejected by browsers without Secure.
	if cfg.CookieSameSite == http.SameSiteNoneMode && !cfg.CookieSecure {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}
	return cfg
}

func parseSameSite(raw string, def http.SameSite) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return def
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return def
	}
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
