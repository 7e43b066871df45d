package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

// HMACEnvKey is the env var holding the session key HMAC secret.
// #nosec G101 -- an environment variable name, not a credential.
const HMACEnvKey = "HELLO_SESSION_KEY_HMAC"

// MinHMACKeyBytes is the smallest secret accepted when HMAC is required.
const MinHMACKeyBytes = 32

// HashSHA256Hex returns the hex SHA-256 digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns the hex HMAC-SHA256 of s under key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// HMACKeyFromEnv returns the configured secret, enforcing minBytes.
func HMACKeyFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(HMACEnvKey))
	if raw == "" {
		return nil, ErrHMACKeyMissing
	}
	if minBytes > 0 && len(raw) < minBytes {
		return nil, ErrHMACKeyTooShort
	}
	return []byte(raw), nil
}

// HMACEnabled reports whether a secret is configured. Length is not checked.
func HMACEnabled() bool {
	return strings.TrimSpace(os.Getenv(HMACEnvKey)) != ""
}

// HashSessionTokenHex derives the storage key for a session token.
func HashSessionTokenHex(tok string) string {
	key := strings.TrimSpace(os.Getenv(HMACEnvKey))
	if key == "" {
		return HashSHA256Hex(tok)
	}
	return HashHMACSHA256Hex(tok, []byte(key))
}
