package app

import (
	"errors"

	"github.com/gltdhd/Spring-MVC-2/cmd/security/token"
)

// ValidateSecurityConfig enforces the session-key policy at startup.
// A required HMAC secret that is missing or short is fatal.
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireSessionKeyHMAC {
		return nil
	}

	if _, err := token.HMACKeyFromEnv(token.MinHMACKeyBytes); err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return errors.New("security policy: HELLO_REQUIRE_SESSION_KEY_HMAC=true but HELLO_SESSION_KEY_HMAC is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return errors.New("security policy: HELLO_REQUIRE_SESSION_KEY_HMAC=true but HELLO_SESSION_KEY_HMAC is too short (min 32 bytes)")
		default:
			return err
		}
	}

	if !token.HMACEnabled() {
		return errors.New("security policy: HELLO_REQUIRE_SESSION_KEY_HMAC=true but session keys are not HMAC digests")
	}
	return nil
}
