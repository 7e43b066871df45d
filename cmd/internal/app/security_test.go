package app

import (
	"strings"
	"testing"
)

func TestValidateSecurityConfig(t *testing.T) {
	t.Setenv("HELLO_SESSION_KEY_HMAC", "")
	if err := ValidateSecurityConfig(Config{}); err != nil {
		t.Fatalf("policy off: %v", err)
	}

	cfg := Config{RequireSessionKeyHMAC: true}
	if err := ValidateSecurityConfig(cfg); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected missing-key error, got %v", err)
	}

	t.Setenv("HELLO_SESSION_KEY_HMAC", "short")
	if err := ValidateSecurityConfig(cfg); err == nil || !strings.Contains(err.Error(), "too short") {
		t.Fatalf("expected short-key error, got %v", err)
	}

	t.Setenv("HELLO_SESSION_KEY_HMAC", strings.Repeat("k", 32))
	if err := ValidateSecurityConfig(cfg); err != nil {
		t.Fatalf("valid key: %v", err)
	}
}
