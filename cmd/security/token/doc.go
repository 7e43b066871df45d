// Package token derives storage keys from session tokens.
//
// Session tokens are bearer secrets, so any backend that persists them
// (Redis) stores a digest instead: HMAC-SHA256 when HELLO_SESSION_KEY_HMAC is
// set, plain SHA-256 otherwise. Output is always 64 hex characters.
package token
