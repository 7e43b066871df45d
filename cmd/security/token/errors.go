package token

import "errors"

// Public, stable errors for callers.
var (
	ErrHMACKeyMissing  = errors.New("session key HMAC secret missing")
	ErrHMACKeyTooShort = errors.New("session key HMAC secret too short")
)
