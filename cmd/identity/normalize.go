package identity

import "strings"

// NormalizeLoginID canonicalizes a login id for storage and lookup.
// Login ids compare case-insensitively.
func NormalizeLoginID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
