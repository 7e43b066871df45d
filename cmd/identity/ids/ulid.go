// Package ids generates sortable identifiers for requests and test fixtures.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// NewULID returns a 26-char ULID for now. IDs minted in the same
// millisecond stay strictly increasing.
func NewULID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	mu.Lock()
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	mu.Unlock()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// RequestID returns a fresh ULID, or "" if entropy is exhausted.
func RequestID() string {
	id, err := NewULID(time.Now().UTC())
	if err != nil {
		return ""
	}
	return id
}
