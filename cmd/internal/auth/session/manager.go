package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// maxCreateAttempts bounds how many tokens Create draws before it gives up
// on the generator.
const maxCreateAttempts = 1000

// TokenFunc generates a new session token.
type TokenFunc func() string

// Option configures a Manager.
type Option func(*options)

type options struct {
	newToken TokenFunc
}

// WithTokenGenerator overrides the default UUID v4 token generator.
//
// fn must be safe for concurrent use and must yield a non-empty token that
// is not already live within maxCreateAttempts calls; Create panics
// otherwise.
func WithTokenGenerator(fn TokenFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.newToken = fn
		}
	}
}

// Manager owns an in-memory token -> principal store.
//
// It is safe for concurrent use. The zero value is not usable; construct
// with NewManager.
type Manager[P any] struct {
	newToken TokenFunc

	mu       sync.Mutex
	sessions map[string]P
}

// NewManager returns an empty Manager.
func NewManager[P any](opts ...Option) *Manager[P] {
	o := options{newToken: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager[P]{
		newToken: o.newToken,
		sessions: make(map[string]P),
	}
}

// Create stores p under a fresh token and returns the token.
//
// A generated token that is empty or collides with a live session is
// discarded and regenerated, so an existing principal is never overwritten.
// Create panics if the generator produces no usable token within
// maxCreateAttempts draws.
func (m *Manager[P]) Create(p P) string {
	for i := 0; i < maxCreateAttempts; i++ {
		tok := m.newToken()
		if tok == "" {
			continue
		}

		m.mu.Lock()
		_, taken := m.sessions[tok]
		if !taken {
			m.sessions[tok] = p
		}
		m.mu.Unlock()

		if !taken {
			return tok
		}
	}
	panic(fmt.Sprintf("session: token generator yielded no unused token in %d attempts", maxCreateAttempts))
}

// Get returns the principal stored under token.
// Unknown and empty tokens report ok=false.
func (m *Manager[P]) Get(token string) (p P, ok bool) {
	if token == "" {
		return p, false
	}

	m.mu.Lock()
	p, ok = m.sessions[token]
	m.mu.Unlock()
	return p, ok
}

// Expire removes the session for token. Expiring an unknown token is a no-op.
func (m *Manager[P]) Expire(token string) {
	if token == "" {
		return
	}

	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Len reports the number of live sessions.
func (m *Manager[P]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
