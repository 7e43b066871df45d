package session

import "context"

// Backend is the session store seen by transport code.
//
// Get must report an unknown token as ok=false with a nil error; err is
// reserved for storage failures. Expire is idempotent.
type Backend[P any] interface {
	Create(ctx context.Context, p P) (token string, err error)
	Get(ctx context.Context, token string) (p P, ok bool, err error)
	Expire(ctx context.Context, token string) error
}

// Local serves a Manager through the Backend interface. It never returns errors.
type Local[P any] struct {
	m *Manager[P]
}

// NewLocal wraps m. A nil m gets a fresh Manager.
func NewLocal[P any](m *Manager[P]) *Local[P] {
	if m == nil {
		m = NewManager[P]()
	}
	return &Local[P]{m: m}
}

// Manager returns the underlying store.
func (l *Local[P]) Manager() *Manager[P] { return l.m }

func (l *Local[P]) Create(_ context.Context, p P) (string, error) {
	return l.m.Create(p), nil
}

func (l *Local[P]) Get(_ context.Context, token string) (P, bool, error) {
	p, ok := l.m.Get(token)
	return p, ok, nil
}

func (l *Local[P]) Expire(_ context.Context, token string) error {
	l.m.Expire(token)
	return nil
}
