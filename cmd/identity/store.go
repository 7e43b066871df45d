package identity

import "context"

// Member is a registered user and the principal kept in a login session.
type Member struct {
	ID           int64  `json:"id"`
	LoginID      string `json:"loginId"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
}

// Redacted returns m without credential material.
func (m Member) Redacted() Member {
	m.PasswordHash = ""
	return m
}

// NewMember is the input to Store.Save. LoginID must already be normalized
// and PasswordHash already computed.
type NewMember struct {
	LoginID      string
	Name         string
	PasswordHash string
}

// Store is the member persistence boundary.
//
// Lookups of a missing member return a NotFoundError. Save returns a
// ConflictError with Field "loginId" when the login id is taken.
type Store interface {
	Save(ctx context.Context, in NewMember) (Member, error)
	FindByID(ctx context.Context, id int64) (Member, error)
	FindByLoginID(ctx context.Context, loginID string) (Member, error)
	FindAll(ctx context.Context) ([]Member, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}
