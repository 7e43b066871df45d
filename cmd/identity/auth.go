package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gltdhd/Spring-MVC-2/cmd/security/password"
)

// Authenticator registers members and checks their credentials.
type Authenticator struct {
	store Store
	pw    password.Config
	dummy string
}

// NewAuthenticator builds an Authenticator over store with pw policy and cost.
func NewAuthenticator(store Store, pw password.Config) *Authenticator {
	return &Authenticator{store: store, pw: pw, dummy: pw.DummyHash()}
}

// RegisterInput is the member sign-up form.
type RegisterInput struct {
	LoginID  string `json:"loginId"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register validates in, hashes the password and saves the member.
// Field problems come back as FieldError; a taken login id as ConflictError.
func (a *Authenticator) Register(ctx context.Context, in RegisterInput) (Member, error) {
	const op = "identity.Register"

	loginID := NormalizeLoginID(in.LoginID)
	name := strings.TrimSpace(in.Name)

	switch {
	case loginID == "":
		return Member{}, FieldError{Op: op, Field: "loginId", Msg: "login id is required"}
	case name == "":
		return Member{}, FieldError{Op: op, Field: "name", Msg: "name is required"}
	}

	hash, err := a.pw.Hash(in.Password)
	if err != nil {
		if msg, ok := passwordPolicyMessage(err); ok {
			return Member{}, FieldError{Op: op, Field: "password", Msg: msg}
		}
		return Member{}, err
	}

	return a.store.Save(ctx, NewMember{LoginID: loginID, Name: name, PasswordHash: hash})
}

// Login returns the member whose login id and password match.
//
// No match (unknown login id or wrong password) is ok=false with a nil
// error. err is reserved for store failures and corrupt stored hashes.
func (a *Authenticator) Login(ctx context.Context, loginID, plain string) (Member, bool, error) {
	m, err := a.store.FindByLoginID(ctx, NormalizeLoginID(loginID))
	if IsNotFound(err) {
		_, _ = a.pw.Verify(a.dummy, plain)
		return Member{}, false, nil
	}
	if err != nil {
		return Member{}, false, err
	}

	ok, err := a.pw.Verify(m.PasswordHash, plain)
	if err != nil {
		return Member{}, false, fmt.Errorf("identity.Login: member %d: %w", m.ID, err)
	}
	if !ok {
		return Member{}, false, nil
	}

	if a.pw.NeedsRehash(m.PasswordHash) {
		if h, err := a.pw.Hash(plain); err == nil {
			if a.store.UpdatePasswordHash(ctx, m.ID, h) == nil {
				m.PasswordHash = h
			}
		}
	}
	return m, true, nil
}

func passwordPolicyMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, password.ErrPasswordBlank):
		return "password is required", true
	case errors.Is(err, password.ErrPasswordTooShort):
		return "password is too short", true
	case errors.Is(err, password.ErrPasswordTooLong):
		return "password is too long", true
	case errors.Is(err, password.ErrWeakPassword):
		return "password is too weak", true
	}
	return "", false
}
