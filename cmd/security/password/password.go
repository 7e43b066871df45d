package password

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Hash validates password against the policy and returns its PHC encoding.
func (c Config) Hash(password string) (string, error) {
	if err := c.Validate(password); err != nil {
		return "", err
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := derive(password, salt, c.Params)
	return encode(c.Params, salt, key), nil
}

// Verify reports whether password matches encodedHash.
// A malformed or out-of-bounds hash yields (false, ErrInvalidHash).
func (c Config) Verify(encodedHash, password string) (bool, error) {
	p, salt, want, err := decode(encodedHash)
	if err != nil {
		return false, err
	}
	if !c.acceptable(p) {
		return false, ErrInvalidHash
	}

	got := derive(password, salt, p)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// NeedsRehash reports whether encodedHash was produced with weaker
// parameters than the current config.
func (c Config) NeedsRehash(encodedHash string) bool {
	p, _, _, err := decode(encodedHash)
	if err != nil {
		return true
	}
	return p.MemoryKiB < c.Params.MemoryKiB ||
		p.Iterations < c.Params.Iterations ||
		p.KeyLength < c.Params.KeyLength
}

// DummyHash returns a valid hash of a random secret, for spending the same
// verify cost when no stored hash exists.
func (c Config) DummyHash() string {
	salt := make([]byte, c.Params.SaltLength)
	secret := make([]byte, 16)
	_, _ = rand.Read(salt)
	_, _ = rand.Read(secret)
	return encode(c.Params, salt, derive(string(secret), salt, c.Params))
}

func derive(password string, salt []byte, p Params) []byte {
	return argon2.IDKey([]byte(password), salt, p.Iterations, p.MemoryKiB, p.Parallelism, p.KeyLength)
}

// acceptable bounds stored parameters to twice the configured cost.
func (c Config) acceptable(p Params) bool {
	switch {
	case p.MemoryKiB > c.Params.MemoryKiB*2:
		return false
	case p.Iterations > c.Params.Iterations*2:
		return false
	case uint32(p.Parallelism) > uint32(c.Params.Parallelism)*2:
		return false
	case p.SaltLength < 8 || p.SaltLength > 64:
		return false
	case p.KeyLength < 16 || p.KeyLength > 128:
		return false
	}
	return true
}
