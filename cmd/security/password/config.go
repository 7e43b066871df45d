package password

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Params controls Argon2id cost. MemoryKiB is in KiB as argon2.IDKey expects.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy bounds what a member may choose as a password.
type Policy struct {
	MinLength int
	MaxLength int
	// RejectVeryWeak refuses single-character repeats and a short list of
	// well-known passwords.
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Params
	Policy Policy
}

// DefaultConfig returns the OWASP baseline for Argon2id (19 MiB, t=2, p=1)
// and a policy loose enough for the demo account.
func DefaultConfig() Config {
	return Config{
		Params: Params{
			MemoryKiB:   19 * 1024,
			Iterations:  2,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength: 4,
			MaxLength: 128,
		},
	}
}

type u32Setting struct {
	env      string
	min, max uint32
	dst      *uint32
}

// FromEnv loads config from environment variables.
//
// Env surface:
//   - HELLO_PASSWORD_MIN_LEN
//   - HELLO_PASSWORD_MAX_LEN
//   - HELLO_PASSWORD_REJECT_VERY_WEAK
//   - HELLO_ARGON2_MEMORY_KIB
//   - HELLO_ARGON2_ITERATIONS
//   - HELLO_ARGON2_PARALLELISM
//   - HELLO_ARGON2_SALT_LEN
//   - HELLO_ARGON2_KEY_LEN
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v, ok := lookup("HELLO_PASSWORD_MIN_LEN"); ok {
		n, err := parseInt(v, 1, 1024)
		if err != nil {
			return Config{}, fmt.Errorf("HELLO_PASSWORD_MIN_LEN: %w", err)
		}
		cfg.Policy.MinLength = n
	}
	if v, ok := lookup("HELLO_PASSWORD_MAX_LEN"); ok {
		n, err := parseInt(v, 1, 4096)
		if err != nil {
			return Config{}, fmt.Errorf("HELLO_PASSWORD_MAX_LEN: %w", err)
		}
		cfg.Policy.MaxLength = n
	}
	if v, ok := lookup("HELLO_PASSWORD_REJECT_VERY_WEAK"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("HELLO_PASSWORD_REJECT_VERY_WEAK: invalid boolean")
		}
		cfg.Policy.RejectVeryWeak = b
	}

	parallelism := uint32(cfg.Params.Parallelism)
	settings := []u32Setting{
		{env: "HELLO_ARGON2_MEMORY_KIB", min: 8 * 1024, max: 1024 * 1024, dst: &cfg.Params.MemoryKiB},
		{env: "HELLO_ARGON2_ITERATIONS", min: 1, max: 20, dst: &cfg.Params.Iterations},
		{env: "HELLO_ARGON2_PARALLELISM", min: 1, max: math.MaxUint8, dst: &parallelism},
		{env: "HELLO_ARGON2_SALT_LEN", min: 8, max: 64, dst: &cfg.Params.SaltLength},
		{env: "HELLO_ARGON2_KEY_LEN", min: 16, max: 64, dst: &cfg.Params.KeyLength},
	}
	for _, s := range settings {
		v, ok := lookup(s.env)
		if !ok {
			continue
		}
		u, err := parseUint32(v, s.min, s.max)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", s.env, err)
		}
		*s.dst = u
	}
	cfg.Params.Parallelism = uint8(parallelism) // #nosec G115 -- bounded to MaxUint8 above.

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength,
			cfg.Policy.MaxLength,
		)
	}

	return cfg, nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func parseInt(s string, minVal, maxVal int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}
	if n < minVal || n > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return n, nil
}

func parseUint32(s string, minVal, maxVal uint32) (uint32, error) {
	u64, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer")
	}
	u := uint32(u64)
	if u < minVal || u > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return u, nil
}
