package password

import "testing"

var envKeys = []string{
	"HELLO_PASSWORD_MIN_LEN",
	"HELLO_PASSWORD_MAX_LEN",
	"HELLO_PASSWORD_REJECT_VERY_WEAK",
	"HELLO_ARGON2_MEMORY_KIB",
	"HELLO_ARGON2_ITERATIONS",
	"HELLO_ARGON2_PARALLELISM",
	"HELLO_ARGON2_SALT_LEN",
	"HELLO_ARGON2_KEY_LEN",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestFromEnv_Override(t *testing.T) {
	clearEnv(t)
	t.Setenv("HELLO_PASSWORD_MIN_LEN", "10")
	t.Setenv("HELLO_PASSWORD_MAX_LEN", "200")
	t.Setenv("HELLO_PASSWORD_REJECT_VERY_WEAK", "true")
	t.Setenv("HELLO_ARGON2_MEMORY_KIB", "32768")
	t.Setenv("HELLO_ARGON2_ITERATIONS", "4")
	t.Setenv("HELLO_ARGON2_PARALLELISM", "2")
	t.Setenv("HELLO_ARGON2_SALT_LEN", "24")
	t.Setenv("HELLO_ARGON2_KEY_LEN", "48")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	if cfg.Policy.MinLength != 10 || cfg.Policy.MaxLength != 200 || !cfg.Policy.RejectVeryWeak {
		t.Fatalf("policy override failed: %+v", cfg.Policy)
	}
	want := Params{MemoryKiB: 32768, Iterations: 4, Parallelism: 2, SaltLength: 24, KeyLength: 48}
	if cfg.Params != want {
		t.Fatalf("params=%+v want=%+v", cfg.Params, want)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := []struct {
		key, val string
	}{
		{key: "HELLO_PASSWORD_MIN_LEN", val: "zero"},
		{key: "HELLO_PASSWORD_REJECT_VERY_WEAK", val: "maybe"},
		{key: "HELLO_ARGON2_MEMORY_KIB", val: "1024"},
		{key: "HELLO_ARGON2_ITERATIONS", val: "99"},
		{key: "HELLO_ARGON2_PARALLELISM", val: "300"},
		{key: "HELLO_ARGON2_SALT_LEN", val: "-1"},
	}
	for _, tc := range cases {
		clearEnv(t)
		t.Setenv(tc.key, tc.val)
		if _, err := FromEnv(); err == nil {
			t.Fatalf("%s=%q: expected error", tc.key, tc.val)
		}
	}
}

func TestFromEnv_InvalidMinMax(t *testing.T) {
	clearEnv(t)
	t.Setenv("HELLO_PASSWORD_MIN_LEN", "20")
	t.Setenv("HELLO_PASSWORD_MAX_LEN", "10")

	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error")
	}
}
