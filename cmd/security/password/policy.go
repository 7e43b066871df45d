package password

import (
	"strings"
	"unicode/utf8"
)

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "12345678": {}, "123456789": {},
	"qwerty": {}, "qwerty123": {}, "letmein": {}, "iloveyou": {},
}

// Validate checks password against the policy. Length counts runes.
func (c Config) Validate(password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrPasswordBlank
	}

	n := utf8.RuneCountInString(password)
	if n < c.Policy.MinLength {
		return ErrPasswordTooShort
	}
	if n > c.Policy.MaxLength {
		return ErrPasswordTooLong
	}

	if c.Policy.RejectVeryWeak && veryWeak(password) {
		return ErrWeakPassword
	}
	return nil
}

func veryWeak(pw string) bool {
	if _, ok := commonPasswords[strings.ToLower(pw)]; ok {
		return true
	}
	first, _ := utf8.DecodeRuneInString(pw)
	return strings.Trim(pw, string(first)) == ""
}
