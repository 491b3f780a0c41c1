package account

import (
	"errors"
	"unicode/utf8"
)

// MinPasswordLength is the minimum number of characters in a Password.
const MinPasswordLength = 8

// ErrInvalidPassword is returned by ParsePassword when the policy is not met.
var ErrInvalidPassword = errors.New("invalid password")

// Password is plaintext credential material that passed the length policy.
// It is only held for the duration of a request and is never stored.
type Password struct {
	secret string
}

// ParsePassword enforces the minimum length, counted in characters.
func ParsePassword(s string) (Password, error) {
	if utf8.RuneCountInString(s) < MinPasswordLength {
		return Password{}, ErrInvalidPassword
	}
	return Password{secret: s}, nil
}

// Expose returns the plaintext. Callers hand it to a hasher and drop it.
func (p Password) Expose() string { return p.secret }

// String keeps the secret out of logs and fmt output.
func (p Password) String() string { return "[REDACTED]" }
