package account

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidEmail is returned by ParseEmail for empty or non-RFC-shaped input.
var ErrInvalidEmail = errors.New("invalid email")

var validate = validator.New()

// Email is a validated address. The zero value is not a valid Email.
type Email struct {
	value string
}

// ParseEmail checks s against the validator "email" rule.
func ParseEmail(s string) (Email, error) {
	if err := validate.Var(s, "required,email"); err != nil {
		return Email{}, ErrInvalidEmail
	}
	return Email{value: s}, nil
}

// MustParseEmail is ParseEmail for constants and tests. It panics on bad input.
func MustParseEmail(s string) Email {
	e, err := ParseEmail(s)
	if err != nil {
		panic("account: " + err.Error() + ": " + s)
	}
	return e
}

func (e Email) String() string { return e.value }

// IsZero reports whether e was never parsed.
func (e Email) IsZero() bool { return e.value == "" }
