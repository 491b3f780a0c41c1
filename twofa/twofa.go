package twofa

import (
	"errors"
	"time"

	"github.com/MrEthical07/authservice/internal"
	"github.com/google/uuid"
)

const (
	// CodeDigits is the length of a Code.
	CodeDigits = 6
	// DefaultTTL bounds how long a stored challenge stays retrievable.
	DefaultTTL = 600 * time.Second
)

var (
	ErrInvalidLoginAttemptID = errors.New("invalid login attempt id")
	ErrInvalidCode           = errors.New("invalid 2fa code")
)

// LoginAttemptID is a UUID in canonical lowercase form.
type LoginAttemptID struct {
	value string
}

// NewLoginAttemptID returns a random (v4) id.
func NewLoginAttemptID() LoginAttemptID {
	return LoginAttemptID{value: uuid.NewString()}
}

// ParseLoginAttemptID accepts any form uuid.Parse does and canonicalizes it.
func ParseLoginAttemptID(s string) (LoginAttemptID, error) {
	if s == "" {
		return LoginAttemptID{}, ErrInvalidLoginAttemptID
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return LoginAttemptID{}, ErrInvalidLoginAttemptID
	}
	return LoginAttemptID{value: id.String()}, nil
}

func (id LoginAttemptID) String() string { return id.value }

// Code is a single-use numeric code.
type Code struct {
	value string
}

// NewCode draws CodeDigits digits from crypto/rand.
func NewCode() (Code, error) {
	otp, err := internal.NewOTP(CodeDigits)
	if err != nil {
		return Code{}, err
	}
	return Code{value: otp}, nil
}

// ParseCode requires exactly CodeDigits ASCII digits.
func ParseCode(s string) (Code, error) {
	if len(s) != CodeDigits {
		return Code{}, ErrInvalidCode
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return Code{}, ErrInvalidCode
		}
	}
	return Code{value: s}, nil
}

func (c Code) String() string { return c.value }

// Challenge is the stored half of a pending second factor.
type Challenge struct {
	AttemptID LoginAttemptID
	Code      Code
	CreatedAt time.Time
}
