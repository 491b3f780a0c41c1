package authservice

import (
	"context"
	"time"

	"github.com/MrEthical07/authservice/account"
	"github.com/MrEthical07/authservice/twofa"
)

// UserStore is the credential store. Implementations report
// stores.ErrUserAlreadyExists, stores.ErrUserNotFound and
// stores.ErrInvalidCredentials, and wrap everything else in
// stores.ErrUnexpected.
type UserStore interface {
	AddUser(ctx context.Context, user account.User) error
	GetUser(ctx context.Context, email account.Email) (account.User, error)
	ValidateUser(ctx context.Context, email account.Email, password account.Password) error
}

// BannedTokenStore holds revoked session tokens until their own expiry.
// AddToken must be idempotent.
type BannedTokenStore interface {
	AddToken(ctx context.Context, token string, expiresAt time.Time) error
	ContainsToken(ctx context.Context, token string) (bool, error)
}

// TwoFACodeStore keeps at most one pending challenge per email. A second
// AddCode replaces the first. GetCode and TakeCode return
// stores.ErrLoginAttemptIDNotFound once the challenge is gone or expired.
// TakeCode reads and deletes in one step: of several concurrent callers at
// most one receives the challenge.
type TwoFACodeStore interface {
	AddCode(ctx context.Context, email account.Email, id twofa.LoginAttemptID, code twofa.Code) error
	GetCode(ctx context.Context, email account.Email) (twofa.LoginAttemptID, twofa.Code, error)
	TakeCode(ctx context.Context, email account.Email) (twofa.LoginAttemptID, twofa.Code, error)
	RemoveCode(ctx context.Context, email account.Email) error
}

// Notifier delivers a message to an account out of band.
type Notifier interface {
	Send(ctx context.Context, recipient account.Email, subject, body string) error
}

// LoginState is a step of the login state machine.
type LoginState uint8

const (
	StateStart LoginState = iota
	StateCredentialsChecked
	StateChallengeIssued
	StateVerified
	StateAuthenticated
)

func (s LoginState) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateCredentialsChecked:
		return "credentials_checked"
	case StateChallengeIssued:
		return "challenge_issued"
	case StateVerified:
		return "verified"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// LoginResult is the terminal state of Login or VerifyTwoFA.
//
// When State is StateAuthenticated, Token and ExpiresAt are set. When it is
// StateChallengeIssued, only LoginAttemptID is set; the code itself is only
// ever handed to the Notifier.
type LoginResult struct {
	State          LoginState
	Email          account.Email
	Token          string
	ExpiresAt      time.Time
	LoginAttemptID string
}
