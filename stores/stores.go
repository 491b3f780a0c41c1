// Package stores defines the error vocabulary shared by every store
// implementation. Backends live in the memory, postgres and redis
// sub-packages; all of them report failures through the sentinels below so
// the engine can map them without knowing which backend is in use.
package stores

import "errors"

var (
	// ErrUserAlreadyExists is returned by AddUser when the email is taken.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no user has the given email.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned by ValidateUser on a password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginAttemptIDNotFound is returned by GetCode when no live challenge exists.
	ErrLoginAttemptIDNotFound = errors.New("login attempt id not found")
	// ErrUnexpected wraps any backend failure: I/O, decoding, driver errors.
	ErrUnexpected = errors.New("unexpected store error")
)

// PasswordVerifier checks a plaintext password against a stored hash.
// password.Argon2 satisfies it.
type PasswordVerifier interface {
	Verify(password string, encodedHash string) (bool, error)
}
