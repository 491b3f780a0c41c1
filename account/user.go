package account

// User is a registered account. PasswordHash is an encoded one-way hash
// (argon2id PHC string); the plaintext never reaches a store.
type User struct {
	Email        Email
	PasswordHash string
	Requires2FA  bool
}

// NewUser assembles a User from already-validated parts.
func NewUser(email Email, passwordHash string, requires2FA bool) User {
	return User{
		Email:        email,
		PasswordHash: passwordHash,
		Requires2FA:  requires2FA,
	}
}
