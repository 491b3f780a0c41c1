package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrEthical07/authservice/account"
	"github.com/MrEthical07/authservice/stores"
)

// UserStore is a map-backed credential store.
type UserStore struct {
	mu       sync.RWMutex
	users    map[account.Email]account.User
	verifier stores.PasswordVerifier
}

// NewUserStore returns an empty store that checks passwords with verifier.
func NewUserStore(verifier stores.PasswordVerifier) *UserStore {
	return &UserStore{
		users:    make(map[account.Email]account.User),
		verifier: verifier,
	}
}

// AddUser inserts user unless its email is already registered. The check
// and the insert happen under one write lock.
func (s *UserStore) AddUser(_ context.Context, user account.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Email]; exists {
		return stores.ErrUserAlreadyExists
	}
	s.users[user.Email] = user
	return nil
}

func (s *UserStore) GetUser(_ context.Context, email account.Email) (account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok {
		return account.User{}, stores.ErrUserNotFound
	}
	return user, nil
}

// ValidateUser returns ErrUserNotFound for an unknown email and
// ErrInvalidCredentials for a wrong password.
func (s *UserStore) ValidateUser(ctx context.Context, email account.Email, password account.Password) error {
	user, err := s.GetUser(ctx, email)
	if err != nil {
		return err
	}
	if s.verifier == nil {
		return fmt.Errorf("%w: no password verifier configured", stores.ErrUnexpected)
	}

	ok, err := s.verifier.Verify(password.Expose(), user.PasswordHash)
	if err != nil {
		return fmt.Errorf("%w: %v", stores.ErrUnexpected, err)
	}
	if !ok {
		return stores.ErrInvalidCredentials
	}
	return nil
}

// Len reports the number of registered users.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

