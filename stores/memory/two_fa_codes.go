package memory

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/authservice/account"
	"github.com/MrEthical07/authservice/stores"
	"github.com/MrEthical07/authservice/twofa"
)

// TwoFACodeStore keeps at most one challenge per email. Entries older than
// the store TTL are reported as missing.
type TwoFACodeStore struct {
	mu         sync.RWMutex
	challenges map[account.Email]twofa.Challenge
	ttl        time.Duration
	opts       options
}

// NewTwoFACodeStore returns a store with the given TTL; ttl <= 0 selects
// twofa.DefaultTTL.
func NewTwoFACodeStore(ttl time.Duration, opts ...Option) *TwoFACodeStore {
	if ttl <= 0 {
		ttl = twofa.DefaultTTL
	}
	return &TwoFACodeStore{
		challenges: make(map[account.Email]twofa.Challenge),
		ttl:        ttl,
		opts:       buildOptions(opts),
	}
}

// AddCode replaces any existing challenge for email.
func (s *TwoFACodeStore) AddCode(_ context.Context, email account.Email, id twofa.LoginAttemptID, code twofa.Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[email] = twofa.Challenge{
		AttemptID: id,
		Code:      code,
		CreatedAt: s.opts.now(),
	}
	return nil
}

func (s *TwoFACodeStore) GetCode(_ context.Context, email account.Email) (twofa.LoginAttemptID, twofa.Code, error) {
	s.mu.RLock()
	c, ok := s.challenges[email]
	s.mu.RUnlock()

	if !ok || s.opts.now().Sub(c.CreatedAt) >= s.ttl {
		return twofa.LoginAttemptID{}, twofa.Code{}, stores.ErrLoginAttemptIDNotFound
	}
	return c.AttemptID, c.Code, nil
}

// TakeCode returns the challenge and deletes it under the write lock. An
// expired entry is deleted too and reported as missing.
func (s *TwoFACodeStore) TakeCode(_ context.Context, email account.Email) (twofa.LoginAttemptID, twofa.Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[email]
	if !ok {
		return twofa.LoginAttemptID{}, twofa.Code{}, stores.ErrLoginAttemptIDNotFound
	}
	delete(s.challenges, email)
	if s.opts.now().Sub(c.CreatedAt) >= s.ttl {
		return twofa.LoginAttemptID{}, twofa.Code{}, stores.ErrLoginAttemptIDNotFound
	}
	return c.AttemptID, c.Code, nil
}

func (s *TwoFACodeStore) RemoveCode(_ context.Context, email account.Email) error {
	s.mu.Lock()
	delete(s.challenges, email)
	s.mu.Unlock()
	return nil
}
