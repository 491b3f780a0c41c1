package memory

import (
	"context"
	"sync"
	"time"
)

// BannedTokenStore is an in-process revocation set. Each entry remembers
// the token's signed expiry; once that passes the entry reads as absent and
// is dropped on the next write.
type BannedTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
	opts   options
}

func NewBannedTokenStore(opts ...Option) *BannedTokenStore {
	return &BannedTokenStore{
		tokens: make(map[string]time.Time),
		opts:   buildOptions(opts),
	}
}

// AddToken bans token until expiresAt. Re-adding keeps the later expiry.
// A token that has already expired is not recorded.
func (s *BannedTokenStore) AddToken(_ context.Context, token string, expiresAt time.Time) error {
	now := s.opts.now()
	if !expiresAt.After(now) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if prev, ok := s.tokens[token]; !ok || expiresAt.After(prev) {
		s.tokens[token] = expiresAt
	}
	return nil
}

func (s *BannedTokenStore) ContainsToken(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.tokens[token]
	return ok && exp.After(s.opts.now()), nil
}

// Len reports the number of entries currently held, expired or not.
func (s *BannedTokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

func (s *BannedTokenStore) pruneLocked(now time.Time) {
	for token, exp := range s.tokens {
		if !exp.After(now) {
			delete(s.tokens, token)
		}
	}
}
