package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/authservice/internal"
	"github.com/MrEthical07/authservice/stores"
	goredis "github.com/redis/go-redis/v9"
)

const defaultBannedTokenPrefix = "banned_token"

// BannedTokenStore records revoked session tokens as expiring keys.
type BannedTokenStore struct {
	redis  goredis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewBannedTokenStore uses prefix for keys; empty selects "banned_token".
func NewBannedTokenStore(client goredis.UniversalClient, prefix string) *BannedTokenStore {
	if prefix == "" {
		prefix = defaultBannedTokenPrefix
	}
	return &BannedTokenStore{
		redis:  client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *BannedTokenStore) key(token string) string {
	return s.prefix + ":" + internal.Fingerprint(token)
}

// AddToken bans token for the rest of its life. SET overwrites, so a
// repeated call only refreshes the TTL to the same deadline.
func (s *BannedTokenStore) AddToken(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, s.key(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", stores.ErrUnexpected, err)
	}
	return nil
}

func (s *BannedTokenStore) ContainsToken(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", stores.ErrUnexpected, err)
	}
	return n > 0, nil
}
