package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return New(rdb, cfg), mr
}

func testConfig() Config {
	return Config{
		MaxLoginAttempts:      3,
		LoginCooldownDuration: time.Minute,
		MaxTwoFAAttempts:      2,
		TwoFACooldownDuration: time.Minute,
	}
}

func TestLoginBudget(t *testing.T) {
	l, _ := newTestLimiter(t, testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckLogin(ctx, "a@b.com", ""); err != nil {
			t.Fatalf("attempt %d: unexpected %v", i, err)
		}
		if err := l.IncrementLogin(ctx, "a@b.com", ""); err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
	}
	if err := l.CheckLogin(ctx, "a@b.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := l.CheckLogin(ctx, "other@b.com", ""); err != nil {
		t.Fatalf("other email should not be limited: %v", err)
	}
}

func TestLoginWindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t, testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = l.IncrementLogin(ctx, "a@b.com", "")
	}
	if ttl := mr.TTL("al:a@b.com"); ttl != time.Minute {
		t.Fatalf("window TTL = %s, want 1m", ttl)
	}
	mr.FastForward(time.Minute + time.Second)
	if err := l.CheckLogin(ctx, "a@b.com", ""); err != nil {
		t.Fatalf("expected window to reset, got %v", err)
	}
}

func TestResetLogin(t *testing.T) {
	l, _ := newTestLimiter(t, testConfig())
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "a@b.com", "")
	_ = l.IncrementLogin(ctx, "a@b.com", "")
	if n, _ := l.LoginAttempts(ctx, "a@b.com"); n != 2 {
		t.Fatalf("attempts = %d, want 2", n)
	}
	if err := l.ResetLogin(ctx, "a@b.com"); err != nil {
		t.Fatalf("ResetLogin: %v", err)
	}
	if n, _ := l.LoginAttempts(ctx, "a@b.com"); n != 0 {
		t.Fatalf("attempts after reset = %d, want 0", n)
	}
}

func TestIPThrottle(t *testing.T) {
	cfg := testConfig()
	cfg.EnableIPThrottle = true
	l, mr := newTestLimiter(t, cfg)
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "a@b.com", "203.0.113.9")
	_ = l.IncrementLogin(ctx, "b@b.com", "203.0.113.9")
	_ = l.IncrementLogin(ctx, "c@b.com", "203.0.113.9")

	if !mr.Exists("ali:203.0.113.9") {
		t.Fatal("expected per-IP counter")
	}
	if err := l.CheckLogin(ctx, "d@b.com", "203.0.113.9"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected IP to be limited, got %v", err)
	}
	if err := l.CheckLogin(ctx, "d@b.com", "198.51.100.1"); err != nil {
		t.Fatalf("other IP should pass: %v", err)
	}
}

func TestTwoFABudget(t *testing.T) {
	l, _ := newTestLimiter(t, testConfig())
	ctx := context.Background()

	_ = l.IncrementTwoFA(ctx, "a@b.com")
	if err := l.CheckTwoFA(ctx, "a@b.com"); err != nil {
		t.Fatalf("one failure should pass: %v", err)
	}
	_ = l.IncrementTwoFA(ctx, "a@b.com")
	if err := l.CheckTwoFA(ctx, "a@b.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	_ = l.ResetTwoFA(ctx, "a@b.com")
	if err := l.CheckTwoFA(ctx, "a@b.com"); err != nil {
		t.Fatalf("expected reset, got %v", err)
	}
}

func TestRedisDown(t *testing.T) {
	l, mr := newTestLimiter(t, testConfig())
	mr.Close()

	if err := l.CheckLogin(context.Background(), "a@b.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if err := l.IncrementLogin(context.Background(), "a@b.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
