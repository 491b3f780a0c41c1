package authservice

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func loginToken(t *testing.T, env *testEnv) (string, time.Time) {
	t.Helper()
	env.signup(t, "a@b.com", "password1100", false)
	res, err := env.engine.Login(context.Background(), "a@b.com", "password1100")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return res.Token, res.ExpiresAt
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	token, _ := loginToken(t, env)
	ctx := context.Background()

	if err := env.engine.Logout(ctx, token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := env.engine.VerifyToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected revoked token to be invalid, got %v", err)
	}
	// A revoked token cannot be logged out again.
	if err := env.engine.Logout(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("second logout: expected ErrInvalidToken, got %v", err)
	}
	if got := env.banned.adds.Load(); got != 1 {
		t.Fatalf("AddToken calls = %d, want 1", got)
	}
}

func TestLogoutRevocationOutlivesLeeway(t *testing.T) {
	leeway := withConfig(func(c *Config) { c.JWT.Leeway = time.Minute })
	ctx := context.Background()

	t.Run("logout before expiry", func(t *testing.T) {
		env := newTestEnv(t, leeway)
		token, exp := loginToken(t, env)

		env.clock.Advance(exp.Sub(env.clock.Now()) - 5*time.Second)
		if err := env.engine.Logout(ctx, token); err != nil {
			t.Fatalf("Logout: %v", err)
		}
		// Past exp but still inside the leeway Parse allows.
		env.clock.Advance(30 * time.Second)
		if addr, err := env.engine.VerifyToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected revoked token to stay invalid, got %v (%s)", err, addr)
		}
	})

	t.Run("logout inside leeway", func(t *testing.T) {
		env := newTestEnv(t, leeway)
		token, exp := loginToken(t, env)

		env.clock.Advance(exp.Sub(env.clock.Now()) + 10*time.Second)
		if err := env.engine.Logout(ctx, token); err != nil {
			t.Fatalf("Logout: %v", err)
		}
		if addr, err := env.engine.VerifyToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected logged out token to be invalid, got %v (%s)", err, addr)
		}
		env.clock.Advance(45 * time.Second)
		if _, err := env.engine.VerifyToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected token to stay invalid until the leeway ends, got %v", err)
		}
	})
}

func TestLogoutRejectsBadTokensWithoutTouchingStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.engine.Logout(ctx, ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("empty: expected ErrMissingToken, got %v", err)
	}
	if err := env.engine.Logout(ctx, "not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: expected ErrInvalidToken, got %v", err)
	}
	if env.banned.adds.Load() != 0 || env.banned.contains.Load() != 0 {
		t.Fatal("revocation store must not be touched for unverifiable tokens")
	}
}

func TestRevocationLookupOnlyAfterSignatureAndExpiry(t *testing.T) {
	env := newTestEnv(t)
	token, _ := loginToken(t, env)
	ctx := context.Background()

	tampered := token[:len(token)-2] + "xx"
	if _, err := env.engine.VerifyToken(ctx, tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered: expected ErrInvalidToken, got %v", err)
	}
	if env.banned.contains.Load() != 0 {
		t.Fatal("tampered token must not reach the revocation store")
	}

	env.clock.Advance(11 * time.Minute)
	if _, err := env.engine.VerifyToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired: expected ErrInvalidToken, got %v", err)
	}
	if env.banned.contains.Load() != 0 {
		t.Fatal("expired token must not reach the revocation store")
	}
}

func TestVerifyTokenRevocationBackendDown(t *testing.T) {
	env := newTestEnv(t)
	token, _ := loginToken(t, env)
	env.banned.fail = errBackendDown

	if _, err := env.engine.VerifyToken(context.Background(), token); !errors.Is(err, ErrUnexpected) {
		t.Fatalf("expected ErrUnexpected, got %v", err)
	}
	if err := env.engine.Logout(context.Background(), token); !errors.Is(err, ErrUnexpected) {
		t.Fatalf("Logout: expected ErrUnexpected, got %v", err)
	}
}

func TestVerifyTokenFromOtherKey(t *testing.T) {
	env := newTestEnv(t)
	other := newTestEnv(t, withConfig(func(c *Config) {
		c.JWT.PrivateKey = []byte("ffffffffffffffffffffffffffffffff")
	}))
	token, _ := loginToken(t, other)

	if _, err := env.engine.VerifyToken(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSessionCookieAttributes(t *testing.T) {
	env := newTestEnv(t)
	token, exp := loginToken(t, env)

	c := env.engine.SessionCookie(token, exp)
	if c.Name != "jwt" || c.Value != token || c.Path != "/" {
		t.Fatalf("unexpected cookie: %+v", c)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("missing security attributes: %+v", c)
	}
	if !c.Expires.Equal(exp) {
		t.Fatalf("cookie expiry %s != token expiry %s", c.Expires, exp)
	}

	cleared := env.engine.ClearSessionCookie()
	if cleared.Name != "jwt" || cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Fatalf("unexpected clear cookie: %+v", cleared)
	}
}

func TestSessionCookieHonoursConfig(t *testing.T) {
	env := newTestEnv(t, withConfig(func(c *Config) {
		c.Cookie.Name = "sid"
		c.Cookie.Domain = "example.com"
		c.Cookie.Secure = false
		c.Cookie.SameSite = http.SameSiteStrictMode
	}))

	c := env.engine.SessionCookie("t", time.Now())
	if c.Name != "sid" || c.Domain != "example.com" || c.Secure || c.SameSite != http.SameSiteStrictMode || !c.HttpOnly {
		t.Fatalf("unexpected cookie: %+v", c)
	}
	if env.engine.SessionCookieName() != "sid" {
		t.Fatal("SessionCookieName mismatch")
	}
}

func TestVerifyTokenLatencyObserved(t *testing.T) {
	env := newTestEnv(t)
	token, _ := loginToken(t, env)

	for i := 0; i < 3; i++ {
		if _, err := env.engine.VerifyToken(context.Background(), token); err != nil {
			t.Fatalf("VerifyToken: %v", err)
		}
	}

	var total uint64
	for _, n := range env.engine.MetricsSnapshot().Histograms[MetricVerifyTokenLatency] {
		total += n
	}
	if total != 3 {
		t.Fatalf("latency samples = %d, want 3", total)
	}
}
