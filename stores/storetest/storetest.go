// Package storetest holds the behavioural checks every store backend must
// pass. Backend test files call these with a constructor for their own
// implementation, so the in-memory and Redis stores are held to one
// contract.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/authservice/account"
	"github.com/MrEthical07/authservice/stores"
	"github.com/MrEthical07/authservice/twofa"
)

type UserStore interface {
	AddUser(ctx context.Context, user account.User) error
	GetUser(ctx context.Context, email account.Email) (account.User, error)
	ValidateUser(ctx context.Context, email account.Email, password account.Password) error
}

type BannedTokenStore interface {
	AddToken(ctx context.Context, token string, expiresAt time.Time) error
	ContainsToken(ctx context.Context, token string) (bool, error)
}

type TwoFACodeStore interface {
	AddCode(ctx context.Context, email account.Email, id twofa.LoginAttemptID, code twofa.Code) error
	GetCode(ctx context.Context, email account.Email) (twofa.LoginAttemptID, twofa.Code, error)
	TakeCode(ctx context.Context, email account.Email) (twofa.LoginAttemptID, twofa.Code, error)
	RemoveCode(ctx context.Context, email account.Email) error
}

// Clock is the time source a backend under test reads, plus a way to move
// it forward.
type Clock interface {
	Now() time.Time
	Advance(d time.Duration)
}

// FakeVerifier treats "hashed:"+password as the hash of password.
type FakeVerifier struct{}

func (FakeVerifier) Verify(password, encodedHash string) (bool, error) {
	return encodedHash == FakeHash(password), nil
}

// FakeHash is the encoding FakeVerifier accepts.
func FakeHash(password string) string { return "hashed:" + password }

func mustPassword(t *testing.T, s string) account.Password {
	t.Helper()
	p, err := account.ParsePassword(s)
	if err != nil {
		t.Fatalf("ParsePassword(%q) error: %v", s, err)
	}
	return p
}

func mustCode(t *testing.T, s string) twofa.Code {
	t.Helper()
	c, err := twofa.ParseCode(s)
	if err != nil {
		t.Fatalf("ParseCode(%q) error: %v", s, err)
	}
	return c
}

// RunUserStore checks AddUser/GetUser/ValidateUser. The store must verify
// passwords with FakeVerifier.
func RunUserStore(t *testing.T, newStore func(t *testing.T) UserStore) {
	ctx := context.Background()

	t.Run("add then get returns equal user", func(t *testing.T) {
		s := newStore(t)
		for _, tc := range []struct {
			email string
			mfa   bool
		}{
			{"plain@example.com", false},
			{"mfa@example.com", true},
		} {
			email := account.MustParseEmail(tc.email)
			want := account.NewUser(email, FakeHash("password1100"), tc.mfa)
			if err := s.AddUser(ctx, want); err != nil {
				t.Fatalf("AddUser error: %v", err)
			}
			got, err := s.GetUser(ctx, email)
			if err != nil {
				t.Fatalf("GetUser error: %v", err)
			}
			if got != want {
				t.Fatalf("GetUser = %+v, want %+v", got, want)
			}
		}
	})

	t.Run("duplicate email rejected regardless of fields", func(t *testing.T) {
		s := newStore(t)
		email := account.MustParseEmail("dup@example.com")
		if err := s.AddUser(ctx, account.NewUser(email, FakeHash("password1100"), false)); err != nil {
			t.Fatalf("AddUser error: %v", err)
		}
		err := s.AddUser(ctx, account.NewUser(email, FakeHash("another-password"), true))
		if !errors.Is(err, stores.ErrUserAlreadyExists) {
			t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
		}
		got, err := s.GetUser(ctx, email)
		if err != nil {
			t.Fatalf("GetUser error: %v", err)
		}
		if got.Requires2FA || got.PasswordHash != FakeHash("password1100") {
			t.Fatalf("original user was overwritten: %+v", got)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		s := newStore(t)
		email := account.MustParseEmail("nobody@example.com")
		if _, err := s.GetUser(ctx, email); !errors.Is(err, stores.ErrUserNotFound) {
			t.Fatalf("GetUser: expected ErrUserNotFound, got %v", err)
		}
		if err := s.ValidateUser(ctx, email, mustPassword(t, "password1100")); !errors.Is(err, stores.ErrUserNotFound) {
			t.Fatalf("ValidateUser: expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("validate password", func(t *testing.T) {
		s := newStore(t)
		email := account.MustParseEmail("check@example.com")
		if err := s.AddUser(ctx, account.NewUser(email, FakeHash("password1100"), false)); err != nil {
			t.Fatalf("AddUser error: %v", err)
		}
		if err := s.ValidateUser(ctx, email, mustPassword(t, "password1100")); err != nil {
			t.Fatalf("ValidateUser(correct) error: %v", err)
		}
		if err := s.ValidateUser(ctx, email, mustPassword(t, "wrong-password")); !errors.Is(err, stores.ErrInvalidCredentials) {
			t.Fatalf("ValidateUser(wrong): expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("case sensitive lookup", func(t *testing.T) {
		s := newStore(t)
		if err := s.AddUser(ctx, account.NewUser(account.MustParseEmail("case@example.com"), FakeHash("password1100"), false)); err != nil {
			t.Fatalf("AddUser error: %v", err)
		}
		if _, err := s.GetUser(ctx, account.MustParseEmail("Case@example.com")); !errors.Is(err, stores.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound for differently-cased email, got %v", err)
		}
	})

	t.Run("concurrent adds for one email admit exactly one", func(t *testing.T) {
		s := newStore(t)
		email := account.MustParseEmail("race@example.com")

		const workers = 16
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			success int
			dup     int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.AddUser(ctx, account.NewUser(email, FakeHash("password1100"), false))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					success++
				case errors.Is(err, stores.ErrUserAlreadyExists):
					dup++
				default:
					t.Errorf("unexpected AddUser error: %v", err)
				}
			}()
		}
		wg.Wait()
		if success != 1 || dup != workers-1 {
			t.Fatalf("expected 1 success and %d duplicates, got %d and %d", workers-1, success, dup)
		}
	})
}

// RunBannedTokenStore checks AddToken/ContainsToken, including expiry
// driven by clock.
func RunBannedTokenStore(t *testing.T, newStore func(t *testing.T) (BannedTokenStore, Clock)) {
	ctx := context.Background()

	t.Run("empty store contains nothing", func(t *testing.T) {
		s, _ := newStore(t)
		ok, err := s.ContainsToken(ctx, "never-added")
		if err != nil || ok {
			t.Fatalf("ContainsToken = %v, %v; want false, nil", ok, err)
		}
	})

	t.Run("add is idempotent", func(t *testing.T) {
		s, clock := newStore(t)
		exp := clock.Now().Add(10 * time.Minute)
		for i := 0; i < 2; i++ {
			if err := s.AddToken(ctx, "token-a", exp); err != nil {
				t.Fatalf("AddToken #%d error: %v", i+1, err)
			}
		}
		ok, err := s.ContainsToken(ctx, "token-a")
		if err != nil || !ok {
			t.Fatalf("ContainsToken = %v, %v; want true, nil", ok, err)
		}
		if ok, _ := s.ContainsToken(ctx, "token-b"); ok {
			t.Fatal("unrelated token reported as banned")
		}
	})

	t.Run("entry never outlives the token", func(t *testing.T) {
		s, clock := newStore(t)
		if err := s.AddToken(ctx, "short-lived", clock.Now().Add(2*time.Minute)); err != nil {
			t.Fatalf("AddToken error: %v", err)
		}
		clock.Advance(time.Minute)
		if ok, _ := s.ContainsToken(ctx, "short-lived"); !ok {
			t.Fatal("entry expired early")
		}
		clock.Advance(2 * time.Minute)
		if ok, _ := s.ContainsToken(ctx, "short-lived"); ok {
			t.Fatal("entry outlived its token")
		}
	})

	t.Run("already expired token is a no-op", func(t *testing.T) {
		s, clock := newStore(t)
		if err := s.AddToken(ctx, "stale", clock.Now().Add(-time.Second)); err != nil {
			t.Fatalf("AddToken error: %v", err)
		}
		if ok, _ := s.ContainsToken(ctx, "stale"); ok {
			t.Fatal("expired token should not be recorded")
		}
	})
}

// RunTwoFACodeStore checks AddCode/GetCode/TakeCode/RemoveCode. newStore must build a
// store with the given TTL.
func RunTwoFACodeStore(t *testing.T, newStore func(t *testing.T, ttl time.Duration) (TwoFACodeStore, Clock)) {
	ctx := context.Background()
	email := account.MustParseEmail("challenge@example.com")

	t.Run("add then get", func(t *testing.T) {
		s, _ := newStore(t, twofa.DefaultTTL)
		id := twofa.NewLoginAttemptID()
		code := mustCode(t, "123456")
		if err := s.AddCode(ctx, email, id, code); err != nil {
			t.Fatalf("AddCode error: %v", err)
		}
		gotID, gotCode, err := s.GetCode(ctx, email)
		if err != nil {
			t.Fatalf("GetCode error: %v", err)
		}
		if gotID != id || gotCode != code {
			t.Fatalf("GetCode = (%s, %s), want (%s, %s)", gotID, gotCode, id, code)
		}
	})

	t.Run("missing email", func(t *testing.T) {
		s, _ := newStore(t, twofa.DefaultTTL)
		if _, _, err := s.GetCode(ctx, email); !errors.Is(err, stores.ErrLoginAttemptIDNotFound) {
			t.Fatalf("expected ErrLoginAttemptIDNotFound, got %v", err)
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		s, _ := newStore(t, twofa.DefaultTTL)
		first, second := twofa.NewLoginAttemptID(), twofa.NewLoginAttemptID()
		if err := s.AddCode(ctx, email, first, mustCode(t, "111111")); err != nil {
			t.Fatalf("AddCode error: %v", err)
		}
		if err := s.AddCode(ctx, email, second, mustCode(t, "222222")); err != nil {
			t.Fatalf("AddCode error: %v", err)
		}
		gotID, gotCode, err := s.GetCode(ctx, email)
		if err != nil {
			t.Fatalf("GetCode error: %v", err)
		}
		if gotID != second || gotCode.String() != "222222" {
			t.Fatalf("expected second challenge, got (%s, %s)", gotID, gotCode)
		}
	})

	t.Run("remove", func(t *testing.T) {
		s, _ := newStore(t, twofa.DefaultTTL)
		if err := s.AddCode(ctx, email, twofa.NewLoginAttemptID(), mustCode(t, "654321")); err != nil {
			t.Fatalf("AddCode error: %v", err)
		}
		if err := s.RemoveCode(ctx, email); err != nil {
			t.Fatalf("RemoveCode error: %v", err)
		}
		if _, _, err := s.GetCode(ctx, email); !errors.Is(err, stores.ErrLoginAttemptIDNotFound) {
			t.Fatalf("expected ErrLoginAttemptIDNotFound after remove, got %v", err)
		}
		if err := s.RemoveCode(ctx, email); err != nil {
			t.Fatalf("RemoveCode on missing entry error: %v", err)
		}
	})

	t.Run("take is single use", func(t *testing.T) {
		s, _ := newStore(t, twofa.DefaultTTL)
		id := twofa.NewLoginAttemptID()
		code := mustCode(t, "246810")
		if err := s.AddCode(ctx, email, id, code); err != nil {
			t.Fatalf("AddCode error: %v", err)
		}
		gotID, gotCode, err := s.TakeCode(ctx, email)
		if err != nil {
			t.Fatalf("TakeCode error: %v", err)
		}
		if gotID != id || gotCode != code {
			t.Fatalf("TakeCode = (%s, %s), want (%s, %s)", gotID, gotCode, id, code)
		}
		if _, _, err := s.TakeCode(ctx, email); !errors.Is(err, stores.ErrLoginAttemptIDNotFound) {
			t.Fatalf("second TakeCode: expected ErrLoginAttemptIDNotFound, got %v", err)
		}
		if _, _, err := s.GetCode(ctx, email); !errors.Is(err, stores.ErrLoginAttemptIDNotFound) {
			t.Fatalf("GetCode after take: expected ErrLoginAttemptIDNotFound, got %v", err)
		}
	})

	t.Run("concurrent take has one winner", func(t *testing.T) {
		s, _ := newStore(t, twofa.DefaultTTL)
		if err := s.AddCode(ctx, email, twofa.NewLoginAttemptID(), mustCode(t, "135790")); err != nil {
			t.Fatalf("AddCode error: %v", err)
		}
		const takers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < takers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := s.TakeCode(ctx, email)
				switch {
				case err == nil:
					mu.Lock()
					wins++
					mu.Unlock()
				case !errors.Is(err, stores.ErrLoginAttemptIDNotFound):
					t.Errorf("TakeCode error: %v", err)
				}
			}()
		}
		wg.Wait()
		if wins != 1 {
			t.Fatalf("expected exactly one successful take, got %d", wins)
		}
	})

	t.Run("take after ttl", func(t *testing.T) {
		s, clock := newStore(t, twofa.DefaultTTL)
		if err := s.AddCode(ctx, email, twofa.NewLoginAttemptID(), mustCode(t, "975310")); err != nil {
			t.Fatalf("AddCode error: %v", err)
		}
		clock.Advance(twofa.DefaultTTL + time.Second)
		if _, _, err := s.TakeCode(ctx, email); !errors.Is(err, stores.ErrLoginAttemptIDNotFound) {
			t.Fatalf("expected ErrLoginAttemptIDNotFound after ttl, got %v", err)
		}
	})

	t.Run("expires after ttl", func(t *testing.T) {
		s, clock := newStore(t, twofa.DefaultTTL)
		if err := s.AddCode(ctx, email, twofa.NewLoginAttemptID(), mustCode(t, "000000")); err != nil {
			t.Fatalf("AddCode error: %v", err)
		}
		clock.Advance(twofa.DefaultTTL - time.Second)
		if _, _, err := s.GetCode(ctx, email); err != nil {
			t.Fatalf("challenge expired early: %v", err)
		}
		clock.Advance(2 * time.Second)
		if _, _, err := s.GetCode(ctx, email); !errors.Is(err, stores.ErrLoginAttemptIDNotFound) {
			t.Fatalf("expected ErrLoginAttemptIDNotFound after ttl, got %v", err)
		}
	})

	t.Run("challenges are per email", func(t *testing.T) {
		s, _ := newStore(t, twofa.DefaultTTL)
		other := account.MustParseEmail("other@example.com")
		id := twofa.NewLoginAttemptID()
		if err := s.AddCode(ctx, email, id, mustCode(t, "101010")); err != nil {
			t.Fatalf("AddCode error: %v", err)
		}
		if _, _, err := s.GetCode(ctx, other); !errors.Is(err, stores.ErrLoginAttemptIDNotFound) {
			t.Fatalf("expected no challenge for other email, got %v", err)
		}
	})
}

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
