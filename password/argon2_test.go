package password

import (
	"errors"
	"strings"
	"testing"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Memory = minMemoryKB
	cfg.Time = 1
	cfg.Parallelism = 1
	return cfg
}

func newTestHasher(t *testing.T) *Argon2 {
	t.Helper()
	h, err := NewArgon2(fastConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("password1100")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := h.Verify("password1100", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
}

func TestHashIsSalted(t *testing.T) {
	h := newTestHasher(t)

	a, err := h.Hash("password1100")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	b, err := h.Hash("password1100")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if a == b {
		t.Fatal("expected two hashes of the same password to differ")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("correct-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	ok, err := h.Verify("wrong-password", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch")
	}
}

func TestHashEnforcesMinimumLength(t *testing.T) {
	h := newTestHasher(t)

	if _, err := h.Hash("1234567"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if _, err := h.Hash("12345678"); err != nil {
		t.Fatalf("eight bytes should be accepted: %v", err)
	}
}

func TestHashEnforcesMaximumLength(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxPasswordBytes = 64
	h, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	if _, err := h.Hash(strings.Repeat("a", 65)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := h.Verify(strings.Repeat("a", 65), "$argon2id$v=19$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA"); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong from Verify, got %v", err)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	h := newTestHasher(t)

	for _, bad := range []string{
		"",
		"not-a-phc-hash",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
	} {
		if _, err := h.Verify("password1100", bad); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("Verify(%q): expected ErrMalformedHash, got %v", bad, err)
		}
	}
}

func TestNeedsUpgrade(t *testing.T) {
	old := newTestHasher(t)
	hash, err := old.Hash("upgrade-me")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger, err := NewArgon2(DefaultConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	up, err := stronger.NeedsUpgrade(hash)
	if err != nil || !up {
		t.Fatalf("expected upgrade, got up=%v err=%v", up, err)
	}

	same, err := old.NeedsUpgrade(hash)
	if err != nil || same {
		t.Fatalf("expected no upgrade, got up=%v err=%v", same, err)
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"memory":   func(c *Config) { c.Memory = 1024 },
		"time":     func(c *Config) { c.Time = 0 },
		"threads":  func(c *Config) { c.Parallelism = 0 },
		"salt":     func(c *Config) { c.SaltLength = 8 },
		"key":      func(c *Config) { c.KeyLength = 8 },
		"min":      func(c *Config) { c.MinPasswordBytes = 4 },
		"max<min":  func(c *Config) { c.MaxPasswordBytes = 6 },
		"negative": func(c *Config) { c.MaxPasswordBytes = -1 },
	}
	for name, mutate := range cases {
		cfg := fastConfig()
		mutate(&cfg)
		if _, err := NewArgon2(cfg); err == nil {
			t.Fatalf("%s: expected config error", name)
		}
	}
}
