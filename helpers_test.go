package authservice

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/authservice/account"
	"github.com/MrEthical07/authservice/notify"
	"github.com/MrEthical07/authservice/stores/memory"
	"github.com/MrEthical07/authservice/stores/storetest"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = testSecret
	cfg.JWT.Issuer = "authservice-test"
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

type testEnv struct {
	engine     *Engine
	users      *memory.UserStore
	banned     *countingBannedStore
	challenges *memory.TwoFACodeStore
	notifier   *notify.Recorder
	clock      *storetest.ManualClock
	redis      *miniredis.Miniredis
}

type envOption func(*envSettings)

type envSettings struct {
	cfg       Config
	withRedis bool
	sink      AuditSink
	logger    *zap.Logger
	users     UserStore
}

func withConfig(mutate func(*Config)) envOption {
	return func(s *envSettings) { mutate(&s.cfg) }
}

func withRedisLimiter() envOption {
	return func(s *envSettings) { s.withRedis = true }
}

func withSink(sink AuditSink) envOption {
	return func(s *envSettings) { s.sink = sink }
}

func withLogger(l *zap.Logger) envOption {
	return func(s *envSettings) { s.logger = l }
}

func withUserStore(u UserStore) envOption {
	return func(s *envSettings) { s.users = u }
}

func newTestEnv(t testing.TB, opts ...envOption) *testEnv {
	t.Helper()

	settings := envSettings{cfg: testConfig()}
	for _, opt := range opts {
		opt(&settings)
	}

	hasher, err := settings.cfg.Password.Hasher()
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}

	clock := storetest.NewManualClock(time.Now().Truncate(time.Second))
	env := &testEnv{
		users:      memory.NewUserStore(hasher),
		banned:     &countingBannedStore{inner: memory.NewBannedTokenStore(memory.WithClock(clock.Now))},
		challenges: memory.NewTwoFACodeStore(settings.cfg.TwoFA.ChallengeTTL, memory.WithClock(clock.Now)),
		notifier:   notify.NewRecorder(),
		clock:      clock,
	}

	var users UserStore = env.users
	if settings.users != nil {
		users = settings.users
	}

	b := New().
		WithConfig(settings.cfg).
		WithUserStore(users).
		WithBannedTokenStore(env.banned).
		WithTwoFACodeStore(env.challenges).
		WithNotifier(env.notifier).
		WithClock(clock.Now)
	if settings.sink != nil {
		b.WithAuditSink(settings.sink)
	}
	if settings.logger != nil {
		b.WithLogger(settings.logger)
	}
	if settings.withRedis {
		mr, err := miniredis.Run()
		if err != nil {
			t.Fatalf("miniredis: %v", err)
		}
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() {
			_ = rdb.Close()
			mr.Close()
		})
		env.redis = mr
		b.WithRedis(rdb)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	env.engine = engine
	return env
}

func (env *testEnv) signup(t *testing.T, email, secret string, requires2FA bool) {
	t.Helper()
	if err := env.engine.Signup(context.Background(), email, secret, requires2FA); err != nil {
		t.Fatalf("Signup(%s) failed: %v", email, err)
	}
}

// lastCode returns the most recent 2FA code sent to email.
func (env *testEnv) lastCode(t *testing.T, email string) string {
	t.Helper()
	msg, ok := env.notifier.Last(account.MustParseEmail(email))
	if !ok {
		t.Fatalf("no code sent to %s", email)
	}
	return msg.Body
}

// countingBannedStore counts lookups so tests can prove which checks ran.
type countingBannedStore struct {
	inner    BannedTokenStore
	contains atomic.Int64
	adds     atomic.Int64
	fail     error
}

func (s *countingBannedStore) AddToken(ctx context.Context, token string, expiresAt time.Time) error {
	s.adds.Add(1)
	if s.fail != nil {
		return s.fail
	}
	return s.inner.AddToken(ctx, token, expiresAt)
}

func (s *countingBannedStore) ContainsToken(ctx context.Context, token string) (bool, error) {
	s.contains.Add(1)
	if s.fail != nil {
		return false, s.fail
	}
	return s.inner.ContainsToken(ctx, token)
}

// failingUserStore reports a backend failure on every call.
type failingUserStore struct{ err error }

func (s failingUserStore) AddUser(context.Context, account.User) error { return s.err }
func (s failingUserStore) GetUser(context.Context, account.Email) (account.User, error) {
	return account.User{}, s.err
}
func (s failingUserStore) ValidateUser(context.Context, account.Email, account.Password) error {
	return s.err
}

var errBackendDown = errors.New("connection refused")
