//go:build integration
// +build integration

package test

import (
	"testing"

	"github.com/MrEthical07/authservice"
	"github.com/MrEthical07/authservice/notify"
	"github.com/MrEthical07/authservice/stores/memory"
	redisstore "github.com/MrEthical07/authservice/stores/redis"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type integrationEnv struct {
	engine     *authservice.Engine
	notifier   *notify.Recorder
	banned     *redisstore.BannedTokenStore
	challenges *redisstore.TwoFACodeStore
	rdb        *redis.Client
	mr         *miniredis.Miniredis
}

// newIntegrationEnv builds an engine the way cmd/authservice does with the
// redis session backend: users in memory, revocations and challenges in
// Redis, throttling enabled.
func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	cfg := authservice.DefaultConfig()
	cfg.JWT.PrivateKey = []byte("integration-secret-0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	hasher, err := cfg.Password.Hasher()
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}

	env := &integrationEnv{
		notifier:   notify.NewRecorder(),
		banned:     redisstore.NewBannedTokenStore(rdb, "it:banned"),
		challenges: redisstore.NewTwoFACodeStore(rdb, "it:2fa", cfg.TwoFA.ChallengeTTL),
		rdb:        rdb,
		mr:         mr,
	}
	engine, err := authservice.New().
		WithConfig(cfg).
		WithUserStore(memory.NewUserStore(hasher)).
		WithBannedTokenStore(env.banned).
		WithTwoFACodeStore(env.challenges).
		WithNotifier(env.notifier).
		WithRedis(rdb).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	env.engine = engine
	return env
}
