// Command authservice runs the authentication HTTP service.
//
// Settings come from the environment (and .env); see internal/config.
// Credentials live in memory or Postgres (STORE_BACKEND), revoked tokens
// and 2FA challenges in memory or Redis (SESSION_BACKEND).
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/MrEthical07/authservice"
	"github.com/MrEthical07/authservice/httpapi"
	"github.com/MrEthical07/authservice/internal/config"
	"github.com/MrEthical07/authservice/internal/logging"
	"github.com/MrEthical07/authservice/metrics/export/prometheus"
	"github.com/MrEthical07/authservice/notify"
	"github.com/MrEthical07/authservice/stores/memory"
	"github.com/MrEthical07/authservice/stores/postgres"
	redisstore "github.com/MrEthical07/authservice/stores/redis"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("authservice stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineCfg := authservice.DefaultConfig()
	engineCfg.JWT.PrivateKey = []byte(cfg.JWTSecret)
	engineCfg.JWT.TTL = cfg.TokenTTL
	engineCfg.Cookie.Secure = cfg.CookieSecure
	engineCfg.Security.MaxLoginAttempts = cfg.MaxLoginAttempts
	engineCfg.Security.MaxTwoFAAttempts = cfg.MaxLoginAttempts
	engineCfg.Audit.Enabled = true
	engineCfg.Audit.DropIfFull = true
	engineCfg.Metrics.Enabled = true
	engineCfg.Metrics.EnableLatencyHistograms = true

	hasher, err := engineCfg.Password.Hasher()
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}

	builder := authservice.New().
		WithConfig(engineCfg).
		WithNotifier(notify.NewLogNotifier(logger)).
		WithAuditSink(authservice.NewZapSink(logger)).
		WithLogger(logger)

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.DatabaseURL})
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.RunMigrations(ctx, db.DB); err != nil {
			return err
		}
		users, err := postgres.NewUserStore(db, hasher, cfg.SnowflakeNode)
		if err != nil {
			return err
		}
		builder.WithUserStore(users)
		logger.Info("credential store ready", zap.String("backend", "postgres"))
	default:
		builder.WithUserStore(memory.NewUserStore(hasher))
		logger.Info("credential store ready", zap.String("backend", "memory"))
	}

	switch cfg.SessionBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.RedisAddr(), err)
		}

		builder.
			WithBannedTokenStore(redisstore.NewBannedTokenStore(rdb, "")).
			WithTwoFACodeStore(redisstore.NewTwoFACodeStore(rdb, "", engineCfg.TwoFA.ChallengeTTL)).
			WithRedis(rdb)
		logger.Info("session stores ready", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr()))
	default:
		builder.
			WithBannedTokenStore(memory.NewBannedTokenStore()).
			WithTwoFACodeStore(memory.NewTwoFACodeStore(engineCfg.TwoFA.ChallengeTTL))
		logger.Info("session stores ready", zap.String("backend", "memory"))
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	handler := httpapi.NewRouter(engine, logger, httpapi.Options{
		RequestsPerSecond: cfg.RateLimitRPS,
		AllowedOrigins:    cfg.AllowedOrigins,
		Metrics: prometheus.NewPrometheusExporter(engine,
			prometheus.WithConstLabel("node", strconv.FormatInt(cfg.SnowflakeNode, 10)),
		).Handler(),
	})
	srv := &http.Server{
		Addr:              cfg.AppAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.AppAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", zap.Error(err))
	}
	logger.Info("goodbye")
	return nil
}
