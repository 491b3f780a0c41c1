package authservice

import (
	"errors"
	"time"

	"github.com/MrEthical07/authservice/internal/rate"
	"github.com/MrEthical07/authservice/jwt"
	"github.com/MrEthical07/authservice/password"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder collects configuration and collaborators for an Engine.
//
// Builder instances are meant to be configured during initialization and
// used once; Build refuses to run twice.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users      UserStore
	banned     BannedTokenStore
	challenges TwoFACodeStore
	notifier   Notifier

	auditSink AuditSink
	logger    *zap.Logger
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The key material is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis enables login and 2FA throttling backed by client. Without it
// the Engine does not throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithUserStore(s UserStore) *Builder {
	b.users = s
	return b
}

func (b *Builder) WithBannedTokenStore(s BannedTokenStore) *Builder {
	b.banned = s
	return b
}

func (b *Builder) WithTwoFACodeStore(s TwoFACodeStore) *Builder {
	b.challenges = s
	return b
}

// WithNotifier sets where 2FA codes are sent.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithAuditSink sets the audit destination. Events only flow when
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger used for backend failures. Default is a no-op
// logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces time.Now for token issue, token parsing and audit
// timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch {
	case b.users == nil:
		return nil, errors.New("user store required")
	case b.banned == nil:
		return nil, errors.New("banned token store required")
	case b.challenges == nil:
		return nil, errors.New("2fa code store required")
	case b.notifier == nil:
		return nil, errors.New("notifier required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		config:     cloneConfig(cfg),
		users:      b.users,
		banned:     b.banned,
		challenges: b.challenges,
		notifier:   b.notifier,
		logger:     logger.Named("engine"),
		clock:      b.clock,
	}

	if b.redis != nil {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:      cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
			MaxTwoFAAttempts:      cfg.Security.MaxTwoFAAttempts,
			TwoFACooldownDuration: cfg.Security.TwoFACooldownDuration,
		})
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	ph, err := cfg.Password.Hasher()
	if err != nil {
		engine.audit.Close()
		return nil, err
	}
	engine.passwordHash = ph

	jm, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.JWT.TTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		MaxFutureIAT:  cfg.JWT.MaxFutureIAT,
		Now:           b.clock,
	})
	if err != nil {
		engine.audit.Close()
		return nil, err
	}
	engine.jwtManager = jm

	b.built = true

	return engine, nil
}

// Hasher builds the argon2id hasher described by c. Stores that verify
// passwords should share it with the Engine.
func (c PasswordConfig) Hasher() (*password.Argon2, error) {
	cfg := password.DefaultConfig()
	cfg.Memory = c.Memory
	cfg.Time = c.Time
	cfg.Parallelism = c.Parallelism
	cfg.SaltLength = c.SaltLength
	cfg.KeyLength = c.KeyLength
	cfg.MaxPasswordBytes = c.MaxBytes
	return password.NewArgon2(cfg)
}
