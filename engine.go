package authservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/authservice/account"
	"github.com/MrEthical07/authservice/internal/rate"
	"github.com/MrEthical07/authservice/jwt"
	"github.com/MrEthical07/authservice/password"
	"github.com/MrEthical07/authservice/stores"
	"go.uber.org/zap"
)

// Engine runs signup, login, 2FA verification and session checks against
// the configured stores. Build one with [Builder].
type Engine struct {
	config       Config
	users        UserStore
	banned       BannedTokenStore
	challenges   TwoFACodeStore
	notifier     Notifier
	rateLimiter  *rate.Limiter
	audit        *auditDispatcher
	metrics      *Metrics
	passwordHash *password.Argon2
	jwtManager   *jwt.Manager
	logger       *zap.Logger
	clock        func() time.Time
}

// Close flushes pending audit events. The stores are owned by the caller
// and are not closed.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports events lost to a full audit buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) now() time.Time {
	if e.clock != nil {
		return e.clock()
	}
	return time.Now()
}

// unexpected logs cause and returns it wrapped in ErrUnexpected.
func (e *Engine) unexpected(op string, cause error) error {
	e.metricInc(MetricUnexpectedError)
	e.logger.Error("auth operation failed", zap.String("op", op), zap.Error(cause))
	return fmt.Errorf("%w: %s: %v", ErrUnexpected, op, cause)
}

// parseCredentials applies the email and password policy. The byte cap
// matches the hasher's so an oversized password is a validation failure
// rather than a hashing error.
func (e *Engine) parseCredentials(email, secret string) (account.Email, account.Password, error) {
	addr, err := account.ParseEmail(email)
	if err != nil {
		return account.Email{}, account.Password{}, ErrInvalidCredentials
	}
	pw, err := account.ParsePassword(secret)
	if err != nil {
		return account.Email{}, account.Password{}, ErrInvalidCredentials
	}
	if limit := e.config.Password.MaxBytes; limit > 0 && len(secret) > limit {
		return account.Email{}, account.Password{}, ErrInvalidCredentials
	}
	return addr, pw, nil
}

// Signup registers a new account. The password is stored as an argon2id
// hash. Returns ErrInvalidCredentials when the email or password fails
// policy and ErrUserAlreadyExists when the email is taken.
func (e *Engine) Signup(ctx context.Context, email, secret string, requires2FA bool) error {
	if e == nil || e.users == nil || e.passwordHash == nil {
		return ErrEngineNotReady
	}

	addr, pw, err := e.parseCredentials(email, secret)
	if err != nil {
		e.emitAudit(ctx, auditEventSignup, false, email, err, nil)
		return err
	}

	hash, err := e.passwordHash.Hash(pw.Expose())
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooShort) || errors.Is(err, password.ErrPasswordTooLong) {
			return ErrInvalidCredentials
		}
		return e.unexpected("hash password", err)
	}

	if err := e.users.AddUser(ctx, account.NewUser(addr, hash, requires2FA)); err != nil {
		if errors.Is(err, stores.ErrUserAlreadyExists) {
			e.metricInc(MetricSignupDuplicate)
			e.emitAudit(ctx, auditEventSignup, false, addr.String(), ErrUserAlreadyExists, nil)
			return ErrUserAlreadyExists
		}
		return e.unexpected("add user", err)
	}

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditEventSignup, true, addr.String(), nil, func() map[string]string {
		return map[string]string{"requires_2fa": strconv.FormatBool(requires2FA)}
	})
	return nil
}
