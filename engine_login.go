package authservice

import (
	"context"
	"errors"

	"github.com/MrEthical07/authservice/account"
	"github.com/MrEthical07/authservice/internal/rate"
	"github.com/MrEthical07/authservice/stores"
	"github.com/MrEthical07/authservice/twofa"
	"go.uber.org/zap"
)

// Login checks email and password and either issues a session token
// (StateAuthenticated) or, for accounts with 2FA, stores a fresh challenge,
// sends the code through the Notifier and returns StateChallengeIssued with
// only the login attempt id.
//
// Unknown emails and wrong passwords both yield ErrIncorrectCredentials.
func (e *Engine) Login(ctx context.Context, email, secret string) (*LoginResult, error) {
	if e == nil || e.users == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	// Start
	addr, pw, err := e.parseCredentials(email, secret)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, email, err, nil)
		return nil, err
	}

	ip := clientIPFromContext(ctx)
	if err := e.checkLoginLimit(ctx, addr, ip); err != nil {
		return nil, err
	}

	// CredentialsChecked
	user, err := e.checkCredentials(ctx, addr, pw)
	if err != nil {
		if errors.Is(err, ErrIncorrectCredentials) {
			e.recordLoginFailure(ctx, addr, ip)
		}
		return nil, err
	}
	e.logger.Debug("login state", zap.Stringer("state", StateCredentialsChecked), zap.Bool("requires_2fa", user.Requires2FA))

	if e.rateLimiter != nil {
		if err := e.rateLimiter.ResetLogin(ctx, addr.String()); err != nil {
			e.logger.Warn("reset login limiter", zap.Error(err))
		}
	}

	if !user.Requires2FA {
		res, err := e.authenticate(addr)
		if err != nil {
			return nil, err
		}
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, auditEventLoginSuccess, true, addr.String(), nil, nil)
		return res, nil
	}

	return e.issueChallenge(ctx, addr)
}

func (e *Engine) checkLoginLimit(ctx context.Context, addr account.Email, ip string) error {
	if e.rateLimiter == nil {
		return nil
	}
	err := e.rateLimiter.CheckLogin(ctx, addr.String(), ip)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		e.metricInc(MetricLoginRateLimited)
		e.emitRateLimit(ctx, "login", addr.String())
		return ErrLoginRateLimited
	default:
		return e.unexpected("check login limit", err)
	}
}

// checkCredentials runs ValidateUser then GetUser and folds not-found and
// mismatch into ErrIncorrectCredentials.
func (e *Engine) checkCredentials(ctx context.Context, addr account.Email, pw account.Password) (account.User, error) {
	if err := e.users.ValidateUser(ctx, addr, pw); err != nil {
		if errors.Is(err, stores.ErrUserNotFound) || errors.Is(err, stores.ErrInvalidCredentials) {
			return account.User{}, ErrIncorrectCredentials
		}
		return account.User{}, e.unexpected("validate user", err)
	}

	user, err := e.users.GetUser(ctx, addr)
	if err != nil {
		if errors.Is(err, stores.ErrUserNotFound) {
			return account.User{}, ErrIncorrectCredentials
		}
		return account.User{}, e.unexpected("get user", err)
	}
	return user, nil
}

func (e *Engine) recordLoginFailure(ctx context.Context, addr account.Email, ip string) {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, addr.String(), ErrIncorrectCredentials, nil)

	if e.rateLimiter == nil {
		return
	}
	if err := e.rateLimiter.IncrementLogin(ctx, addr.String(), ip); err != nil {
		e.logger.Warn("increment login limiter", zap.Error(err))
	}
}

// authenticate issues a session token for addr.
func (e *Engine) authenticate(addr account.Email) (*LoginResult, error) {
	token, expiresAt, err := e.jwtManager.Issue(addr.String())
	if err != nil {
		return nil, e.unexpected("issue token", err)
	}
	return &LoginResult{
		State:     StateAuthenticated,
		Email:     addr,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// issueChallenge replaces any pending challenge for addr and sends the new
// code. If sending fails the challenge is withdrawn.
func (e *Engine) issueChallenge(ctx context.Context, addr account.Email) (*LoginResult, error) {
	if e.challenges == nil || e.notifier == nil {
		return nil, ErrEngineNotReady
	}

	id := twofa.NewLoginAttemptID()
	code, err := twofa.NewCode()
	if err != nil {
		return nil, e.unexpected("generate 2fa code", err)
	}

	if err := e.challenges.AddCode(ctx, addr, id, code); err != nil {
		return nil, e.unexpected("store 2fa code", err)
	}

	if err := e.notifier.Send(ctx, addr, e.config.TwoFA.EmailSubject, code.String()); err != nil {
		if rmErr := e.challenges.RemoveCode(ctx, addr); rmErr != nil {
			e.logger.Warn("withdraw 2fa code", zap.Error(rmErr))
		}
		return nil, e.unexpected("send 2fa code", err)
	}

	e.metricInc(MetricTwoFAChallengeIssued)
	e.emitAudit(ctx, auditEventTwoFAChallenge, true, addr.String(), nil, func() map[string]string {
		return map[string]string{"login_attempt_id": id.String()}
	})

	return &LoginResult{
		State:          StateChallengeIssued,
		Email:          addr,
		LoginAttemptID: id.String(),
	}, nil
}
