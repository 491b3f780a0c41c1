package authservice

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/MrEthical07/authservice/account"
	"github.com/MrEthical07/authservice/internal/rate"
	"github.com/MrEthical07/authservice/stores"
	"github.com/MrEthical07/authservice/twofa"
	"go.uber.org/zap"
)

// VerifyTwoFA completes a login left in StateChallengeIssued. Both the
// attempt id and the code must match the stored challenge. On success the
// challenge is taken from the store, so a code works once even under
// concurrent verifies, and a session token is issued.
func (e *Engine) VerifyTwoFA(ctx context.Context, email, attemptID, code string) (*LoginResult, error) {
	if e == nil || e.challenges == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	addr, err := account.ParseEmail(email)
	if err != nil {
		return nil, e.twoFAFailure(ctx, email, ErrInvalidCredentials)
	}
	id, err := twofa.ParseLoginAttemptID(attemptID)
	if err != nil {
		return nil, e.twoFAFailure(ctx, addr.String(), ErrInvalidCredentials)
	}
	presented, err := twofa.ParseCode(code)
	if err != nil {
		return nil, e.twoFAFailure(ctx, addr.String(), ErrInvalidCredentials)
	}

	if err := e.checkTwoFALimit(ctx, addr); err != nil {
		return nil, err
	}

	storedID, storedCode, err := e.challenges.GetCode(ctx, addr)
	if err != nil {
		if errors.Is(err, stores.ErrLoginAttemptIDNotFound) {
			e.recordTwoFAFailure(ctx, addr)
			return nil, ErrIncorrectCredentials
		}
		return nil, e.unexpected("get 2fa code", err)
	}

	idMatch := subtle.ConstantTimeCompare([]byte(storedID.String()), []byte(id.String()))
	codeMatch := subtle.ConstantTimeCompare([]byte(storedCode.String()), []byte(presented.String()))
	if idMatch&codeMatch != 1 {
		e.recordTwoFAFailure(ctx, addr)
		return nil, ErrIncorrectCredentials
	}
	e.logger.Debug("login state", zap.Stringer("state", StateVerified))

	// Only the caller that takes the matching challenge gets a session.
	takenID, takenCode, err := e.challenges.TakeCode(ctx, addr)
	if err != nil {
		if errors.Is(err, stores.ErrLoginAttemptIDNotFound) {
			e.recordTwoFAFailure(ctx, addr)
			return nil, ErrIncorrectCredentials
		}
		return nil, e.unexpected("take 2fa code", err)
	}
	if takenID != storedID || takenCode != storedCode {
		e.recordTwoFAFailure(ctx, addr)
		return nil, ErrIncorrectCredentials
	}
	if e.rateLimiter != nil {
		if err := e.rateLimiter.ResetTwoFA(ctx, addr.String()); err != nil {
			e.logger.Warn("reset 2fa limiter", zap.Error(err))
		}
	}

	res, err := e.authenticate(addr)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricTwoFASuccess)
	e.emitAudit(ctx, auditEventTwoFAVerified, true, addr.String(), nil, nil)
	return res, nil
}

func (e *Engine) checkTwoFALimit(ctx context.Context, addr account.Email) error {
	if e.rateLimiter == nil {
		return nil
	}
	err := e.rateLimiter.CheckTwoFA(ctx, addr.String())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		e.metricInc(MetricTwoFARateLimited)
		e.emitRateLimit(ctx, "2fa", addr.String())
		return ErrLoginRateLimited
	default:
		return e.unexpected("check 2fa limit", err)
	}
}

func (e *Engine) twoFAFailure(ctx context.Context, email string, err error) error {
	e.metricInc(MetricTwoFAFailure)
	e.emitAudit(ctx, auditEventTwoFAFailure, false, email, err, nil)
	return err
}

func (e *Engine) recordTwoFAFailure(ctx context.Context, addr account.Email) {
	_ = e.twoFAFailure(ctx, addr.String(), ErrIncorrectCredentials)
	if e.rateLimiter == nil {
		return
	}
	if err := e.rateLimiter.IncrementTwoFA(ctx, addr.String()); err != nil {
		e.logger.Warn("increment 2fa limiter", zap.Error(err))
	}
}
