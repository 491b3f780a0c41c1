package authservice

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MrEthical07/authservice/account"
	"github.com/MrEthical07/authservice/jwt"
	"go.uber.org/zap"
)

// VerifyToken returns the email a session token was issued to. Signature,
// algorithm and expiry are checked first; only a cryptographically valid
// token costs a revocation lookup.
func (e *Engine) VerifyToken(ctx context.Context, token string) (account.Email, error) {
	addr, _, err := e.verifyToken(ctx, token)
	return addr, err
}

func (e *Engine) verifyToken(ctx context.Context, token string) (account.Email, *jwt.SessionClaims, error) {
	if e == nil || e.jwtManager == nil || e.banned == nil {
		return account.Email{}, nil, ErrEngineNotReady
	}
	if token == "" {
		return account.Email{}, nil, ErrMissingToken
	}

	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricVerifyTokenLatency, time.Since(start)) }()
	}

	claims, err := e.jwtManager.Parse(token)
	if err != nil {
		e.rejectToken(ctx, "parse", err)
		return account.Email{}, nil, ErrInvalidToken
	}
	addr, err := account.ParseEmail(claims.Subject)
	if err != nil {
		e.rejectToken(ctx, "subject", err)
		return account.Email{}, nil, ErrInvalidToken
	}

	banned, err := e.banned.ContainsToken(ctx, token)
	if err != nil {
		return account.Email{}, nil, e.unexpected("check banned token", err)
	}
	if banned {
		e.rejectToken(ctx, "revoked", nil)
		return account.Email{}, nil, ErrInvalidToken
	}

	return addr, claims, nil
}

func (e *Engine) rejectToken(ctx context.Context, reason string, cause error) {
	e.metricInc(MetricTokenRejected)
	if cause != nil {
		e.logger.Debug("token rejected", zap.String("reason", reason), zap.Error(cause))
	}
	e.emitAudit(ctx, auditEventTokenRejected, false, "", ErrInvalidToken, func() map[string]string {
		return map[string]string{"reason": reason}
	})
}

// Logout revokes token for as long as VerifyToken would accept it: its
// signed expiry plus the JWT leeway. A token that does not verify is
// reported and the revocation store is left alone.
func (e *Engine) Logout(ctx context.Context, token string) error {
	addr, claims, err := e.verifyToken(ctx, token)
	if err != nil {
		return err
	}

	if err := e.banned.AddToken(ctx, token, e.jwtManager.AcceptUntil(claims)); err != nil {
		return e.unexpected("ban token", err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, addr.String(), nil, nil)
	return nil
}

// SessionCookie wraps token in the configured session cookie. It expires
// with the token.
func (e *Engine) SessionCookie(token string, expiresAt time.Time) *http.Cookie {
	c := e.baseCookie()
	c.Value = token
	c.Expires = expiresAt.UTC()
	return c
}

// ClearSessionCookie returns a cookie that makes the browser drop the
// session.
func (e *Engine) ClearSessionCookie() *http.Cookie {
	c := e.baseCookie()
	c.Expires = time.Unix(0, 0).UTC()
	c.MaxAge = -1
	return c
}

// SessionCookieName is the configured cookie name ("jwt" by default).
func (e *Engine) SessionCookieName() string {
	return e.config.Cookie.Name
}

func (e *Engine) baseCookie() *http.Cookie {
	cc := e.config.Cookie
	return &http.Cookie{
		Name:     cc.Name,
		Path:     cc.Path,
		Domain:   cc.Domain,
		Secure:   cc.Secure,
		HttpOnly: true,
		SameSite: cc.SameSite,
	}
}

// IsClientError reports whether err is one of the sentinels a caller can
// act on, as opposed to ErrUnexpected or ErrEngineNotReady.
func IsClientError(err error) bool {
	switch {
	case errors.Is(err, ErrMalformedRequest),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrIncorrectCredentials),
		errors.Is(err, ErrUserAlreadyExists),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrMissingToken),
		errors.Is(err, ErrLoginRateLimited):
		return true
	default:
		return false
	}
}
