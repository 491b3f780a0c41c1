package authservice

import (
	"context"
	"errors"
)

const (
	auditEventSignup             = "signup"
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventTwoFAChallenge     = "2fa_challenge_issued"
	auditEventTwoFAVerified      = "2fa_verified"
	auditEventTwoFAFailure       = "2fa_failure"
	auditEventLogout             = "logout"
	auditEventTokenRejected      = "token_rejected"
	auditEventRateLimitTriggered = "rate_limit_triggered"
)

// AuditErrorCode is the stable error label carried in AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidCredentials   AuditErrorCode = "invalid_credentials"
	auditErrIncorrectCredentials AuditErrorCode = "incorrect_credentials"
	auditErrUserAlreadyExists    AuditErrorCode = "user_already_exists"
	auditErrInvalidToken         AuditErrorCode = "invalid_token"
	auditErrMissingToken         AuditErrorCode = "missing_token"
	auditErrRateLimited          AuditErrorCode = "rate_limited"
	auditErrInternal             AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope, email string) {
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, email, ErrLoginRateLimited, func() map[string]string {
		return map[string]string{"scope": scope}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrIncorrectCredentials):
		return auditErrIncorrectCredentials
	case errors.Is(err, ErrUserAlreadyExists):
		return auditErrUserAlreadyExists
	case errors.Is(err, ErrInvalidToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrMissingToken):
		return auditErrMissingToken
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	default:
		return auditErrInternal
	}
}
