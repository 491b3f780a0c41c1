package test

import (
	"context"
	"net/http"
	"testing"

	"github.com/MrEthical07/authservice"
	"github.com/MrEthical07/authservice/account"
	"github.com/MrEthical07/authservice/httpapi"
	"github.com/MrEthical07/authservice/middleware"
	"go.uber.org/zap"
)

// Guards the exported surface that cmd/authservice and external callers
// compile against.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = authservice.New
	_ = authservice.DefaultConfig

	var _ *authservice.Engine
	var _ authservice.Config
	var _ authservice.LoginResult
	var _ authservice.UserStore
	var _ authservice.BannedTokenStore
	var _ authservice.TwoFACodeStore
	var _ authservice.Notifier
	var _ authservice.AuditSink

	var _ error = authservice.ErrMalformedRequest
	var _ error = authservice.ErrInvalidCredentials
	var _ error = authservice.ErrIncorrectCredentials
	var _ error = authservice.ErrUserAlreadyExists
	var _ error = authservice.ErrInvalidToken
	var _ error = authservice.ErrMissingToken
	var _ error = authservice.ErrLoginRateLimited
	var _ error = authservice.ErrUnexpected

	var _ func(*authservice.Engine) func(http.Handler) http.Handler = middleware.RequireSession
	var _ func(*authservice.Engine, *zap.Logger, httpapi.Options) http.Handler = httpapi.NewRouter

	var _ func(*authservice.Engine, context.Context, string, string, bool) error = (*authservice.Engine).Signup
	var _ func(*authservice.Engine, context.Context, string, string) (*authservice.LoginResult, error) = (*authservice.Engine).Login
	var _ func(*authservice.Engine, context.Context, string, string, string) (*authservice.LoginResult, error) = (*authservice.Engine).VerifyTwoFA
	var _ func(*authservice.Engine, context.Context, string) (account.Email, error) = (*authservice.Engine).VerifyToken
	var _ func(*authservice.Engine, context.Context, string) error = (*authservice.Engine).Logout
}
