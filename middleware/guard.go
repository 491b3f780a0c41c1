package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/authservice"
	"github.com/MrEthical07/authservice/account"
)

// TokenVerifier is the part of authservice.Engine the guard needs.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (account.Email, error)
}

type emailContextKey struct{}

// EmailFromContext returns the email attached by Guard.
func EmailFromContext(ctx context.Context) (account.Email, bool) {
	email, ok := ctx.Value(emailContextKey{}).(account.Email)
	return email, ok
}

// Guard rejects requests without a valid session token with 401, and
// answers 500 when the revocation store cannot be reached.
func Guard(verifier TokenVerifier, sources ...TokenSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token := firstToken(r, sources)
			if token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			email, err := verifier.VerifyToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, authservice.ErrUnexpected) || errors.Is(err, authservice.ErrEngineNotReady) {
					http.Error(w, "unexpected error", http.StatusInternalServerError)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), emailContextKey{}, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession guards with the engine's session cookie, falling back to a
// bearer token.
func RequireSession(engine *authservice.Engine) func(http.Handler) http.Handler {
	return Guard(engine, FromCookie(engine.SessionCookieName()), FromBearer())
}

func firstToken(r *http.Request, sources []TokenSource) string {
	for _, src := range sources {
		if token := src(r); token != "" {
			return token
		}
	}
	return ""
}
