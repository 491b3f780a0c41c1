package middleware

import (
	"net/http"
	"strings"
)

// TokenSource extracts a raw token from a request, or "" if absent.
type TokenSource func(r *http.Request) string

// FromCookie reads the named cookie.
func FromCookie(name string) TokenSource {
	return func(r *http.Request) string {
		c, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return c.Value
	}
}

// FromBearer reads "Authorization: Bearer <token>".
func FromBearer() TokenSource {
	return func(r *http.Request) string {
		token, _ := bearerToken(r.Header.Get("Authorization"))
		return token
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
