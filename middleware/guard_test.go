package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/authservice"
	"github.com/MrEthical07/authservice/account"
)

type fakeVerifier struct {
	valid map[string]account.Email
	err   error
	calls int
}

func (f *fakeVerifier) VerifyToken(_ context.Context, token string) (account.Email, error) {
	f.calls++
	if f.err != nil {
		return account.Email{}, f.err
	}
	email, ok := f.valid[token]
	if !ok {
		return account.Email{}, authservice.ErrInvalidToken
	}
	return email, nil
}

func echoEmail() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := EmailFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(email.String()))
	})
}

func serve(h http.Handler, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGuardAcceptsCookie(t *testing.T) {
	v := &fakeVerifier{valid: map[string]account.Email{"good": account.MustParseEmail("a@b.com")}}
	h := Guard(v, FromCookie("jwt"), FromBearer())(echoEmail())

	rec := serve(h, func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "jwt", Value: "good"}) })
	if rec.Code != http.StatusOK || rec.Body.String() != "a@b.com" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestGuardFallsBackToBearer(t *testing.T) {
	v := &fakeVerifier{valid: map[string]account.Email{"good": account.MustParseEmail("a@b.com")}}
	h := Guard(v, FromCookie("jwt"), FromBearer())(echoEmail())

	rec := serve(h, func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") })
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGuardRejects(t *testing.T) {
	v := &fakeVerifier{valid: map[string]account.Email{}}
	h := Guard(v, FromCookie("jwt"), FromBearer())(echoEmail())

	cases := map[string]func(*http.Request){
		"no token":     nil,
		"bad cookie":   func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "jwt", Value: "forged"}) },
		"empty bearer": func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
		"basic auth":   func(r *http.Request) { r.Header.Set("Authorization", "Basic Zm9vOmJhcg==") },
	}
	for name, mutate := range cases {
		if rec := serve(h, mutate); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
	}
	if v.calls != 1 {
		t.Fatalf("verifier should only be consulted when a token is present, calls=%d", v.calls)
	}
}

func TestGuardBackendFailure(t *testing.T) {
	v := &fakeVerifier{err: fmt.Errorf("%w: redis down", authservice.ErrUnexpected)}
	h := Guard(v, FromCookie("jwt"))(echoEmail())

	rec := serve(h, func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "jwt", Value: "x"}) })
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
