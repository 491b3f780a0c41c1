package httpapi

import (
	"net/http"

	"github.com/MrEthical07/authservice"
	"github.com/MrEthical07/authservice/middleware"
)

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.engine.Signup(r.Context(), *req.Email, *req.Password, *req.Requires2FA); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "User created successfully!"})
}

// login answers 200 with a session cookie, or 206 with the attempt id when
// the account has 2FA enabled.
func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.engine.Login(r.Context(), *req.Email, *req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeLoginResult(w, r, res)
}

func (h *handler) verifyTwoFA(w http.ResponseWriter, r *http.Request) {
	var req verifyTwoFARequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.engine.VerifyTwoFA(r.Context(), *req.Email, *req.LoginAttemptID, *req.TwoFACode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeLoginResult(w, r, res)
}

func (h *handler) writeLoginResult(w http.ResponseWriter, r *http.Request, res *authservice.LoginResult) {
	switch res.State {
	case authservice.StateAuthenticated:
		http.SetCookie(w, h.engine.SessionCookie(res.Token, res.ExpiresAt))
		writeJSON(w, http.StatusOK, messageResponse{Message: "Authenticated"})
	case authservice.StateChallengeIssued:
		writeJSON(w, http.StatusPartialContent, twoFARequiredResponse{
			Message:        "2FA required",
			LoginAttemptID: res.LoginAttemptID,
		})
	default:
		h.fail(w, r, authservice.ErrUnexpected)
	}
}

// logout revokes the token in the session cookie and clears the cookie.
// A rejected token leaves the cookie in place.
func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(h.engine.SessionCookieName())
	if err != nil || c.Value == "" {
		h.fail(w, r, authservice.ErrMissingToken)
		return
	}

	if err := h.engine.Logout(r.Context(), c.Value); err != nil {
		h.fail(w, r, err)
		return
	}
	http.SetCookie(w, h.engine.ClearSessionCookie())
	w.WriteHeader(http.StatusOK)
}

func (h *handler) verifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyTokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	// This route answers 200 or 401 only; an empty token is just invalid.
	if *req.Token == "" {
		h.fail(w, r, authservice.ErrInvalidToken)
		return
	}
	email, err := h.engine.VerifyToken(r.Context(), *req.Token)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emailResponse{Email: email.String()})
}

func (h *handler) session(w http.ResponseWriter, r *http.Request) {
	email, ok := middleware.EmailFromContext(r.Context())
	if !ok {
		h.fail(w, r, authservice.ErrMissingToken)
		return
	}
	writeJSON(w, http.StatusOK, emailResponse{Email: email.String()})
}
