package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/authservice"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

const (
	msgMalformedRequest   = "Malformed request"
	msgInvalidJSON        = "Invalid JSON"
	msgInvalidCredentials = "Invalid credentials"
	msgUserAlreadyExists  = "User already exists"
	msgInvalidToken       = "Invalid auth token"
	msgMissingToken       = "Missing auth token"
	msgTooManyAttempts    = "Too many attempts"
	msgUnexpected         = "Unexpected error"
)

// statusFor maps an engine error to its status code and public message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, authservice.ErrMalformedRequest):
		return http.StatusUnprocessableEntity, msgMalformedRequest
	case errors.Is(err, authservice.ErrInvalidCredentials):
		return http.StatusBadRequest, msgInvalidCredentials
	case errors.Is(err, authservice.ErrIncorrectCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, authservice.ErrUserAlreadyExists):
		return http.StatusConflict, msgUserAlreadyExists
	case errors.Is(err, authservice.ErrInvalidToken):
		return http.StatusUnauthorized, msgInvalidToken
	case errors.Is(err, authservice.ErrMissingToken):
		return http.StatusBadRequest, msgMissingToken
	case errors.Is(err, authservice.ErrLoginRateLimited):
		return http.StatusTooManyRequests, msgTooManyAttempts
	default:
		return http.StatusInternalServerError, msgUnexpected
	}
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// decode reads one JSON object into dst and runs its validate tags.
// Broken JSON is a 400; a well-formed body with missing or mistyped fields
// is a 422.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &typeErr):
			h.fail(w, r, authservice.ErrMalformedRequest)
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: msgMalformedRequest})
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidJSON})
		}
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.fail(w, r, authservice.ErrMalformedRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
