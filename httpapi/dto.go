package httpapi

// Request fields are pointers so that a missing field fails the
// `required` check while an explicit false or "" still decodes.

type signupRequest struct {
	Email       *string `json:"email" validate:"required"`
	Password    *string `json:"password" validate:"required"`
	Requires2FA *bool   `json:"requires2FA" validate:"required"`
}

type loginRequest struct {
	Email    *string `json:"email" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

type verifyTwoFARequest struct {
	Email          *string `json:"email" validate:"required"`
	LoginAttemptID *string `json:"loginAttemptId" validate:"required"`
	TwoFACode      *string `json:"2FACode" validate:"required"`
}

type verifyTokenRequest struct {
	Token *string `json:"token" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type twoFARequiredResponse struct {
	Message        string `json:"message"`
	LoginAttemptID string `json:"loginAttemptId"`
}

type emailResponse struct {
	Email string `json:"email"`
}

type errorResponse struct {
	Error string `json:"error"`
}
