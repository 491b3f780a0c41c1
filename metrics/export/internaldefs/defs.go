package internaldefs

import (
	authservice "github.com/MrEthical07/authservice"
)

// Flows group metrics by the request path that moves them. Exporters
// attach the flow as a label.
const (
	FlowSignup  = "signup"
	FlowLogin   = "login"
	FlowTwoFA   = "2fa"
	FlowSession = "session"
	FlowEngine  = "engine"
)

type CounterDef struct {
	ID   authservice.MetricID
	Name string
	Help string
	Flow string
}

type HistogramDef struct {
	ID   authservice.MetricID
	Name string
	Help string
	Flow string
}

var CounterDefs = []CounterDef{
	{ID: authservice.MetricSignupSuccess, Name: "authservice_signup_success_total", Help: "Accounts created.", Flow: FlowSignup},
	{ID: authservice.MetricSignupDuplicate, Name: "authservice_signup_duplicate_total", Help: "Signups rejected because the email is taken.", Flow: FlowSignup},
	{ID: authservice.MetricLoginSuccess, Name: "authservice_login_success_total", Help: "Logins that issued a session token without 2FA.", Flow: FlowLogin},
	{ID: authservice.MetricLoginFailure, Name: "authservice_login_failure_total", Help: "Logins rejected for invalid or incorrect credentials.", Flow: FlowLogin},
	{ID: authservice.MetricLoginRateLimited, Name: "authservice_login_rate_limited_total", Help: "Logins refused by the attempt limiter.", Flow: FlowLogin},
	{ID: authservice.MetricTwoFAChallengeIssued, Name: "authservice_2fa_challenge_issued_total", Help: "2FA codes generated and sent.", Flow: FlowTwoFA},
	{ID: authservice.MetricTwoFASuccess, Name: "authservice_2fa_success_total", Help: "2FA verifications that issued a session token.", Flow: FlowTwoFA},
	{ID: authservice.MetricTwoFAFailure, Name: "authservice_2fa_failure_total", Help: "Rejected 2FA verifications.", Flow: FlowTwoFA},
	{ID: authservice.MetricTwoFARateLimited, Name: "authservice_2fa_rate_limited_total", Help: "2FA verifications refused by the attempt limiter.", Flow: FlowTwoFA},
	{ID: authservice.MetricLogout, Name: "authservice_logout_total", Help: "Session tokens revoked by logout.", Flow: FlowSession},
	{ID: authservice.MetricTokenRejected, Name: "authservice_token_rejected_total", Help: "Session tokens that failed verification.", Flow: FlowSession},
	{ID: authservice.MetricUnexpectedError, Name: "authservice_unexpected_error_total", Help: "Backend failures reported as unexpected errors.", Flow: FlowEngine},
}

var HistogramDefs = []HistogramDef{
	{ID: authservice.MetricVerifyTokenLatency, Name: "authservice_verify_token_latency_seconds", Help: "Session token verification latency.", Flow: FlowSession},
}

// HistogramBounds are the upper bounds, in seconds, of the engine's eight
// latency buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix names each bucket in instrument names, which cannot
// carry dots.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, padding missing buckets
// with zero.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
