// Package httpapi exposes an authservice.Engine over HTTP.
//
// Routes (all bodies JSON):
//
//	POST /signup       {email, password, requires2FA}
//	POST /login        {email, password}
//	POST /verify-2fa   {email, loginAttemptId, 2FACode}
//	POST /logout       session cookie
//	POST /verify-token {token}
//	GET  /session      session cookie or bearer token
//	GET  /health
//	GET  /metrics      when Options.Metrics is set
//
// Errors are written as {"error": "<message>"}. Engine sentinels map to
// fixed messages; the cause of an unexpected failure is logged and never
// returned.
package httpapi
