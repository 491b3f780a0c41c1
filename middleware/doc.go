// Package middleware guards HTTP handlers with the session token issued by
// authservice.Engine.
//
// [Guard] looks for a token in each configured [TokenSource] in order,
// verifies it through the Engine (signature, expiry, revocation) and stores
// the account email in the request context. [RequireSession] is the usual
// setup: the session cookie first, then an Authorization: Bearer header.
//
// This package only translates HTTP into Engine calls. It never parses
// tokens itself.
package middleware
