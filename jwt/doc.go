// Package jwt is the session token codec. A session token is a compact JWS
// whose subject is the account email; it carries iat, exp and a random jti
// so that two logins in the same second still yield distinct tokens.
//
// The codec is stateless. Revocation is not its concern: callers check a
// revocation store after Parse succeeds.
package jwt
