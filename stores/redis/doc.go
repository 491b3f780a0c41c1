// Package redis implements the revocation and 2FA challenge stores on
// go-redis/v9. Expiry is delegated to Redis key TTLs, so neither store
// needs a sweep.
//
// Key layout:
//
//	banned_token:<sha256 hex of token>   "1", TTL = remaining token lifetime
//	two_fa_code:<email>                  versioned binary challenge record, TTL = challenge TTL
package redis
