// Package rate implements Redis-backed fixed-window attempt counters for the
// login and 2FA verification paths.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - al:  failed logins per email
//   - ali: failed logins per client IP
//   - a2f: failed 2FA verifications per email
//
// Only failures are counted. A success resets the email's counter.
package rate
