// Package internal holds helpers private to authservice: OTP generation and
// secret fingerprinting.
//
// # Sub-packages
//
//   - config: service configuration from the environment and .env files
//   - logging: zap logger construction with optional rotating file output
//   - rate: Redis fixed-window counters for login and 2FA throttling
package internal
