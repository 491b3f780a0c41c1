package authservice

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/authservice/twofa"
)

// Config holds every tunable of the Engine. Start from DefaultConfig and
// override fields; Builder.Build validates the result.
type Config struct {
	JWT      JWTConfig
	Password PasswordConfig
	TwoFA    TwoFAConfig
	Cookie   CookieConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures session token signing.
type JWTConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the argon2id cost parameters used at signup.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MaxBytes    int
}

/*
====================================
2FA CONFIG
====================================
*/

// TwoFAConfig controls the emailed second factor.
type TwoFAConfig struct {
	EmailSubject string
	// ChallengeTTL is passed to the memory and redis TwoFACodeStore
	// constructors, which expire challenges. The Engine does not read it.
	ChallengeTTL time.Duration
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig shapes the session cookie returned by Engine.SessionCookie.
// The cookie is always HttpOnly.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig tunes login throttling. Throttling is only active when the
// Builder is given a Redis client.
type SecurityConfig struct {
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	MaxTwoFAAttempts      int
	TwoFACooldownDuration time.Duration
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns a config that only lacks a signing key.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			TTL:           10 * time.Minute,
			SigningMethod: "hs256",
			MaxFutureIAT:  10 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MaxBytes:    1024,
		},
		TwoFA: TwoFAConfig{
			EmailSubject: "2FA Code",
			ChallengeTTL: twofa.DefaultTTL,
		},
		Cookie: CookieConfig{
			Name:     "jwt",
			Path:     "/",
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		},
		Security: SecurityConfig{
			EnableIPThrottle:      false,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
			MaxTwoFAAttempts:      5,
			TwoFACooldownDuration: twofa.DefaultTTL,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first misconfiguration found. Key material is
// checked in depth by jwt.NewManager during Build.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.TTL <= 0 {
		return errors.New("JWT TTL must be > 0")
	}
	if c.JWT.SigningMethod != "ed25519" && c.JWT.SigningMethod != "hs256" {
		return errors.New("unsupported JWT signing method")
	}
	if len(c.JWT.PrivateKey) == 0 {
		return errors.New("JWT PrivateKey is required")
	}
	if c.JWT.SigningMethod == "ed25519" && len(c.JWT.PublicKey) == 0 {
		return errors.New("ed25519 requires PublicKey")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be within [0, 2m]")
	}
	if c.JWT.MaxFutureIAT < 0 {
		return errors.New("JWT MaxFutureIAT must be >= 0")
	}
	if c.JWT.Audience != "" && strings.TrimSpace(c.JWT.Audience) == "" {
		return errors.New("JWT Audience must not be blank")
	}

	// 2FA
	if strings.TrimSpace(c.TwoFA.EmailSubject) == "" {
		return errors.New("TwoFA EmailSubject must not be empty")
	}
	if c.TwoFA.ChallengeTTL <= 0 {
		return errors.New("TwoFA ChallengeTTL must be > 0")
	}

	// Cookie
	if c.Cookie.Name == "" || strings.ContainsAny(c.Cookie.Name, " \t\r\n;,=") {
		return errors.New("Cookie Name must be a valid cookie token")
	}
	if !strings.HasPrefix(c.Cookie.Path, "/") {
		return errors.New("Cookie Path must start with /")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}

	// Security
	if c.Security.MaxLoginAttempts <= 0 {
		return errors.New("Security MaxLoginAttempts must be > 0")
	}
	if c.Security.LoginCooldownDuration <= 0 {
		return errors.New("Security LoginCooldownDuration must be > 0")
	}
	if c.Security.MaxTwoFAAttempts <= 0 {
		return errors.New("Security MaxTwoFAAttempts must be > 0")
	}
	if c.Security.TwoFACooldownDuration <= 0 {
		return errors.New("Security TwoFACooldownDuration must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
