// Package config loads the service settings from the environment, after
// overlaying an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/authservice/internal/logging"
	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

var ErrMissingEnv = errors.New("missing required environment variable")

// Config holds runtime settings for cmd/authservice.
//
//   - StoreBackend selects the credential store: memory or postgres.
//   - SessionBackend selects the revocation and 2FA stores: memory or
//     redis. Login throttling is only active with redis.
type Config struct {
	AppAddress     string
	StoreBackend   string
	SessionBackend string
	DatabaseURL    string
	RedisHost      string
	RedisPort      int
	RedisPassword  string
	SnowflakeNode  int64

	JWTSecret        string
	TokenTTL         time.Duration
	CookieSecure     bool
	RateLimitRPS     float64
	MaxLoginAttempts int
	AllowedOrigins   []string

	Log logging.Config
}

// LoadDefaults fills every optional setting.
func (c *Config) LoadDefaults() {
	c.AppAddress = "0.0.0.0:3000"
	c.StoreBackend = BackendMemory
	c.SessionBackend = BackendMemory
	c.RedisHost = "127.0.0.1"
	c.RedisPort = 6379
	c.SnowflakeNode = 1
	c.TokenTTL = 10 * time.Minute
	c.CookieSecure = true
	c.RateLimitRPS = 10
	c.MaxLoginAttempts = 5
	c.Log = logging.Config{Level: "info"}
}

// RedisAddr is host:port for the go-redis client.
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.RedisHost, strconv.Itoa(c.RedisPort))
}

// Load reads files (default ".env") without overriding variables already
// set, then builds a Config from the environment. JWT_SECRET is always
// required; DATABASE_URL is required for the postgres backend.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if len(files) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg := &Config{}
	cfg.LoadDefaults()
	if err := cfg.fromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) fromEnv() error {
	c.JWTSecret = os.Getenv("JWT_SECRET")
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.RedisPassword = os.Getenv("REDIS_PASSWORD")

	setString(&c.AppAddress, "APP_ADDRESS")
	setString(&c.StoreBackend, "STORE_BACKEND")
	setString(&c.SessionBackend, "SESSION_BACKEND")
	setString(&c.RedisHost, "REDIS_HOST_NAME")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}

	var err error
	if c.RedisPort, err = intEnv("REDIS_PORT", c.RedisPort); err != nil {
		return err
	}
	if c.MaxLoginAttempts, err = intEnv("MAX_LOGIN_ATTEMPTS", c.MaxLoginAttempts); err != nil {
		return err
	}
	node, err := intEnv("SNOWFLAKE_NODE", int(c.SnowflakeNode))
	if err != nil {
		return err
	}
	c.SnowflakeNode = int64(node)

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if c.TokenTTL, err = time.ParseDuration(v); err != nil {
			return fmt.Errorf("TOKEN_TTL: %w", err)
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if c.RateLimitRPS, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
	}
	if c.CookieSecure, err = boolEnv("COOKIE_SECURE", c.CookieSecure); err != nil {
		return err
	}
	if c.Log.Dev, err = boolEnv("LOG_DEV", c.Log.Dev); err != nil {
		return err
	}
	return nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: JWT_SECRET", ErrMissingEnv)
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL", ErrMissingEnv)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMemory, BackendPostgres, c.StoreBackend)
	}

	switch c.SessionBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, c.SessionBackend)
	}

	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.MaxLoginAttempts <= 0 {
		return errors.New("MAX_LOGIN_ATTEMPTS must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
