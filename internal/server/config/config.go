// Package config handles configuration for the gophauth server: defaults,
// a .env.local file, environment variables, a JSON overlay and command-line
// flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// DefaultTokenValidity is the session lifetime used for both the token
// expiry and the cookie Max-Age.
const DefaultTokenValidity = 10 * 24 * time.Hour

// DefaultPasswordCost is the bcrypt work factor for new hashes.
const DefaultPasswordCost = 10

// Config holds runtime settings for the gophauth server.
//
// Fields:
//   - EndpointAddrHTTP: bind address of the JSON API.
//   - EndpointAddrGRPC: bind address of the gRPC health endpoint ("" disables it).
//   - DatabaseDSN: PostgreSQL DSN (pgx). Required.
//   - SecretKey: HMAC secret for signing session tokens (HS256). Required.
//   - TokenValidityDuration: session lifetime.
//   - PasswordCost: bcrypt cost for new hashes.
//   - SecureCookies: set the Secure attribute on the session cookie (production).
//   - RedisAddr / RedisPassword: token revocation list; empty address disables revocation.
//   - CORSAllowedOrigins: browser origins allowed to call the API with credentials.
//   - DistinctLoginErrors: report "invalid email" and "invalid password" separately.
//   - ConnectTimeout: upper bound for a single store connection attempt.
type Config struct {
	EndpointAddrHTTP      string        `env:"HTTP_ADDR"`
	EndpointAddrGRPC      string        `env:"GRPC_ADDR"`
	DatabaseDSN           string        `env:"DATABASE_DSN"`
	SecretKey             string        `env:"JWT_SECRET"`
	TokenValidityDuration time.Duration `env:"TOKEN_VALIDITY"`
	PasswordCost          int           `env:"PASSWORD_COST"`
	SecureCookies         bool          `env:"SECURE_COOKIES"`
	RedisAddr             string        `env:"REDIS_ADDR"`
	RedisPassword         string        `env:"REDIS_PASSWORD"`
	CORSAllowedOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	DistinctLoginErrors   bool          `env:"DISTINCT_LOGIN_ERRORS"`
	ConnectTimeout        time.Duration `env:"DB_CONNECT_TIMEOUT"`
}

// LoadDefaults populates Config with development defaults.
// DatabaseDSN and SecretKey are deliberately left empty: they must be provided.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.TokenValidityDuration = DefaultTokenValidity
	c.PasswordCost = DefaultPasswordCost
	c.CORSAllowedOrigins = []string{"http://localhost:3000"}
	c.ConnectTimeout = 10 * time.Second
}

// Validate reports missing mandatory settings. The returned error wraps
// common.ErrorConfig.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is not set (DATABASE_DSN or -d)"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("signing secret is not set (JWT_SECRET or -s)"))
	}
	if c.TokenValidityDuration <= 0 {
		errs = append(errs, errors.New("token validity must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", common.ErrorConfig, errors.Join(errs...))
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then .env.local, the
// environment, an optional JSON file and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	parseJson(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
