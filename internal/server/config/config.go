// Package config handles configuration for the authkeeper server: built-in
// defaults, then environment variables, then an optional JSON file, then
// command-line flags, each layer overriding the previous one.
package config

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Mail transport names accepted in MailTransport.
const (
	MailTransportAuto = ""
	MailTransportLog  = "log"
	MailTransportSMTP = "smtp"
	MailTransportSES  = "ses"
)

// Config holds runtime settings for the server. It is built once at startup
// and passed by pointer to constructors; nothing mutates it afterwards.
//
// Fields:
//   - EndpointAddrHTTP: bind address of the JSON API.
//   - EndpointAddrGRPC: bind address of the gRPC health service; empty disables it.
//   - DatabaseDSN: postgres:// DSN (pgx) or a SQLite file/URI.
//   - SecretKey / Algorithm: HMAC secret and JWT algorithm (HS256, HS384, HS512).
//   - AccessTokenValidityDuration: session token and cookie lifetime.
//   - ResetTokenValidityDuration / VerifyTokenValidityDuration: single-use token lifetimes.
//   - Cookie*: attributes of the session cookie.
//   - CORSOrigins: origins allowed to call the API with credentials.
//   - FrontendURL: base of the links put in reset and verification emails.
//   - Mail*, SMTP*, SES*: outbound mail settings.
type Config struct {
	EndpointAddrHTTP string `env:"HTTP_ADDR"`
	EndpointAddrGRPC string `env:"GRPC_ADDR"`
	DatabaseDSN      string `env:"DATABASE_URL"`

	SecretKey                   string        `env:"SECRET_KEY"`
	Algorithm                   string        `env:"ALGORITHM"`
	AccessTokenValidityDuration time.Duration `env:"ACCESS_TOKEN_TTL"`
	ResetTokenValidityDuration  time.Duration `env:"RESET_TOKEN_TTL"`
	VerifyTokenValidityDuration time.Duration `env:"VERIFY_TOKEN_TTL"`
	BcryptCost                  int           `env:"BCRYPT_COST"`

	CookieName     string `env:"COOKIE_NAME"`
	CookieSecure   bool   `env:"COOKIE_SECURE"`
	CookieSameSite string `env:"COOKIE_SAME_SITE"`
	CookieDomain   string `env:"COOKIE_DOMAIN"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
	FrontendURL string   `env:"FRONTEND_URL"`

	MailTransport string        `env:"MAIL_TRANSPORT"`
	MailFrom      string        `env:"MAIL_FROM"`
	MailTimeout   time.Duration `env:"MAIL_TIMEOUT"`
	SMTPHost      string        `env:"SMTP_HOST"`
	SMTPPort      int           `env:"SMTP_PORT"`
	SMTPUser      string        `env:"SMTP_USER"`
	SMTPPassword  string        `env:"SMTP_PASSWORD"`

	SESRegion          string `env:"SES_REGION"`
	SESAccessKeyID     string `env:"SES_ACCESS_KEY_ID"`
	SESSecretAccessKey string `env:"SES_SECRET_ACCESS_KEY"`
	SESEndpoint        string `env:"SES_ENDPOINT"`

	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden outside local development.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8000"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = "file:auth.db"
	c.SecretKey = "change-me-in-production-use-openssl-rand-hex-32"
	c.Algorithm = "HS256"
	c.AccessTokenValidityDuration = 60 * time.Minute
	c.ResetTokenValidityDuration = 60 * time.Minute
	c.VerifyTokenValidityDuration = 24 * time.Hour
	c.BcryptCost = bcrypt.DefaultCost
	c.CookieName = "session"
	c.CookieSecure = false
	c.CookieSameSite = "lax"
	c.CookieDomain = ""
	c.CORSOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	c.FrontendURL = "http://localhost:5173"
	c.MailTransport = MailTransportAuto
	c.MailFrom = "noreply@example.com"
	c.MailTimeout = 30 * time.Second
	c.SMTPPort = 587
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment, an optional JSON file and finally command-line flags.
// It panics on unreadable input, like the flag package does on bad flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported algorithm %q", c.Algorithm)
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret key must not be empty")
	}
	if _, ok := ParseSameSite(c.CookieSameSite); !ok {
		return fmt.Errorf("unsupported cookie same-site policy %q", c.CookieSameSite)
	}
	if c.AccessTokenValidityDuration <= 0 || c.ResetTokenValidityDuration <= 0 || c.VerifyTokenValidityDuration <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.BcryptCost != 0 && (c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost) {
		return fmt.Errorf("bcrypt cost %d out of range [%d, %d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch c.MailTransport {
	case MailTransportAuto, MailTransportLog, MailTransportSMTP, MailTransportSES:
	default:
		return fmt.Errorf("unsupported mail transport %q", c.MailTransport)
	}
	return nil
}

// SameSite values understood by the HTTP layer.
type SameSite int

const (
	SameSiteLax SameSite = iota + 1
	SameSiteStrict
	SameSiteNone
)

// ParseSameSite maps the textual cookie policy to SameSite.
func ParseSameSite(s string) (SameSite, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lax":
		return SameSiteLax, true
	case "strict":
		return SameSiteStrict, true
	case "none":
		return SameSiteNone, true
	}
	return 0, false
}
