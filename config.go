package hallpass

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Config is built once at startup and passed to [Builder.WithConfig]; the
// core never reads environment variables directly ([ConfigFromEnv] is the
// single edge helper that does).
type Config struct {
	Token    TokenConfig
	Store    StoreConfig
	Password PasswordConfig
	Cookies  CookieConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// TokenConfig configures the signed-token codec. The two secrets must differ;
// compromise of one must not forge the other.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// StoreConfig configures the session-store adapter. RefreshTTL mirrors the
// refresh token's cryptographic lifetime so the store entry never outlives
// the signature's own expiry; CSRFTTL bounds the per-subject CSRF binding.
type StoreConfig struct {
	KeyPrefix  string
	OpTimeout  time.Duration
	RefreshTTL time.Duration
	CSRFTTL    time.Duration
}

// PasswordConfig tunes the credential verifier.
type PasswordConfig struct {
	Cost      int
	MinLength int
}

// CookieConfig describes how the transport layer scopes the auth cookies.
// Max-Age is derived from the token lifetimes in whole seconds.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Secure      bool
	SameSite    http.SameSite
	Path        string
}

// AuditConfig controls the buffered audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables the in-process counters exposed through
// [Manager.MetricsSnapshot] and the metrics/export sub-packages.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Store: StoreConfig{
			KeyPrefix:  "hp",
			OpTimeout:  2 * time.Second,
			RefreshTTL: 7 * 24 * time.Hour,
			CSRFTTL:    24 * time.Hour,
		},
		Password: PasswordConfig{
			Cost:      12,
			MinLength: 8,
		},
		Cookies: CookieConfig{
			AccessName:  "accessToken",
			RefreshName: "refreshToken",
			Secure:      true,
			SameSite:    http.SameSiteStrictMode,
			Path:        "/",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// DefaultConfig returns the baseline configuration: 900s access tokens, 7d
// refresh tokens (store TTL mirroring), 24h CSRF bindings, bcrypt cost 12.
// Signing secrets are not defaulted and must be supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.AccessSecret = cloneBytes(cfg.Token.AccessSecret)
	out.Token.RefreshSecret = cloneBytes(cfg.Token.RefreshSecret)
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

// Validate reports the first configuration error, if any.
func (c *Config) Validate() error {
	if len(c.Token.AccessSecret) == 0 {
		return errors.New("Token AccessSecret is required")
	}
	if len(c.Token.RefreshSecret) == 0 {
		return errors.New("Token RefreshSecret is required")
	}
	if subtle.ConstantTimeCompare(c.Token.AccessSecret, c.Token.RefreshSecret) == 1 {
		return errors.New("Token AccessSecret and RefreshSecret must differ")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}

	if c.Store.KeyPrefix == "" {
		return errors.New("Store KeyPrefix is required")
	}
	if c.Store.OpTimeout <= 0 {
		return errors.New("Store OpTimeout must be > 0")
	}
	if c.Store.RefreshTTL <= 0 {
		return errors.New("Store RefreshTTL must be > 0")
	}
	if c.Store.CSRFTTL <= 0 {
		return errors.New("Store CSRFTTL must be > 0")
	}
	if c.Store.RefreshTTL > c.Token.RefreshTTL {
		return errors.New("Store RefreshTTL must not exceed Token RefreshTTL")
	}

	if c.Password.Cost < 10 || c.Password.Cost > 31 {
		return errors.New("Password Cost must be between 10 and 31")
	}
	if c.Password.MinLength < 8 {
		return errors.New("Password MinLength must be >= 8")
	}

	if c.Cookies.AccessName == "" || c.Cookies.RefreshName == "" {
		return errors.New("Cookie names are required")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

// Environment variable names honored by [ConfigFromEnv]. All lifetimes are
// whole seconds.
const (
	EnvAccessSecret  = "JWT_SECRET"
	EnvAccessTTL     = "JWT_EXPIRES_IN"
	EnvRefreshSecret = "JWT_REFRESH_SECRET"
	EnvRefreshTTL    = "JWT_REFRESH_EXPIRES_IN"
	EnvStoreTTL      = "REFRESH_TOKEN_REDIS_TTL"
	EnvCSRFTTL       = "CSRF_TOKEN_TTL"
)

// ConfigFromEnv builds a [Config] from the process environment on top of
// [DefaultConfig]. It is the only place in the module that reads environment
// variables; everything downstream receives the resulting struct.
func ConfigFromEnv() (Config, error) {
	cfg := defaultConfig()

	cfg.Token.AccessSecret = []byte(os.Getenv(EnvAccessSecret))
	cfg.Token.RefreshSecret = []byte(os.Getenv(EnvRefreshSecret))

	var err error
	if cfg.Token.AccessTTL, err = envSeconds(EnvAccessTTL, cfg.Token.AccessTTL); err != nil {
		return Config{}, err
	}
	if cfg.Token.RefreshTTL, err = envSeconds(EnvRefreshTTL, cfg.Token.RefreshTTL); err != nil {
		return Config{}, err
	}
	if cfg.Store.RefreshTTL, err = envSeconds(EnvStoreTTL, cfg.Store.RefreshTTL); err != nil {
		return Config{}, err
	}
	if cfg.Store.CSRFTTL, err = envSeconds(EnvCSRFTTL, cfg.Store.CSRFTTL); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envSeconds(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}

	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer number of seconds", ErrValidation, name)
	}
	return time.Duration(seconds) * time.Second, nil
}
