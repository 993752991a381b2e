package hallpass

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := defaultConfig()
	cfg.Token.AccessSecret = []byte("access-secret-for-tests")
	cfg.Token.RefreshSecret = []byte("refresh-secret-for-tests")
	return cfg
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Token.AccessTTL != 15*time.Minute {
		t.Fatalf("access TTL: got %v", cfg.Token.AccessTTL)
	}
	if cfg.Token.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("refresh TTL: got %v", cfg.Token.RefreshTTL)
	}
	if cfg.Store.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("store refresh TTL: got %v", cfg.Store.RefreshTTL)
	}
	if cfg.Store.CSRFTTL != 24*time.Hour {
		t.Fatalf("CSRF TTL: got %v", cfg.Store.CSRFTTL)
	}
	if cfg.Password.Cost != 12 {
		t.Fatalf("bcrypt cost: got %d", cfg.Password.Cost)
	}
	if !cfg.Cookies.Secure || cfg.Cookies.SameSite != http.SameSiteStrictMode {
		t.Fatalf("cookie hardening defaults: %+v", cfg.Cookies)
	}
	if cfg.Cookies.AccessName != "accessToken" || cfg.Cookies.RefreshName != "refreshToken" {
		t.Fatalf("cookie names: %+v", cfg.Cookies)
	}
}

func TestValidateAcceptsDefaultsWithSecrets(t *testing.T) {
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing access secret", func(c *Config) { c.Token.AccessSecret = nil }},
		{"missing refresh secret", func(c *Config) { c.Token.RefreshSecret = nil }},
		{"identical secrets", func(c *Config) { c.Token.RefreshSecret = c.Token.AccessSecret }},
		{"zero access ttl", func(c *Config) { c.Token.AccessTTL = 0 }},
		{"zero refresh ttl", func(c *Config) { c.Token.RefreshTTL = 0 }},
		{"excessive leeway", func(c *Config) { c.Token.Leeway = 5 * time.Minute }},
		{"empty key prefix", func(c *Config) { c.Store.KeyPrefix = "" }},
		{"zero op timeout", func(c *Config) { c.Store.OpTimeout = 0 }},
		{"store ttl exceeds token ttl", func(c *Config) { c.Store.RefreshTTL = c.Token.RefreshTTL + time.Hour }},
		{"bcrypt cost too low", func(c *Config) { c.Password.Cost = 4 }},
		{"bcrypt cost too high", func(c *Config) { c.Password.Cost = 40 }},
		{"short min length", func(c *Config) { c.Password.MinLength = 4 }},
		{"empty cookie name", func(c *Config) { c.Cookies.AccessName = "" }},
		{"audit enabled without buffer", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}},
	}

	for _, tc := range cases {
		cfg := validTestConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv(EnvAccessSecret, "access-secret-for-tests")
	t.Setenv(EnvRefreshSecret, "refresh-secret-for-tests")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}
	if cfg.Token.AccessTTL != 15*time.Minute {
		t.Fatalf("access TTL default: got %v", cfg.Token.AccessTTL)
	}
	if string(cfg.Token.AccessSecret) != "access-secret-for-tests" {
		t.Fatalf("access secret not carried over")
	}
}

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv(EnvAccessSecret, "access-secret-for-tests")
	t.Setenv(EnvRefreshSecret, "refresh-secret-for-tests")
	t.Setenv(EnvAccessTTL, "600")
	t.Setenv(EnvRefreshTTL, "86400")
	t.Setenv(EnvStoreTTL, "43200")
	t.Setenv(EnvCSRFTTL, "3600")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}

	if cfg.Token.AccessTTL != 10*time.Minute {
		t.Fatalf("access TTL: got %v", cfg.Token.AccessTTL)
	}
	if cfg.Token.RefreshTTL != 24*time.Hour {
		t.Fatalf("refresh TTL: got %v", cfg.Token.RefreshTTL)
	}
	if cfg.Store.RefreshTTL != 12*time.Hour {
		t.Fatalf("store refresh TTL: got %v", cfg.Store.RefreshTTL)
	}
	if cfg.Store.CSRFTTL != time.Hour {
		t.Fatalf("CSRF TTL: got %v", cfg.Store.CSRFTTL)
	}
}

func TestConfigFromEnvRejectsMalformedSeconds(t *testing.T) {
	t.Setenv(EnvAccessSecret, "access-secret-for-tests")
	t.Setenv(EnvRefreshSecret, "refresh-secret-for-tests")

	for _, bad := range []string{"abc", "-5", "0", "1.5"} {
		t.Setenv(EnvAccessTTL, bad)
		if _, err := ConfigFromEnv(); !errors.Is(err, ErrValidation) {
			t.Fatalf("value %q: expected ErrValidation, got %v", bad, err)
		}
	}
}

func TestConfigFromEnvMissingSecretsFailValidation(t *testing.T) {
	t.Setenv(EnvAccessSecret, "")
	t.Setenv(EnvRefreshSecret, "")

	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected error for missing secrets")
	}
}

func TestCloneConfigDetachesSecrets(t *testing.T) {
	cfg := validTestConfig()
	clone := cloneConfig(cfg)

	cfg.Token.AccessSecret[0] ^= 0xFF
	if clone.Token.AccessSecret[0] == cfg.Token.AccessSecret[0] {
		t.Fatal("clone shares secret backing array")
	}
}
