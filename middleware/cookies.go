package middleware

import (
	"net/http"
	"time"

	"github.com/hallpass-io/hallpass"
)

// SetAuthCookies writes the access and refresh cookies for a freshly issued
// token triple. Both are HttpOnly, path "/", with SameSite and Secure taken
// from the manager's cookie config.
//
// Max-Age is whole seconds derived from each token's lifetime. The configured
// lifetimes are second-granular to begin with; nothing here multiplies by
// 1000, and nothing should.
func SetAuthCookies(w http.ResponseWriter, manager *hallpass.Manager, triple *hallpass.TokenTriple) {
	cfg := manager.CookieConfig()

	http.SetCookie(w, authCookie(cfg, cfg.AccessName, triple.AccessToken, manager.AccessLifetime()))
	http.SetCookie(w, authCookie(cfg, cfg.RefreshName, triple.RefreshToken, manager.RefreshLifetime()))
}

// ClearAuthCookies expires both auth cookies, e.g. after logout.
func ClearAuthCookies(w http.ResponseWriter, manager *hallpass.Manager) {
	cfg := manager.CookieConfig()

	http.SetCookie(w, expiredCookie(cfg, cfg.AccessName))
	http.SetCookie(w, expiredCookie(cfg, cfg.RefreshName))
}

func authCookie(cfg hallpass.CookieConfig, name, value string, lifetime time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     cookiePath(cfg),
		MaxAge:   int(lifetime / time.Second),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	}
}

func expiredCookie(cfg hallpass.CookieConfig, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     cookiePath(cfg),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	}
}

func cookiePath(cfg hallpass.CookieConfig) string {
	if cfg.Path == "" {
		return "/"
	}
	return cfg.Path
}
