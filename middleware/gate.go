package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hallpass-io/hallpass"
)

// CSRFHeaderName is the header clients use to echo the CSRF token back on
// state-changing requests.
const CSRFHeaderName = "X-CSRF-Token"

type principalContextKey struct{}

// PrincipalFromContext returns the principal resolved by [Guard] for the
// current request.
func PrincipalFromContext(ctx context.Context) (*hallpass.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*hallpass.Principal)
	return p, ok
}

// Guard authenticates every request before the wrapped handler runs.
//
// Token extraction order is cookie first, then Authorization: Bearer; when
// both are present the cookie wins. For verbs with side effects (anything
// other than GET, HEAD, or OPTIONS) the CSRF token from [CSRFHeaderName] is
// additionally validated against the subject's live binding.
func Guard(manager *hallpass.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			tokenStr, ok := extractAccessToken(r, manager.CookieConfig().AccessName)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			principal, err := manager.Authenticate(r.Context(), tokenStr)
			if err != nil {
				rejectAuthError(w, err)
				return
			}

			if isMutating(r.Method) {
				valid, err := manager.ValidateCSRF(r.Context(), r.Header.Get(CSRFHeaderName), principal.ID)
				if err != nil {
					// Store outage: fail closed, not forbidden.
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				if !valid {
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func rejectAuthError(w http.ResponseWriter, err error) {
	if errors.Is(err, hallpass.ErrStoreUnavailable) || errors.Is(err, hallpass.ErrPrincipalLookup) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func extractAccessToken(r *http.Request, cookieName string) (string, bool) {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}
