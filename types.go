package hallpass

import (
	"context"
	"time"
)

// Principal is the authenticated identity loaded from the external resource
// layer. The core treats it as an opaque, immutable-for-the-request value
// once loaded; role and tenant semantics are evaluated elsewhere.
type Principal struct {
	ID            string
	CredentialKey string
	RoleID        string
	TenantScopeID string
	PasswordHash  string
}

// Directory is the principal-lookup collaborator supplied by the surrounding
// CRUD layer. Implementations signal an absent principal with
// [ErrPrincipalNotFound]; any other error is treated as infrastructure
// failure and fails the operation closed.
type Directory interface {
	FindByCredentialKey(ctx context.Context, key string) (*Principal, error)
	FindByID(ctx context.Context, id string) (*Principal, error)
}

// Admission is the external admission-control collaborator (rate limiting,
// lockout, abuse detection). A nil Admission disables the checks; a non-nil
// error from either method aborts the operation before any credential work.
type Admission interface {
	AllowLogin(ctx context.Context, credentialKey, clientIP string) error
	AllowRefresh(ctx context.Context, clientIP string) error
}

// TokenTriple is the result of a successful login or refresh. The access and
// refresh tokens are delivered as scoped cookies by the transport layer; the
// CSRF token is returned in the response body so client script can echo it
// back on mutating requests.
type TokenTriple struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	CSRFToken    string `json:"csrfToken"`
}

// SessionStore is the shared-state dependency of [Manager]. It is satisfied
// by [github.com/hallpass-io/hallpass/session.Store]; tests substitute fakes
// or fault-injecting wrappers.
//
// Implementations must keep absent-key and unavailable outcomes distinct
// (session.ErrNotFound vs session.ErrUnavailable) and must make
// ConsumeRefresh atomic: of any number of concurrent consumers of one token,
// exactly one receives the subject.
type SessionStore interface {
	SaveRefresh(ctx context.Context, token, subjectID string, ttl time.Duration) error
	ConsumeRefresh(ctx context.Context, token string) (string, error)
	DeleteRefresh(ctx context.Context, token string) error
	DeleteAllRefreshForSubject(ctx context.Context, subjectID string) error
	SaveCSRF(ctx context.Context, subjectID, token string, ttl time.Duration) error
	GetCSRF(ctx context.Context, subjectID string) (string, error)
	DeleteCSRF(ctx context.Context, subjectID string) error
	Ping(ctx context.Context) (time.Duration, error)
}
