package hallpass

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/hallpass-io/hallpass/internal"
	"github.com/hallpass-io/hallpass/password"
	"github.com/hallpass-io/hallpass/session"
	"github.com/hallpass-io/hallpass/token"
)

// Manager orchestrates the credential verifier, the signed-token codec, and
// the session store into the login, refresh-with-rotation, logout, and CSRF
// protocols. Construct it through [Builder.Build]; all methods are safe for
// concurrent use.
//
// There is no cross-key transaction and no global lock. The store's per-key
// operations are the only synchronization primitive, and every session
// mutation is delete + recreate, never an in-place edit.
type Manager struct {
	config    Config
	codec     *token.Codec
	store     SessionStore
	directory Directory
	admission Admission
	verifier  *password.Verifier
	audit     *auditDispatcher
	metrics   *Metrics
}

// Login authenticates a credential key + password pair and establishes a new
// session generation: a signed access/refresh pair plus a fresh CSRF token,
// with the refresh and CSRF bindings registered in the session store.
//
// Unknown account and wrong password both return [ErrInvalidCredentials]; a
// full-cost dummy hash comparison runs on the unknown-account path so the two
// are not distinguishable by timing either.
func (m *Manager) Login(ctx context.Context, credentialKey, plaintext string) (*TokenTriple, error) {
	if credentialKey == "" || plaintext == "" {
		return nil, fmt.Errorf("%w: credential key and password are required", ErrValidation)
	}

	ip := clientIPFromContext(ctx)
	if m.admission != nil {
		if err := m.admission.AllowLogin(ctx, credentialKey, ip); err != nil {
			m.metrics.Inc(MetricLoginDenied)
			m.emit(ctx, AuditEvent{EventType: AuditLoginDenied, IP: ip, Error: err.Error()})
			return nil, fmt.Errorf("%w: %v", ErrAdmissionDenied, err)
		}
	}

	principal, err := m.directory.FindByCredentialKey(ctx, credentialKey)
	switch {
	case errors.Is(err, ErrPrincipalNotFound):
		m.verifier.CompareDummy(plaintext)
		m.metrics.Inc(MetricLoginFailure)
		m.emit(ctx, AuditEvent{EventType: AuditLoginFailed, IP: ip})
		return nil, ErrInvalidCredentials
	case err != nil:
		m.emit(ctx, AuditEvent{EventType: AuditPrincipalError, IP: ip, Error: err.Error()})
		return nil, fmt.Errorf("%w: %v", ErrPrincipalLookup, err)
	}

	if !m.verifier.Verify(plaintext, principal.PasswordHash) {
		m.metrics.Inc(MetricLoginFailure)
		m.emit(ctx, AuditEvent{EventType: AuditLoginFailed, SubjectID: principal.ID, IP: ip})
		return nil, ErrInvalidCredentials
	}

	triple, err := m.establishSession(ctx, principal)
	if err != nil {
		return nil, err
	}

	m.metrics.Inc(MetricLoginSuccess)
	m.emit(ctx, AuditEvent{EventType: AuditLogin, SubjectID: principal.ID, IP: ip, Success: true})
	return triple, nil
}

// Refresh exchanges a presented refresh token for a new token triple,
// rotating the stored bindings. The presented binding is consumed (deleted)
// atomically before anything new is minted: if the subsequent mint fails the
// client must retry with a fresh login, but a stale token can never remain
// valid. Of two concurrent calls with the same token, exactly one succeeds;
// the other observes the consumed binding and fails with [ErrInvalidToken].
func (m *Manager) Refresh(ctx context.Context, presented string) (*TokenTriple, error) {
	if presented == "" {
		return nil, fmt.Errorf("%w: refresh token is required", ErrValidation)
	}

	ip := clientIPFromContext(ctx)
	if m.admission != nil {
		if err := m.admission.AllowRefresh(ctx, ip); err != nil {
			m.emit(ctx, AuditEvent{EventType: AuditRefreshFailed, IP: ip, Error: err.Error()})
			return nil, fmt.Errorf("%w: %v", ErrAdmissionDenied, err)
		}
	}

	subjectID, err := m.store.ConsumeRefresh(ctx, presented)
	switch {
	case errors.Is(err, session.ErrNotFound):
		// Already used, revoked, or never issued; the caller cannot tell which.
		m.metrics.Inc(MetricRefreshReplay)
		m.emit(ctx, AuditEvent{EventType: AuditRefreshReplay, IP: ip})
		return nil, ErrInvalidToken
	case err != nil:
		m.storeFailure(ctx, "refresh", "", err)
		return nil, err
	}

	claims, err := m.codec.Verify(token.KindRefresh, presented, time.Now())
	if err != nil || claims.SubjectID != subjectID {
		// Signature/expiry failure or subject mismatch on a registered token
		// is suspicious; the consume above already revoked it.
		m.metrics.Inc(MetricRefreshFailure)
		m.emit(ctx, AuditEvent{EventType: AuditRefreshFailed, SubjectID: subjectID, IP: ip})
		return nil, ErrInvalidToken
	}

	principal, err := m.directory.FindByID(ctx, subjectID)
	switch {
	case errors.Is(err, ErrPrincipalNotFound):
		m.metrics.Inc(MetricRefreshFailure)
		m.emit(ctx, AuditEvent{EventType: AuditRefreshFailed, SubjectID: subjectID, IP: ip})
		return nil, ErrInvalidToken
	case err != nil:
		m.emit(ctx, AuditEvent{EventType: AuditPrincipalError, SubjectID: subjectID, IP: ip, Error: err.Error()})
		return nil, fmt.Errorf("%w: %v", ErrPrincipalLookup, err)
	}

	triple, err := m.establishSession(ctx, principal)
	if err != nil {
		return nil, err
	}

	m.metrics.Inc(MetricRefreshSuccess)
	m.emit(ctx, AuditEvent{EventType: AuditRefresh, SubjectID: subjectID, IP: ip, Success: true})
	return triple, nil
}

// establishSession mints a token triple and registers the refresh and CSRF
// bindings. The two writes hit independent keys; on partial failure the
// successful write is compensated so no orphaned binding survives, and the
// original error is surfaced.
func (m *Manager) establishSession(ctx context.Context, principal *Principal) (*TokenTriple, error) {
	now := time.Now()

	access, err := m.codec.Issue(token.KindAccess, principal.ID, now)
	if err != nil {
		return nil, err
	}
	refresh, err := m.codec.Issue(token.KindRefresh, principal.ID, now)
	if err != nil {
		return nil, err
	}
	csrf, err := internal.NewCSRFToken()
	if err != nil {
		return nil, err
	}

	if err := m.store.SaveRefresh(ctx, refresh, principal.ID, m.config.Store.RefreshTTL); err != nil {
		m.storeFailure(ctx, "establish", principal.ID, err)
		return nil, err
	}
	if err := m.store.SaveCSRF(ctx, principal.ID, csrf, m.config.Store.CSRFTTL); err != nil {
		_ = m.store.DeleteRefresh(ctx, refresh)
		m.storeFailure(ctx, "establish", principal.ID, err)
		return nil, err
	}

	return &TokenTriple{
		AccessToken:  access,
		RefreshToken: refresh,
		CSRFToken:    csrf,
	}, nil
}

// Logout revokes the session generation addressed by the presented refresh
// token: the refresh binding and the owning subject's CSRF binding are both
// deleted. Logout is idempotent; an absent or already-expired binding is a
// no-op success.
func (m *Manager) Logout(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}

	subjectID, err := m.store.ConsumeRefresh(ctx, presented)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return nil
	case err != nil:
		m.storeFailure(ctx, "logout", "", err)
		return err
	}

	if err := m.store.DeleteCSRF(ctx, subjectID); err != nil {
		m.storeFailure(ctx, "logout", subjectID, err)
		return err
	}

	m.metrics.Inc(MetricLogout)
	m.emit(ctx, AuditEvent{EventType: AuditLogout, SubjectID: subjectID, IP: clientIPFromContext(ctx), Success: true})
	return nil
}

// LogoutEverywhere revokes every live refresh token bound to the subject via
// the secondary index, plus the subject's CSRF binding. Revocation is
// effective immediately and globally; no key-space scan is involved.
func (m *Manager) LogoutEverywhere(ctx context.Context, subjectID string) error {
	if subjectID == "" {
		return fmt.Errorf("%w: subject id is required", ErrValidation)
	}

	if err := m.store.DeleteAllRefreshForSubject(ctx, subjectID); err != nil {
		m.storeFailure(ctx, "logout_all", subjectID, err)
		return err
	}
	if err := m.store.DeleteCSRF(ctx, subjectID); err != nil {
		m.storeFailure(ctx, "logout_all", subjectID, err)
		return err
	}

	m.metrics.Inc(MetricLogoutAll)
	m.emit(ctx, AuditEvent{EventType: AuditLogoutAll, SubjectID: subjectID, IP: clientIPFromContext(ctx), Success: true})
	return nil
}

// IssueCSRF mints a fresh CSRF token for the subject and overwrites any
// prior binding, implicitly invalidating the old token.
func (m *Manager) IssueCSRF(ctx context.Context, subjectID string) (string, error) {
	if subjectID == "" {
		return "", fmt.Errorf("%w: subject id is required", ErrValidation)
	}

	csrf, err := internal.NewCSRFToken()
	if err != nil {
		return "", err
	}
	if err := m.store.SaveCSRF(ctx, subjectID, csrf, m.config.Store.CSRFTTL); err != nil {
		m.storeFailure(ctx, "csrf_issue", subjectID, err)
		return "", err
	}

	m.metrics.Inc(MetricCSRFIssued)
	m.emit(ctx, AuditEvent{EventType: AuditCSRFIssued, SubjectID: subjectID, Success: true})
	return csrf, nil
}

// ValidateCSRF reports whether the presented token is the subject's live CSRF
// token (constant-time comparison). An absent binding is false; a store
// outage is an error, never a silent false, so the caller fails closed for
// the right reason.
func (m *Manager) ValidateCSRF(ctx context.Context, presented, subjectID string) (bool, error) {
	if presented == "" || subjectID == "" {
		return false, nil
	}

	stored, err := m.store.GetCSRF(ctx, subjectID)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return false, nil
	case err != nil:
		m.storeFailure(ctx, "csrf_validate", subjectID, err)
		return false, err
	}

	if subtle.ConstantTimeCompare([]byte(presented), []byte(stored)) != 1 {
		m.metrics.Inc(MetricCSRFRejected)
		m.emit(ctx, AuditEvent{EventType: AuditCSRFRejected, SubjectID: subjectID, IP: clientIPFromContext(ctx)})
		return false, nil
	}
	return true, nil
}

// Authenticate verifies an access token and re-loads its principal from the
// directory. Verification is purely cryptographic and time-based; a token
// whose embedded expiry has passed is rejected regardless of store state.
func (m *Manager) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken
	}

	claims, err := m.codec.Verify(token.KindAccess, accessToken, time.Now())
	if err != nil {
		return nil, ErrInvalidToken
	}

	principal, err := m.directory.FindByID(ctx, claims.SubjectID)
	switch {
	case errors.Is(err, ErrPrincipalNotFound):
		return nil, ErrInvalidToken
	case err != nil:
		m.emit(ctx, AuditEvent{EventType: AuditPrincipalError, SubjectID: claims.SubjectID, Error: err.Error()})
		return nil, fmt.Errorf("%w: %v", ErrPrincipalLookup, err)
	}
	return principal, nil
}

// HashPassword applies the strength policy and returns the bcrypt hash for
// the resource layer to persist at registration.
func (m *Manager) HashPassword(plaintext string) (string, error) {
	hash, err := m.verifier.Hash(plaintext)
	if err != nil {
		if errors.Is(err, password.ErrPolicy) {
			return "", fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return "", err
	}
	return hash, nil
}

// AccessLifetime returns the configured access-token lifetime.
func (m *Manager) AccessLifetime() time.Duration {
	return m.codec.Lifetime(token.KindAccess)
}

// RefreshLifetime returns the configured refresh-token lifetime.
func (m *Manager) RefreshLifetime() time.Duration {
	return m.codec.Lifetime(token.KindRefresh)
}

// CookieConfig returns the cookie scoping the transport layer should apply.
func (m *Manager) CookieConfig() CookieConfig {
	return m.config.Cookies
}

// Ping reports session-store availability and latency.
func (m *Manager) Ping(ctx context.Context) (time.Duration, error) {
	return m.store.Ping(ctx)
}

// MetricsSnapshot returns a point-in-time copy of the counter set.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	return m.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (m *Manager) AuditDropped() uint64 {
	return m.audit.droppedCount()
}

// Close flushes and stops the audit dispatcher. The Manager must not be used
// after Close.
func (m *Manager) Close() {
	m.audit.close()
}

func (m *Manager) emit(ctx context.Context, event AuditEvent) {
	m.audit.emit(ctx, event)
}

func (m *Manager) storeFailure(ctx context.Context, op, subjectID string, err error) {
	m.metrics.Inc(MetricStoreError)
	m.emit(ctx, AuditEvent{
		EventType: AuditStoreError,
		SubjectID: subjectID,
		Error:     err.Error(),
		Metadata:  map[string]string{"op": op},
	})
}
