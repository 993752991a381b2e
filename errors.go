package hallpass

import (
	"errors"

	"github.com/hallpass-io/hallpass/session"
)

var (
	// ErrInvalidCredentials is returned by Login for both "no such account"
	// and "wrong password". The two are deliberately indistinguishable to
	// prevent account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is the unified rejection for expired, forged, unknown,
	// and replayed tokens. Which of signature, expiry, or store-miss failed
	// is audited internally and never returned to the client.
	ErrInvalidToken = errors.New("invalid token")
	// ErrValidation indicates malformed caller input (empty credential key,
	// missing token, and similar).
	ErrValidation = errors.New("invalid request input")
	// ErrPrincipalNotFound is the sentinel a [Directory] implementation
	// returns when no principal matches the lookup.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrPrincipalLookup wraps infrastructure failures of the [Directory]
	// collaborator, distinct from an absent principal.
	ErrPrincipalLookup = errors.New("principal lookup failed")
	// ErrAdmissionDenied wraps rejections from the injected [Admission]
	// collaborator.
	ErrAdmissionDenied = errors.New("admission denied")
)

// ErrStoreUnavailable aliases the session-store sentinel so callers match
// outages with a single root-package errors.Is check. Store outages are a
// hard failure of the operation; they are never treated as an absent key.
var ErrStoreUnavailable = session.ErrUnavailable
