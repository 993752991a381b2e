package internal

import (
	"crypto/rand"
	"encoding/base64"
)

const csrfTokenSize = 32

// NewCSRFToken returns a fresh 32-byte random token, base64url-encoded
// without padding. The value is opaque; it only matters paired with a valid
// access token for the same subject.
func NewCSRFToken() (string, error) {
	var raw [csrfTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
