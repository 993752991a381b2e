// Package token is the stateless signed-token codec: two classes of signed,
// time-limited tokens (short-lived access, long-lived refresh) over
// independent HS256 secrets.
//
// Validity of an access token is purely cryptographic and time-based. A
// refresh token additionally has a session-store registration that governs
// single-use consumption; the signature here only detects tampering and
// embedded expiry (defense in depth, the store cannot express either).
package token
