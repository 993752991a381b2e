// Package middleware is the per-request auth gate imposed in front of
// protected routes: it authenticates the caller from the access token, loads
// the request-scoped principal, and, for state-changing verbs, validates the
// double-submit CSRF token.
//
// A request advances through extraction, token verification, principal
// resolution, and (when mutating) CSRF validation; any failed step
// short-circuits with 401 or 403 and never reaches the protected handler.
// Unexpected internal errors (store outage, directory failure) reject with
// 503; the gate never default-admits.
package middleware
