// Package session is the Redis adapter for the shared session state: the
// single-use refresh-token bindings, the per-subject CSRF bindings, and the
// per-subject secondary index of live refresh tokens.
//
// The adapter adds no locking of its own. Per-key Redis operations (and one
// Lua script for the consume path) are the only synchronization primitives;
// callers never read-modify-write a binding in place.
//
// Absent keys and infrastructure failures are never conflated: a missing
// binding is [ErrNotFound], while any transport or timeout failure wraps
// [ErrUnavailable] so that callers can fail closed instead of treating an
// outage as "token revoked" or, worse, "token valid".
package session
