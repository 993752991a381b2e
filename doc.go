// Package hallpass implements the session and authentication core for a
// multi-tenant resource API: issuance, verification, rotation, and revocation
// of bearer credentials plus double-submit CSRF protection, coordinated
// through a Redis key-value store under concurrent, unordered HTTP requests.
//
// The package is designed for concurrent server workloads: Manager methods are
// safe to call from multiple goroutines after construction through
// [Builder.Build].
//
// # Architecture boundaries
//
// hallpass is the public surface. It exposes [Manager], [Builder], [Config],
// the error sentinels, and value types ([TokenTriple], [Principal],
// [AuditEvent]). The signed-token codec, the Redis session-store adapter, the
// credential verifier, and the HTTP gate live in the token, session, password,
// and middleware sub-packages. Resource CRUD (users, roles, tenants) is not
// part of this module; principals are loaded through the caller-supplied
// [Directory] collaborator and treated as opaque for the request.
//
// # What this package must NOT do
//
//   - Read environment variables outside of [ConfigFromEnv].
//   - Hold a process-wide Redis singleton; the client is injected at build.
//   - Default-admit on any ambiguous condition. Store outages surface as
//     [ErrStoreUnavailable] and always fail the operation closed.
//
// # Consistency contract
//
// Refresh tokens are single-use. Rotation deletes the presented binding
// atomically before minting its replacement, so a replayed token can never
// succeed twice; the losing side of a concurrent rotation observes
// [ErrInvalidToken]. Every store entry carries a TTL; nothing outlives its
// declared lifetime even if never explicitly deleted.
package hallpass
