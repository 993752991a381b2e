// Package password is the stateless credential verifier: bcrypt hashing and
// comparison plus the password-strength policy applied at registration.
//
// Verification never leaks why it failed. A malformed or foreign stored hash
// is reported as a plain mismatch, and [Verifier.CompareDummy] gives callers
// a way to equalize timing for unknown accounts.
package password
