// Package internal contains helper utilities that are intentionally private
// to hallpass, currently secure random token generation.
//
// # What this package must NOT do
//
//   - Export types that appear in the public hallpass API.
//   - Be imported by any package outside the hallpass module.
package internal
