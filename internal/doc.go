// Package internal contains helpers that are private to adminGate: secure random
// generation for session identifiers and CSRF tokens.
//
// # Sub-packages
//
//   - rate: Redis-backed fixed-window login throttling
//   - logging: slog handler construction for the commands
//   - appconfig: file + environment configuration for cmd/admin-gate
//
// # What this package must NOT do
//
//   - Export types that appear in the public adminGate API.
//   - Be imported by any package outside the adminGate module.
package internal
