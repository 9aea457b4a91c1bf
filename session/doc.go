// Package session provides the storage side of adminGate sessions: the [Record]
// model, its compact binary encoding, the [Store] contract with Redis and in-memory
// implementations, and the per-request [Handle] that binds one session identifier to
// a store.
//
// # Binary encoding
//
// Records are stored as a length-prefixed binary blob led by a schema version byte.
// Unknown versions are rejected on read.
//
// # Architecture boundaries
//
// This package owns persistence and identifier rotation. It does NOT decide whether a
// session is authenticated or fresh; those rules belong to adminGate.Guard.
//
// # What this package must NOT do
//
//   - Import adminGate, middleware, or jwt (no upward imports).
//   - Interpret the principal fields beyond storing them.
//   - Log session identifiers or CSRF tokens.
package session
