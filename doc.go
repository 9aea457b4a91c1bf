// Package adminGate authenticates administrators of a single-page admin
// application through server-side sessions.
//
// A [Guard] owns the session lifecycle: [Guard.CreateSession] binds a principal
// under a freshly rotated identifier, [Guard.RequireAuth] enforces the idle
// freshness window, [Guard.ValidateCSRF] checks the per-session CSRF token, and
// [Guard.DestroySession] removes the session. [Guard.Login] adds credential
// checks and throttling on top.
//
// Guard methods are safe to call from multiple goroutines after
// [Builder.Build]. Per-request state lives in a [session.Handle].
//
// # Architecture boundaries
//
// adminGate is the public surface. HTTP concerns live in middleware/, storage in
// session/, cookie signing in jwt/, hashing in password/. Throttling and
// randomness live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Touch http.Request or http.ResponseWriter (middleware/ does that).
//   - Expose Redis clients or record encoding in its public API.
//   - Swallow store or randomness failures; they are returned wrapped.
package adminGate
