// Package middleware adapts an adminGate.Guard to net/http.
//
// # Chain
//
// A typical admin API chain, outermost first:
//
//	RequestID → AccessLog → CORS → Sessions → RequireAuth → RequireCSRF → handler
//
//   - [Sessions] binds a session.Handle from the session cookie and keeps the
//     cookie in step with rotation and destruction.
//   - [RequireAuth] rejects requests without a fresh authenticated session with a
//     401 JSON body and puts the Principal in the request context. When
//     Config.Session.StartSession is set it binds the session itself, so it also
//     works without [Sessions] in front of it.
//   - [RequireCSRF] checks the CSRF token on state-changing methods.
//
// # What this package must NOT do
//
//   - Decide freshness or compare CSRF tokens itself (delegates to Guard).
//   - Access Redis or any store directly.
//   - Write anything but JSON error bodies on rejection.
package middleware
