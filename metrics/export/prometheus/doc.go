// Package prometheus renders adminGate counters in the Prometheus text exposition
// format.
//
// [New] wraps a Guard and exposes an http.Handler for a /metrics route. Counter
// names are admingate_*_total; the single histogram is
// admingate_require_auth_latency_seconds.
//
// # What this package must NOT do
//
//   - Register anything in a global registry; callers mount the Handler.
//   - Mutate Guard state.
package prometheus
