// Package rate implements the fixed-window login limiter backed by Redis.
//
// # Window semantics
//
// Fixed-window counters: one Lua script runs INCR and sets the TTL on the first
// hit (or on any counter found without one). Key layout:
//   - <prefix>:lu:<username>: failed logins per username
//   - <prefix>:li:<ip>: failed logins per client IP
//
// # What this package must NOT do
//
//   - Decide what counts as a failed login (the Guard does).
//   - Be imported outside the adminGate module.
package rate
