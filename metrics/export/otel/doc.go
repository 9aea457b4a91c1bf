// Package otel publishes adminGate counters through OpenTelemetry observable
// instruments.
//
// [New] registers one Int64ObservableCounter per Guard counter and, for the
// RequireAuth latency histogram, one Int64ObservableGauge of cumulative bucket
// counts with an "le" attribute. A single callback reads the Guard snapshot on
// each collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate Guard state.
package otel
