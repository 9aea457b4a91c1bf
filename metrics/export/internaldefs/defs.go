package internaldefs

import (
	adminGate "github.com/MrEthical07/adminGate"
)

// CounterDef names one Guard counter for exporters.
type CounterDef struct {
	ID   adminGate.MetricID
	Name string
	Help string
}

// HistogramDef names one Guard histogram for exporters.
type HistogramDef struct {
	ID   adminGate.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: adminGate.MetricAuthSuccess, Name: "admingate_auth_success_total", Help: "Requests that passed RequireAuth."},
	{ID: adminGate.MetricAuthRejected, Name: "admingate_auth_rejected_total", Help: "Requests rejected for a missing or anonymous session."},
	{ID: adminGate.MetricSessionExpired, Name: "admingate_session_expired_total", Help: "Sessions purged after the freshness window."},
	{ID: adminGate.MetricSessionCreated, Name: "admingate_session_created_total", Help: "Created sessions."},
	{ID: adminGate.MetricSessionDestroyed, Name: "admingate_session_destroyed_total", Help: "Destroyed sessions."},
	{ID: adminGate.MetricCSRFAccepted, Name: "admingate_csrf_accepted_total", Help: "CSRF tokens that matched."},
	{ID: adminGate.MetricCSRFRejected, Name: "admingate_csrf_rejected_total", Help: "CSRF tokens that did not match."},
	{ID: adminGate.MetricLoginSuccess, Name: "admingate_login_success_total", Help: "Successful login attempts."},
	{ID: adminGate.MetricLoginFailure, Name: "admingate_login_failure_total", Help: "Failed login attempts."},
	{ID: adminGate.MetricLoginRateLimited, Name: "admingate_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: adminGate.MetricLogout, Name: "admingate_logout_total", Help: "Logout operations."},
	{ID: adminGate.MetricStoreFailure, Name: "admingate_store_failure_total", Help: "Session store errors on the request path."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: adminGate.MetricRequireAuthLatency, Name: "admingate_require_auth_latency_seconds", Help: "RequireAuth latency histogram."},
}

// HistogramBounds are the upper bounds of the eight latency buckets, in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds spelled for instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into Prometheus-style running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
