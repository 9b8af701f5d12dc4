package internaldefs

import (
	"github.com/MrEthical07/dashauth"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   dashauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   dashauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter exported for dispatcher drops.
const AuditDroppedName = "dashauth_audit_dropped_total"

// CounterDefs lists every engine counter in export order.
var CounterDefs = []CounterDef{
	{ID: dashauth.MetricLoginSuccess, Name: "dashauth_login_success_total", Help: "Logins accepted by the auth server."},
	{ID: dashauth.MetricLoginFailure, Name: "dashauth_login_failure_total", Help: "Logins rejected by the auth server."},
	{ID: dashauth.MetricLoginNetworkError, Name: "dashauth_login_network_error_total", Help: "Logins that never reached the auth server."},
	{ID: dashauth.MetricLoginUnknownError, Name: "dashauth_login_unknown_error_total", Help: "Logins that failed with an unclassified error."},
	{ID: dashauth.MetricCredentialStoreFailure, Name: "dashauth_credential_store_failure_total", Help: "Accepted logins whose credentials could not be stored."},
	{ID: dashauth.MetricLogout, Name: "dashauth_logout_total", Help: "Logout operations."},
	{ID: dashauth.MetricStatusCheck, Name: "dashauth_status_check_total", Help: "Stored session inspections."},
	{ID: dashauth.MetricSessionExpired, Name: "dashauth_session_expired_total", Help: "Stored sessions cleared because the token expired."},
	{ID: dashauth.MetricSessionMalformed, Name: "dashauth_session_malformed_total", Help: "Stored sessions cleared because the token could not be decoded."},
}

// HistogramDefs lists every engine histogram.
var HistogramDefs = []HistogramDef{
	{ID: dashauth.MetricLoginLatency, Name: "dashauth_login_latency_seconds", Help: "Remote login call latency."},
}

// HistogramBounds are the bucket labels matching the engine's latency buckets.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// HistogramUpperBounds are the finite bucket bounds in seconds; the last
// engine bucket is +Inf.
var HistogramUpperBounds = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
