// Package prometheus exposes dashauth engine metrics as a Prometheus collector.
//
// [PrometheusExporter] implements prometheus.Collector; register it on any
// registry, or mount [PrometheusExporter.Handler] which serves a private one.
// Counters are named dashauth_*_total; the one histogram is
// dashauth_login_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
