// Package otel binds dashauth engine metrics to an OpenTelemetry meter.
//
// [New] registers one observable counter per engine counter and one gauge per
// histogram; a single callback reads [dashauth.Engine.MetricsSnapshot] on each
// collection. [NewLogProvider] is a small push pipeline for deployments
// without a collector: a periodic reader feeding [LogExporter].
//
// The exporter never mutates engine state.
package otel
