package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/dashauth"
	"github.com/MrEthical07/dashauth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is read on every collection. *dashauth.Engine satisfies it.
type Source interface {
	MetricsSnapshot() dashauth.MetricsSnapshot
	AuditDropped() uint64
}

// bucketOptions tags each cumulative bucket observation with its upper bound.
var bucketOptions = func() []metric.ObserveOption {
	out := make([]metric.ObserveOption, len(internaldefs.HistogramBounds))
	for i, le := range internaldefs.HistogramBounds {
		out[i] = metric.WithAttributes(attribute.String("le", le))
	}
	return out
}()

// Exporter mirrors engine counters onto a meter. Each histogram becomes one
// gauge named <name>_bucket with an "le" attribute per cumulative bucket.
type Exporter struct {
	source       Source
	registration metric.Registration

	counters map[dashauth.MetricID]metric.Int64ObservableCounter
	buckets  map[dashauth.MetricID]metric.Int64ObservableGauge
	dropped  metric.Int64ObservableCounter
}

// New registers the instruments on meter.
func New(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{
		source:   source,
		counters: make(map[dashauth.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
		buckets:  make(map[dashauth.MetricID]metric.Int64ObservableGauge, len(internaldefs.HistogramDefs)),
	}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		c, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", def.Name, err)
		}
		e.counters[def.ID] = c
		observables = append(observables, c)
	}

	for _, def := range internaldefs.HistogramDefs {
		name := def.Name + "_bucket"
		g, err := meter.Int64ObservableGauge(name, metric.WithDescription(def.Help+" Cumulative count per upper bound."))
		if err != nil {
			return nil, fmt.Errorf("gauge %s: %w", name, err)
		}
		e.buckets[def.ID] = g
		observables = append(observables, g)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription("Audit events dropped because the dispatcher queue was full."))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", internaldefs.AuditDroppedName, err)
	}
	e.dropped = dropped
	observables = append(observables, dropped)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for id, c := range e.counters {
		o.ObserveInt64(c, int64(snapshot.Counters[id]))
	}
	for id, g := range e.buckets {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[id]))
		for i, n := range cumulative {
			o.ObserveInt64(g, int64(n), bucketOptions[i])
		}
	}
	o.ObserveInt64(e.dropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the callback. It is safe on a nil Exporter.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
