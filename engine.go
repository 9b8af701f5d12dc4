package dashauth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/dashauth/jwt"
	"github.com/MrEthical07/dashauth/session"
	"go.opentelemetry.io/otel/trace"
)

// maxResponseBytes bounds the auth endpoint body read.
const maxResponseBytes = 1 << 20

// Engine is the dashboard auth service. Build one with [New].
type Engine struct {
	config  Config
	client  *http.Client
	store   *session.Store
	codec   *jwt.Codec
	logger  *slog.Logger
	tracer  trace.Tracer
	audit   *auditDispatcher
	metrics *Metrics
	now     func() time.Time

	closers []func() error
	derived bool
}

// WithNamespace returns an engine whose credentials live under namespace. The
// derived engine shares the HTTP client, metrics and audit dispatcher with e;
// closing it is a no-op.
func (e *Engine) WithNamespace(namespace string) *Engine {
	if e == nil {
		return nil
	}
	derived := *e
	derived.store = e.store.WithNamespace(namespace)
	derived.logger = e.logger.With(slog.String("namespace", namespace))
	derived.closers = nil
	derived.derived = true
	return &derived
}

// Close stops the audit dispatcher and releases storage opened by Build.
func (e *Engine) Close() error {
	if e == nil || e.derived {
		return nil
	}
	e.audit.Close()

	var errs []error
	for _, closer := range e.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditDroppedByType breaks [Engine.AuditDropped] down by event type.
func (e *Engine) AuditDroppedByType() map[string]uint64 {
	if e == nil {
		return map[string]uint64{}
	}
	return e.audit.DroppedByType()
}

// MetricsSnapshot returns the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
