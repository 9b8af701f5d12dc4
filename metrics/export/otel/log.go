package otel

import (
	"context"
	"log/slog"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// MeterName is the instrumentation scope used by [NewLogProvider] callers.
const MeterName = "github.com/MrEthical07/dashauth"

// LogExporter is a push exporter that writes each int64 data point as one
// slog record.
type LogExporter struct {
	logger *slog.Logger
}

var _ sdkmetric.Exporter = (*LogExporter)(nil)

func NewLogExporter(logger *slog.Logger) *LogExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogExporter{logger: logger}
}

func (e *LogExporter) Temporality(k sdkmetric.InstrumentKind) metricdata.Temporality {
	return sdkmetric.DefaultTemporalitySelector(k)
}

func (e *LogExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(k)
}

// Export logs every point in rm. Non-int64 aggregations are skipped.
func (e *LogExporter) Export(ctx context.Context, rm *metricdata.ResourceMetrics) error {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				e.logPoints(ctx, m.Name, data.DataPoints)
			case metricdata.Gauge[int64]:
				e.logPoints(ctx, m.Name, data.DataPoints)
			}
		}
	}
	return nil
}

func (e *LogExporter) logPoints(ctx context.Context, name string, points []metricdata.DataPoint[int64]) {
	for _, dp := range points {
		attrs := []slog.Attr{slog.String("metric", name), slog.Int64("value", dp.Value)}
		for _, kv := range dp.Attributes.ToSlice() {
			attrs = append(attrs, slog.String(string(kv.Key), kv.Value.Emit()))
		}
		e.logger.LogAttrs(ctx, slog.LevelInfo, "metric", attrs...)
	}
}

func (e *LogExporter) ForceFlush(context.Context) error { return nil }
func (e *LogExporter) Shutdown(context.Context) error   { return nil }

// NewLogProvider returns a meter provider that pushes to logger every
// interval. Shutdown performs one last export.
func NewLogProvider(logger *slog.Logger, interval time.Duration) *sdkmetric.MeterProvider {
	reader := sdkmetric.NewPeriodicReader(NewLogExporter(logger), sdkmetric.WithInterval(interval))
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}
