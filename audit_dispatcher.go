package dashauth

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// auditDispatcher decouples engine calls from sink latency. With DropIfFull a
// full buffer drops the event; otherwise Emit blocks until the buffer has room
// or ctx ends, and an event abandoned by ctx also counts as dropped.
type auditDispatcher struct {
	cfg    AuditConfig
	sink   AuditSink
	logger *slog.Logger
	ch     chan AuditEvent
	done   chan struct{}
	wg     sync.WaitGroup

	dropped   atomic.Uint64
	byTypeMu  sync.Mutex
	byType    map[string]uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink, logger *slog.Logger) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &auditDispatcher{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
		ch:     make(chan AuditEvent, cfg.BufferSize),
		done:   make(chan struct{}),
		byType: make(map[string]uint64),
	}

	d.wg.Add(1)
	go d.run()
	return d
}

func (d *auditDispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case event := <-d.ch:
			d.deliver(event)
		case <-d.done:
			for {
				select {
				case event := <-d.ch:
					d.deliver(event)
				default:
					return
				}
			}
		}
	}
}

// deliver hands one event to the sink. A panicking sink loses that event
// only; the worker keeps draining so blocked logins are released.
func (d *auditDispatcher) deliver(event AuditEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("audit sink panicked",
				slog.String("event_type", event.EventType),
				slog.Any("panic", r),
			)
		}
	}()
	d.sink.Emit(context.Background(), event)
}

func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		case <-d.done:
		default:
			d.drop(event, "queue full")
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
		d.drop(event, "context done")
	case <-d.done:
	}
}

func (d *auditDispatcher) drop(event AuditEvent, why string) {
	total := d.dropped.Add(1)

	d.byTypeMu.Lock()
	d.byType[event.EventType]++
	d.byTypeMu.Unlock()

	// Report the first drop, then every 100th.
	if total == 1 || total%100 == 0 {
		d.logger.Warn("audit event dropped",
			slog.String("event_type", event.EventType),
			slog.String("namespace", event.Namespace),
			slog.String("reason", why),
			slog.Uint64("dropped_total", total),
		)
	}
}

// Close stops accepting events, flushes the buffer and waits for the sink.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// DroppedByType returns drop counts keyed by event type.
func (d *auditDispatcher) DroppedByType() map[string]uint64 {
	out := make(map[string]uint64)
	if d == nil {
		return out
	}
	d.byTypeMu.Lock()
	defer d.byTypeMu.Unlock()
	for k, v := range d.byType {
		out[k] = v
	}
	return out
}
