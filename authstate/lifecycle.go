package authstate

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultRevalidateInterval is how often an authenticated session is re-checked.
const DefaultRevalidateInterval = 5 * time.Minute

// Ticker is the subset of *time.Ticker the lifecycle uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type stdTicker struct {
	t *time.Ticker
}

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

func newStdTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// Lifecycle runs the initial status check and periodic re-validation for one
// [Container]. At most one ticker runs at a time: it starts when the session
// becomes authenticated and stops when it no longer is.
type Lifecycle struct {
	container *Container
	auth      Authenticator
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	logger    *slog.Logger

	mu          sync.Mutex
	base        context.Context
	cancelTick  context.CancelFunc
	unsubscribe func()
	started     bool
	stopped     bool
	wg          sync.WaitGroup
}

// LifecycleOption configures a [Lifecycle].
type LifecycleOption func(*Lifecycle)

// WithInterval sets the re-validation period. Non-positive values are ignored.
func WithInterval(d time.Duration) LifecycleOption {
	return func(l *Lifecycle) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithTickerFactory replaces time.NewTicker, for tests.
func WithTickerFactory(fn func(time.Duration) Ticker) LifecycleOption {
	return func(l *Lifecycle) {
		if fn != nil {
			l.newTicker = fn
		}
	}
}

func WithLifecycleLogger(logger *slog.Logger) LifecycleOption {
	return func(l *Lifecycle) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLifecycle binds a lifecycle to container. auth is consulted directly on
// each tick; pass the same authenticator the container uses.
func NewLifecycle(container *Container, auth Authenticator, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		container: container,
		auth:      auth,
		interval:  DefaultRevalidateInterval,
		newTicker: newStdTicker,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start runs CheckAuthStatus once and begins tracking the container. Later
// calls are no-ops. Cancelling ctx stops any running ticker.
func (l *Lifecycle) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	l.mu.Lock()
	if l.started || l.stopped {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.base = ctx
	l.mu.Unlock()

	unsubscribe := l.container.Subscribe(l.sync)
	l.mu.Lock()
	l.unsubscribe = unsubscribe
	l.mu.Unlock()

	l.container.CheckAuthStatus(ctx)
	l.sync(l.container.Snapshot())
}

// Stop tears down the ticker and waits for it to exit. It is idempotent and
// must not be called from a container subscriber.
func (l *Lifecycle) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	unsubscribe := l.unsubscribe
	l.stopTickerLocked()
	l.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	l.wg.Wait()
}

// Running reports whether a re-validation ticker is active.
func (l *Lifecycle) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancelTick != nil
}

func (l *Lifecycle) sync(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped || !l.started {
		return
	}
	switch {
	case s.Authenticated && l.cancelTick == nil:
		l.startTickerLocked()
	case !s.Authenticated && l.cancelTick != nil:
		l.stopTickerLocked()
	}
}

func (l *Lifecycle) startTickerLocked() {
	ctx, cancel := context.WithCancel(l.base)
	l.cancelTick = cancel
	ticker := l.newTicker(l.interval)

	l.wg.Add(1)
	go l.run(ctx, ticker)
}

// The goroutine may be the caller (a tick dispatching TokenExpired), so this
// cancels without waiting.
func (l *Lifecycle) stopTickerLocked() {
	if l.cancelTick == nil {
		return
	}
	l.cancelTick()
	l.cancelTick = nil
}

func (l *Lifecycle) run(ctx context.Context, ticker Ticker) {
	defer l.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			l.tick(ctx)
		}
	}
}

func (l *Lifecycle) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	// A logout may have landed between the tick firing and this check.
	if !l.container.Snapshot().Authenticated {
		return
	}
	if l.auth.IsAuthenticated(ctx) {
		return
	}

	if !l.container.dispatchIfAuthenticated(TokenExpired{}) {
		return
	}
	l.logger.Info("session expired during revalidation")
	l.container.redirectToLogin()
}
