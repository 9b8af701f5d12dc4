package authstate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/dashauth"
	"github.com/MrEthical07/dashauth/authstate"
	"github.com/MrEthical07/dashauth/authstate/mocks"
	"github.com/MrEthical07/dashauth/jwt"
	"github.com/MrEthical07/dashauth/session"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

type tickerFactory struct {
	mu        sync.Mutex
	tickers   []*fakeTicker
	intervals []time.Duration
}

func (f *tickerFactory) New(d time.Duration) authstate.Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	f.intervals = append(f.intervals, d)
	return t
}

func (f *tickerFactory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

func (f *tickerFactory) Last() *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[len(f.tickers)-1]
}

func fire(t *testing.T, ticker *fakeTicker) {
	t.Helper()
	select {
	case ticker.ch <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatal("ticker goroutine did not receive tick")
	}
}

func newLifecycle(t *testing.T) (*authstate.Lifecycle, *authstate.Container, *mocks.MockAuthenticator, *mocks.MockNavigator, *tickerFactory) {
	t.Helper()
	c, auth, nav := newContainer(t)
	factory := &tickerFactory{}
	l := authstate.NewLifecycle(c, auth,
		authstate.WithTickerFactory(factory.New),
		authstate.WithLifecycleLogger(quietLogger()),
	)
	t.Cleanup(l.Stop)
	return l, c, auth, nav, factory
}

func validStatus() dashauth.Status {
	return dashauth.Status{Authenticated: true, Reason: dashauth.ReasonValid, Profile: testProfile()}
}

func TestLifecycleStartWithoutSessionRunsNoTicker(t *testing.T) {
	l, c, auth, _, factory := newLifecycle(t)
	auth.EXPECT().Status(gomock.Any()).Return(dashauth.Status{Reason: dashauth.ReasonNoToken}).Times(1)

	l.Start(context.Background())
	l.Start(context.Background())

	assert.Equal(t, authstate.State{}, c.Snapshot())
	assert.False(t, l.Running())
	assert.Equal(t, 0, factory.Len())
}

func TestLifecycleStartsTickerForRestoredSession(t *testing.T) {
	l, c, auth, _, factory := newLifecycle(t)
	auth.EXPECT().Status(gomock.Any()).Return(validStatus())

	l.Start(context.Background())

	assert.True(t, c.Snapshot().Authenticated)
	assert.True(t, l.Running())
	require.Equal(t, 1, factory.Len())
	assert.Equal(t, authstate.DefaultRevalidateInterval, factory.intervals[0])
}

func TestLifecycleTickKeepsValidSession(t *testing.T) {
	l, c, auth, _, factory := newLifecycle(t)
	auth.EXPECT().Status(gomock.Any()).Return(validStatus())
	checked := make(chan struct{}, 1)
	auth.EXPECT().IsAuthenticated(gomock.Any()).DoAndReturn(func(context.Context) bool {
		checked <- struct{}{}
		return true
	})

	l.Start(context.Background())
	fire(t, factory.Last())
	<-checked

	assert.True(t, c.Snapshot().Authenticated)
	assert.True(t, l.Running())
}

func TestLifecycleTickExpiresLapsedSession(t *testing.T) {
	l, c, auth, nav, factory := newLifecycle(t)
	auth.EXPECT().Status(gomock.Any()).Return(validStatus())
	auth.EXPECT().IsAuthenticated(gomock.Any()).Return(false)
	navigated := make(chan string, 1)
	nav.EXPECT().Navigate("/login").Do(func(path string) { navigated <- path })

	l.Start(context.Background())
	ticker := factory.Last()
	fire(t, ticker)

	select {
	case <-navigated:
	case <-time.After(2 * time.Second):
		t.Fatal("expected redirect to login")
	}
	assert.Equal(t, authstate.State{Error: authstate.SessionExpiredMessage}, c.Snapshot())
	assert.False(t, l.Running())
	require.Eventually(t, ticker.stopped.Load, 2*time.Second, 5*time.Millisecond)
}

func TestLifecycleTickDoesNotOverwriteConcurrentLogout(t *testing.T) {
	l, c, auth, nav, factory := newLifecycle(t)
	auth.EXPECT().Status(gomock.Any()).Return(validStatus())
	auth.EXPECT().Logout(gomock.Any())
	nav.EXPECT().Navigate("/login").Times(1)
	auth.EXPECT().IsAuthenticated(gomock.Any()).DoAndReturn(func(ctx context.Context) bool {
		c.Logout(ctx, true)
		return false
	})

	l.Start(context.Background())
	ticker := factory.Last()
	fire(t, ticker)

	require.Eventually(t, ticker.stopped.Load, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, authstate.State{}, c.Snapshot())
	assert.False(t, l.Running())
}

func TestLifecycleLogoutStopsTicker(t *testing.T) {
	l, c, auth, _, factory := newLifecycle(t)
	auth.EXPECT().Status(gomock.Any()).Return(validStatus())
	auth.EXPECT().Logout(gomock.Any())

	l.Start(context.Background())
	ticker := factory.Last()

	c.Logout(context.Background(), false)
	assert.False(t, l.Running())
	require.Eventually(t, ticker.stopped.Load, 2*time.Second, 5*time.Millisecond)
}

func TestLifecycleAtMostOneTicker(t *testing.T) {
	l, c, auth, _, factory := newLifecycle(t)
	auth.EXPECT().Status(gomock.Any()).Return(validStatus())
	auth.EXPECT().HandleLogin(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(dashauth.LoginResult{Success: true, User: testProfile()}).Times(2)
	auth.EXPECT().Logout(gomock.Any())

	l.Start(context.Background())
	require.True(t, c.Login(context.Background(), "a@b.co", "secret1"))
	assert.Equal(t, 1, factory.Len())

	c.Logout(context.Background(), false)
	require.True(t, c.Login(context.Background(), "a@b.co", "secret1"))
	assert.Equal(t, 2, factory.Len())
	assert.True(t, l.Running())

	factory.mu.Lock()
	first := factory.tickers[0]
	factory.mu.Unlock()
	require.Eventually(t, first.stopped.Load, 2*time.Second, 5*time.Millisecond)
	assert.False(t, factory.Last().stopped.Load())
}

func TestLifecycleStopIsIdempotent(t *testing.T) {
	l, c, auth, _, factory := newLifecycle(t)
	auth.EXPECT().Status(gomock.Any()).Return(validStatus())

	l.Start(context.Background())
	ticker := factory.Last()

	l.Stop()
	l.Stop()
	assert.False(t, l.Running())
	assert.True(t, ticker.stopped.Load())

	// The container outlives the lifecycle but no longer drives tickers.
	c.Dispatch(authstate.Succeed{Profile: testProfile()})
	assert.Equal(t, 1, factory.Len())
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingNavigator) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recordingNavigator) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSessionExpiresWhenClockPassesTokenExpiry(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	issuer, err := jwt.NewIssuer(jwt.IssuerConfig{Secret: []byte("test-secret"), TTL: 10 * time.Minute, Now: clk.Now})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := issuer.Issue(1)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(dashauth.LoginResponse{
			JWT:  token,
			User: dashauth.LoginUser{ID: 1, Username: "u", Email: "test@example.com", Confirmed: true},
		})
	}))
	t.Cleanup(srv.Close)

	cfg := dashauth.DefaultConfig()
	cfg.API.BaseURL = srv.URL + "/api"
	engine, err := dashauth.New().
		WithConfig(cfg).
		WithBackend(session.NewMemoryBackend()).
		WithClock(clk.Now).
		WithLogger(quietLogger()).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	nav := &recordingNavigator{}
	c := authstate.NewContainer(engine, authstate.WithNavigator(nav), authstate.WithLogger(quietLogger()))
	factory := &tickerFactory{}
	l := authstate.NewLifecycle(c, engine, authstate.WithTickerFactory(factory.New), authstate.WithLifecycleLogger(quietLogger()))
	t.Cleanup(l.Stop)

	l.Start(context.Background())
	require.Equal(t, authstate.State{}, c.Snapshot())

	require.True(t, c.Login(context.Background(), "test@example.com", "password123"))
	require.True(t, l.Running())

	fire(t, factory.Last())
	require.Never(t, func() bool { return !c.Snapshot().Authenticated }, 50*time.Millisecond, 5*time.Millisecond)

	clk.Advance(11 * time.Minute)
	fire(t, factory.Last())

	require.Eventually(t, func() bool { return len(nav.Paths()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"/login"}, nav.Paths())
	assert.Equal(t, authstate.State{Error: "Your session has expired. Please log in again."}, c.Snapshot())
	assert.False(t, engine.IsAuthenticated(context.Background()))
}
