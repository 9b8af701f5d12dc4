package dashauth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrEthical07/dashauth/jwt"
	"github.com/MrEthical07/dashauth/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testUser() LoginUser {
	return LoginUser{
		ID:        7,
		Username:  "jane",
		Email:     "jane@shop.test",
		Confirmed: true,
		CreatedAt: "2025-01-01T00:00:00.000Z",
		UpdatedAt: "2025-06-01T00:00:00.000Z",
	}
}

func tokenExpiringAt(t *testing.T, exp time.Time) string {
	t.Helper()
	issuer, err := jwt.NewIssuer(jwt.IssuerConfig{Secret: []byte("test-secret"), TTL: time.Hour, Now: testClock})
	require.NoError(t, err)
	token, err := issuer.IssueUntil(7, exp.Add(-time.Hour), exp)
	require.NoError(t, err)
	return token
}

// authServer answers the login endpoint with status and body, recording the
// decoded request.
func authServer(t *testing.T, status int, body string, seen *LoginRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/local" {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func successBody(t *testing.T, token string) string {
	t.Helper()
	data, err := json.Marshal(LoginResponse{JWT: token, User: testUser()})
	require.NoError(t, err)
	return string(data)
}

func newTestEngine(t *testing.T, baseURL string, backend session.Backend, configure ...func(*Builder)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.API.Timeout = 2 * time.Second
	cfg.Metrics.Enabled = true

	b := New().
		WithConfig(cfg).
		WithBackend(backend).
		WithLogger(discardLogger()).
		WithClock(testClock)
	for _, fn := range configure {
		fn(b)
	}
	engine, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

type failingBackend struct {
	*session.MemoryBackend
	failKey string
}

func (f *failingBackend) Set(ctx context.Context, key, value string) error {
	if f.failKey == "" || key == f.failKey {
		return errors.New("quota exceeded")
	}
	return f.MemoryBackend.Set(ctx, key, value)
}

func TestHandleLoginPersistsTokenAndProfile(t *testing.T) {
	var seen LoginRequest
	srv := authServer(t, http.StatusOK, successBody(t, "t"), &seen)
	backend := session.NewMemoryBackend()
	engine := newTestEngine(t, srv.URL+"/api", backend)

	result := engine.HandleLogin(context.Background(), "jane@shop.test", "hunter22")
	require.True(t, result.Success, result.Error)
	assert.Equal(t, LoginRequest{Identifier: "jane@shop.test", Password: "hunter22"}, seen)

	want := testUser().Profile()
	require.NotNil(t, result.User)
	assert.Equal(t, want, *result.User)

	token, ok, err := backend.Get(context.Background(), session.TokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "t", token)

	raw, ok, err := backend.Get(context.Background(), session.UserKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":7,"username":"jane","email":"jane@shop.test","confirmed":true,"blocked":false}`, raw)
	assert.Equal(t, uint64(1), engine.MetricsSnapshot().Counters[MetricLoginSuccess])
}

func TestHandleLoginRejectedPersistsNothing(t *testing.T) {
	body := `{"data":null,"error":{"status":400,"name":"ValidationError","message":"Invalid identifier or password","details":{}}}`
	srv := authServer(t, http.StatusBadRequest, body, nil)
	backend := session.NewMemoryBackend()
	engine := newTestEngine(t, srv.URL+"/api", backend)

	result := engine.HandleLogin(context.Background(), "jane@shop.test", "wrong")
	assert.Equal(t, LoginResult{Error: "Invalid identifier or password"}, result)
	assert.Equal(t, 0, backend.Len())
	assert.Equal(t, uint64(1), engine.MetricsSnapshot().Counters[MetricLoginFailure])
}

func TestLoginClassifiesFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    AuthError
		metric  MetricID
		details bool
	}{
		{
			name:    "server error fields",
			status:  http.StatusBadRequest,
			body:    `{"error":{"status":400,"name":"ValidationError","message":"Invalid identifier or password","details":{"field":"identifier"}}}`,
			want:    AuthError{Status: 400, Name: "ValidationError", Message: "Invalid identifier or password"},
			metric:  MetricLoginFailure,
			details: true,
		},
		{
			name:   "empty error object uses defaults",
			status: http.StatusUnauthorized,
			body:   `{}`,
			want:   AuthError{Status: 401, Name: "Authentication Error", Message: "Login failed"},
			metric: MetricLoginFailure,
		},
		{
			name:   "status taken from response not body",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"status":400,"name":"RateLimitError","message":"Too many requests"}}`,
			want:   AuthError{Status: 429, Name: "RateLimitError", Message: "Too many requests"},
			metric: MetricLoginFailure,
		},
		{
			name:   "non json error body",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			want:   AuthError{Status: 500, Name: "UnknownError", Message: "An unexpected error occurred during login"},
			metric: MetricLoginUnknownError,
		},
		{
			name:   "undecodable success body",
			status: http.StatusOK,
			body:   `not json`,
			want:   AuthError{Status: 500, Name: "UnknownError", Message: "An unexpected error occurred during login"},
			metric: MetricLoginUnknownError,
		},
		{
			name:   "success without jwt",
			status: http.StatusOK,
			body:   `{"user":{"id":1}}`,
			want:   AuthError{Status: 500, Name: "UnknownError", Message: "An unexpected error occurred during login"},
			metric: MetricLoginUnknownError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := authServer(t, tt.status, tt.body, nil)
			engine := newTestEngine(t, srv.URL+"/api", session.NewMemoryBackend())

			resp, err := engine.Login(context.Background(), "a", "b")
			require.Nil(t, resp)

			var authErr *AuthError
			require.True(t, errors.As(err, &authErr))
			assert.Equal(t, tt.want.Status, authErr.Status)
			assert.Equal(t, tt.want.Name, authErr.Name)
			assert.Equal(t, tt.want.Message, authErr.Message)
			if tt.details {
				assert.Equal(t, map[string]any{"field": "identifier"}, authErr.Details)
			}
			assert.False(t, authErr.IsNetwork())
			assert.Equal(t, uint64(1), engine.MetricsSnapshot().Counters[tt.metric])
		})
	}
}

func TestLoginNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL + "/api"
	srv.Close()

	backend := session.NewMemoryBackend()
	engine := newTestEngine(t, baseURL, backend)

	_, err := engine.Login(context.Background(), "a", "b")
	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, 0, authErr.Status)
	assert.Equal(t, "NetworkError", authErr.Name)
	assert.True(t, authErr.IsNetwork())
	assert.Equal(t, uint64(1), engine.MetricsSnapshot().Counters[MetricLoginNetworkError])

	result := engine.HandleLogin(context.Background(), "a", "b")
	assert.Equal(t, "Unable to connect to the authentication server. Please check your internet connection.", result.Error)
	assert.Equal(t, 0, backend.Len())
}

func TestHandleLoginStorageFailures(t *testing.T) {
	tests := []struct {
		name    string
		failKey string
		want    string
	}{
		{name: "token write", failKey: session.TokenKey, want: "Unable to store authentication token"},
		{name: "profile write", failKey: session.UserKey, want: "Unable to store user data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := authServer(t, http.StatusOK, successBody(t, "t"), nil)
			backend := &failingBackend{MemoryBackend: session.NewMemoryBackend(), failKey: tt.failKey}
			engine := newTestEngine(t, srv.URL+"/api", backend)

			result := engine.HandleLogin(context.Background(), "jane@shop.test", "pw")
			assert.Equal(t, LoginResult{Error: tt.want}, result)
			assert.Equal(t, 0, backend.Len())
			assert.False(t, engine.IsAuthenticated(context.Background()))
			assert.Equal(t, uint64(1), engine.MetricsSnapshot().Counters[MetricCredentialStoreFailure])
		})
	}
}

func seedCredentials(t *testing.T, backend session.Backend, token string, profile *Profile) {
	t.Helper()
	store := session.NewStore(backend, discardLogger())
	require.NoError(t, store.SetToken(context.Background(), token))
	if profile != nil {
		require.NoError(t, store.SetUser(context.Background(), *profile))
	}
}

func TestStatusValidSession(t *testing.T) {
	backend := session.NewMemoryBackend()
	profile := testUser().Profile()
	seedCredentials(t, backend, tokenExpiringAt(t, testNow.Add(time.Hour)), &profile)
	engine := newTestEngine(t, "http://unused.invalid/api", backend)

	status := engine.Status(context.Background())
	assert.True(t, status.Authenticated)
	assert.Equal(t, ReasonValid, status.Reason)
	require.NotNil(t, engine.CurrentUser(context.Background()))
	assert.Equal(t, profile, *engine.CurrentUser(context.Background()))
	assert.Equal(t, 2, backend.Len())
}

func TestStatusClearsLapsedTokens(t *testing.T) {
	profile := testUser().Profile()
	tests := []struct {
		name   string
		token  func(t *testing.T) string
		reason StatusReason
		metric MetricID
	}{
		{name: "expired a second ago", token: func(t *testing.T) string { return tokenExpiringAt(t, testNow.Add(-time.Second)) }, reason: ReasonExpired, metric: MetricSessionExpired},
		{name: "expires exactly now", token: func(t *testing.T) string { return tokenExpiringAt(t, testNow) }, reason: ReasonExpired, metric: MetricSessionExpired},
		{name: "expired last year", token: func(t *testing.T) string { return tokenExpiringAt(t, testNow.AddDate(-1, 0, 0)) }, reason: ReasonExpired, metric: MetricSessionExpired},
		{name: "not a jwt", token: func(*testing.T) string { return "t" }, reason: ReasonMalformed, metric: MetricSessionMalformed},
		{name: "garbage payload", token: func(*testing.T) string { return "a.!!!.c" }, reason: ReasonMalformed, metric: MetricSessionMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := session.NewMemoryBackend()
			seedCredentials(t, backend, tt.token(t), &profile)
			engine := newTestEngine(t, "http://unused.invalid/api", backend)

			status := engine.Status(context.Background())
			assert.False(t, status.Authenticated)
			assert.Equal(t, tt.reason, status.Reason)
			assert.True(t, status.Reason.TokenLapsed())
			assert.Nil(t, status.Profile)
			assert.Equal(t, 0, backend.Len())
			assert.Equal(t, uint64(1), engine.MetricsSnapshot().Counters[tt.metric])

			// Second check finds nothing to clear.
			assert.Equal(t, ReasonNoToken, engine.Status(context.Background()).Reason)
		})
	}
}

func TestStatusWithoutCredentials(t *testing.T) {
	backend := session.NewMemoryBackend()
	engine := newTestEngine(t, "http://unused.invalid/api", backend)

	assert.Equal(t, Status{Reason: ReasonNoToken}, engine.Status(context.Background()))

	seedCredentials(t, backend, "   ", nil)
	assert.Equal(t, ReasonNoToken, engine.Status(context.Background()).Reason)

	seedCredentials(t, backend, tokenExpiringAt(t, testNow.Add(time.Hour)), nil)
	status := engine.Status(context.Background())
	assert.Equal(t, ReasonNoProfile, status.Reason)
	assert.False(t, status.Authenticated)
	assert.Nil(t, engine.CurrentUser(context.Background()))
	assert.Equal(t, 1, backend.Len())
}

func TestLoginThenExpiryOverTime(t *testing.T) {
	now := testNow
	token := tokenExpiringAt(t, testNow.Add(30*time.Minute))
	srv := authServer(t, http.StatusOK, successBody(t, token), nil)
	backend := session.NewMemoryBackend()
	engine := newTestEngine(t, srv.URL+"/api", backend, func(b *Builder) {
		b.WithClock(func() time.Time { return now })
	})

	require.True(t, engine.HandleLogin(context.Background(), "jane@shop.test", "pw").Success)
	assert.True(t, engine.IsAuthenticated(context.Background()))

	now = now.Add(31 * time.Minute)
	assert.False(t, engine.IsAuthenticated(context.Background()))
	assert.Equal(t, 0, backend.Len())
}

func TestAuthHeader(t *testing.T) {
	backend := session.NewMemoryBackend()
	engine := newTestEngine(t, "http://unused.invalid/api", backend)

	assert.Empty(t, engine.AuthHeader(context.Background()))

	seedCredentials(t, backend, "abc", nil)
	assert.Equal(t, "Bearer abc", engine.AuthHeader(context.Background()).Get("Authorization"))
}

func TestLogoutIsIdempotent(t *testing.T) {
	backend := session.NewMemoryBackend()
	profile := testUser().Profile()
	seedCredentials(t, backend, tokenExpiringAt(t, testNow.Add(time.Hour)), &profile)
	engine := newTestEngine(t, "http://unused.invalid/api", backend)

	engine.Logout(context.Background())
	assert.Equal(t, 0, backend.Len())
	assert.NotPanics(t, func() { engine.Logout(context.Background()) })
	assert.Equal(t, 0, backend.Len())
	assert.False(t, engine.IsAuthenticated(context.Background()))
	assert.Equal(t, uint64(2), engine.MetricsSnapshot().Counters[MetricLogout])
}

func TestWithNamespaceIsolatesCredentials(t *testing.T) {
	srv := authServer(t, http.StatusOK, successBody(t, tokenExpiringAt(t, testNow.Add(time.Hour))), nil)
	backend := session.NewMemoryBackend()
	engine := newTestEngine(t, srv.URL+"/api", backend)

	a := engine.WithNamespace("browser-a")
	b := engine.WithNamespace("browser-b")

	require.True(t, a.HandleLogin(context.Background(), "jane@shop.test", "pw").Success)
	assert.True(t, a.IsAuthenticated(context.Background()))
	assert.False(t, b.IsAuthenticated(context.Background()))
	assert.False(t, engine.IsAuthenticated(context.Background()))

	_, ok, err := backend.Get(context.Background(), "browser-a:"+session.TokenKey)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, a.Close())
	assert.True(t, a.IsAuthenticated(context.Background()))
}

func TestNilEngineIsSafe(t *testing.T) {
	var engine *Engine

	_, err := engine.Login(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrEngineNotReady)
	assert.False(t, engine.HandleLogin(context.Background(), "a", "b").Success)
	assert.Equal(t, ReasonNoToken, engine.Status(context.Background()).Reason)
	assert.Empty(t, engine.AuthHeader(context.Background()))
	assert.NotPanics(t, func() { engine.Logout(context.Background()) })
	assert.NoError(t, engine.Close())
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithBackend(session.NewMemoryBackend())
	engine, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	_, err = b.Build()
	assert.ErrorIs(t, err, ErrBuilderUsed)
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Backend = "floppy"
	_, err := New().WithConfig(cfg).Build()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBuildOpensBoltStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.db")
	srv := authServer(t, http.StatusOK, successBody(t, tokenExpiringAt(t, testNow.Add(time.Hour))), nil)

	cfg := DefaultConfig()
	cfg.API.BaseURL = srv.URL + "/api"
	cfg.Storage.Backend = StorageBolt
	cfg.Storage.BoltPath = path

	engine, err := New().WithConfig(cfg).WithClock(testClock).WithLogger(discardLogger()).Build()
	require.NoError(t, err)
	require.True(t, engine.HandleLogin(context.Background(), "jane@shop.test", "pw").Success)
	require.NoError(t, engine.Close())

	reopened, err := New().WithConfig(cfg).WithClock(testClock).WithLogger(discardLogger()).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	status := reopened.Status(context.Background())
	assert.True(t, status.Authenticated)
	assert.Equal(t, int64(7), status.Profile.ID)
}

func TestBuildOpensRedisStorage(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := authServer(t, http.StatusOK, successBody(t, "t"), nil)

	cfg := DefaultConfig()
	cfg.API.BaseURL = srv.URL + "/api"
	cfg.Storage.Backend = StorageRedis
	cfg.Storage.RedisAddr = mr.Addr()
	cfg.Storage.RedisPrefix = "dash"

	engine, err := New().WithConfig(cfg).WithLogger(discardLogger()).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	require.True(t, engine.HandleLogin(context.Background(), "jane@shop.test", "pw").Success)
	got, err := mr.Get("dash:" + session.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "t", got)
	assert.Equal(t, cfg.Storage.RedisTTL, mr.TTL("dash:"+session.UserKey))
}

func TestLoginRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	srv := authServer(t, http.StatusBadRequest, `{"error":{"name":"ValidationError","message":"nope"}}`, nil)
	engine := newTestEngine(t, srv.URL+"/api", session.NewMemoryBackend(), func(b *Builder) {
		b.WithTracerProvider(tp)
	})

	_, err := engine.Login(context.Background(), "a", "b")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "dashauth.login", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "nope", spans[0].Status().Description)
}

func TestLoginLatencyHistogram(t *testing.T) {
	srv := authServer(t, http.StatusOK, successBody(t, "t"), nil)
	engine := newTestEngine(t, srv.URL+"/api", session.NewMemoryBackend(), func(b *Builder) {
		b.WithLatencyHistograms(true)
	})

	_, err := engine.Login(context.Background(), "a", "b")
	require.NoError(t, err)

	buckets := engine.MetricsSnapshot().Histograms[MetricLoginLatency]
	require.Len(t, buckets, 8)
	var total uint64
	for _, n := range buckets {
		total += n
	}
	assert.Equal(t, uint64(1), total)
}
