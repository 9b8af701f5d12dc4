package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/dashauth"
	"github.com/MrEthical07/dashauth/authstate"
	"github.com/MrEthical07/dashauth/middleware"
	"github.com/MrEthical07/dashauth/route"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Server serves the dashboard.
type Server struct {
	engine  *dashauth.Engine
	table   *route.Table
	config  dashauth.ServerConfig
	logger  *slog.Logger
	metrics http.Handler
	flash   *flashStore
}

// Option configures a [Server].
type Option func(*Server)

// WithTable replaces [route.DefaultTable].
func WithTable(t *route.Table) Option {
	return func(s *Server) {
		if t != nil {
			s.table = t
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func New(engine *dashauth.Engine, cfg dashauth.ServerConfig, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		table:  route.DefaultTable(),
		config: cfg,
		logger: slog.Default(),
		flash:  newFlashStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config.CookieName == "" {
		s.config.CookieName = dashauth.DefaultConfig().Server.CookieName
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.browser)

		r.Get(route.LoginPath, s.loginPage)
		r.Post(route.LoginPath, s.submitLogin)
		r.Post("/logout", s.logout)
		r.With(middleware.RequireAuth(s.state)).Get("/api/me", s.me)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoute(s.table, s.state))
			for _, path := range s.table.Paths() {
				if path == route.LoginPath {
					continue
				}
				r.Get(path, s.page)
			}
		})
	})

	guarded := s.browser(middleware.RequireRoute(s.table, s.state)(http.HandlerFunc(s.notFound)))
	r.NotFound(guarded.ServeHTTP)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- err
			return
		}
		done <- nil
	}()
	s.logger.Info("dashboard listening", slog.String("addr", httpServer.Addr))

	select {
	case <-ctx.Done():
		timeout := s.config.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-done:
		return err
	}
}

// container returns a state container bound to the caller's credentials.
func (s *Server) container(r *http.Request) *authstate.Container {
	return authstate.NewContainer(
		s.engine.WithNamespace(browserID(r.Context())),
		authstate.WithLogger(s.logger),
	)
}

// state settles the caller's session from storage. An expiry message is kept
// for the next login page view.
func (s *Server) state(r *http.Request) authstate.State {
	c := s.container(r)
	c.CheckAuthStatus(r.Context())
	st := c.Snapshot()
	if st.Error != "" {
		s.flash.set(browserID(r.Context()), st.Error)
	}
	return st
}
