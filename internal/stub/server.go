package stub

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/MrEthical07/dashauth"
	"github.com/MrEthical07/dashauth/internal/rate"
	"github.com/MrEthical07/dashauth/jwt"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 16

type errorBody struct {
	Status  int            `json:"status"`
	Name    string         `json:"name"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

type errorResponse struct {
	Data  any       `json:"data"`
	Error errorBody `json:"error"`
}

// Server serves the auth endpoints.
type Server struct {
	dir     *Directory
	issuer  *jwt.Issuer
	logger  *slog.Logger
	limiter *rate.Limiter
}

// Option configures a [Server].
type Option func(*Server)

// WithLimiter throttles failed logins. Without one, logins are unlimited.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

func NewServer(dir *Directory, issuer *jwt.Issuer, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{dir: dir, issuer: issuer, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router mounts the endpoints under /api.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/local", s.Login)
		r.Get("/users/me", s.Me)
	})
	return r
}

// Login handles POST /api/auth/local.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req dashauth.LoginRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Identifier) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "ValidationError", "identifier is a required field")
		return
	}

	ip := clientIP(r)
	if s.throttled(r, req.Identifier, ip) {
		writeError(w, http.StatusTooManyRequests, "RateLimitError", "Too many requests, please try again later.")
		return
	}

	user, err := s.dir.Authenticate(req.Identifier, req.Password)
	switch {
	case errors.Is(err, ErrBlocked):
		s.logger.Info("stub login blocked", slog.Int64("user_id", user.ID))
		writeError(w, http.StatusBadRequest, "ApplicationError", "Your account has been blocked by an administrator")
		return
	case err != nil:
		s.recordFailure(r, req.Identifier, ip)
		writeError(w, http.StatusBadRequest, "ValidationError", "Invalid identifier or password")
		return
	}
	s.resetFailures(r, req.Identifier)

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		s.logger.Error("stub token issue failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "InternalServerError", "Internal Server Error")
		return
	}

	s.logger.Info("stub login", slog.Int64("user_id", user.ID))
	writeJSON(w, http.StatusOK, dashauth.LoginResponse{JWT: token, User: user.Wire()})
}

// Me handles GET /api/users/me for a bearer token minted by Login.
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		writeError(w, http.StatusUnauthorized, "UnauthorizedError", "Missing or invalid credentials")
		return
	}
	claims, err := s.issuer.Parse(raw)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UnauthorizedError", "Missing or invalid credentials")
		return
	}
	user, ok := s.dir.ByID(claims.ID)
	if !ok || user.Blocked {
		writeError(w, http.StatusUnauthorized, "UnauthorizedError", "Missing or invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, user.Wire())
}

// The limiter fails open: a Redis outage is logged and the login proceeds.
func (s *Server) throttled(r *http.Request, identifier, ip string) bool {
	if s.limiter == nil {
		return false
	}
	err := s.limiter.Check(r.Context(), identifier, ip)
	if errors.Is(err, rate.ErrRateLimited) {
		s.logger.Info("stub login throttled", slog.String("ip", ip))
		return true
	}
	if err != nil {
		s.logger.Warn("stub limiter check failed", slog.Any("err", err))
	}
	return false
}

func (s *Server) recordFailure(r *http.Request, identifier, ip string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Fail(r.Context(), identifier, ip); err != nil {
		s.logger.Warn("stub limiter record failed", slog.Any("err", err))
	}
}

func (s *Server) resetFailures(r *http.Request, identifier string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Reset(r.Context(), identifier); err != nil {
		s.logger.Warn("stub limiter reset failed", slog.Any("err", err))
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, name, message string) {
	writeJSON(w, status, errorResponse{
		Error: errorBody{Status: status, Name: name, Message: message, Details: map[string]any{}},
	})
}
