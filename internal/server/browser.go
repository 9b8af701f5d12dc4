package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/MrEthical07/dashauth"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const browserCookieMaxAge = 30 * 24 * time.Hour

type browserIDKey struct{}

func browserID(ctx context.Context) string {
	id, _ := ctx.Value(browserIDKey{}).(string)
	return id
}

// browser assigns each browser a stable id cookie and tags the request
// context for audit events.
func (s *Server) browser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(s.config.CookieName); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     s.config.CookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.config.SecureCookies || r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(browserCookieMaxAge / time.Second),
			})
		}

		ctx := context.WithValue(r.Context(), browserIDKey{}, id)
		ctx = dashauth.WithRequestID(ctx, chimw.GetReqID(ctx))
		ctx = dashauth.WithClientIP(ctx, clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// flashStore holds one pending message per browser.
type flashStore struct {
	mu   sync.Mutex
	msgs map[string]string
}

func newFlashStore() *flashStore {
	return &flashStore{msgs: make(map[string]string)}
}

func (f *flashStore) set(id, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs[id] = msg
}

func (f *flashStore) take(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := f.msgs[id]
	delete(f.msgs, id)
	return msg
}
