package middleware

import (
	"context"
	"net/http"

	"github.com/MrEthical07/dashauth/authstate"
	"github.com/MrEthical07/dashauth/route"
)

const loginRequiredMessage = "Please log in to access this page."

type stateContextKey struct{}

// StateFromContext returns the session state attached by [RequireRoute] or
// [RequireAuth].
func StateFromContext(ctx context.Context) (authstate.State, bool) {
	s, ok := ctx.Value(stateContextKey{}).(authstate.State)
	return s, ok
}

// StateFunc resolves the session state of the browser making r.
type StateFunc func(r *http.Request) authstate.State

// RequireRoute checks r.URL.Path against table. Denials with a redirect
// target become 303 See Other (login redirects carry ?redirect=); denials
// without one, or whose target is the requested path, become 403.
func RequireRoute(table *route.Table, state StateFunc) func(http.Handler) http.Handler {
	if table == nil {
		table = route.DefaultTable()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if state == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			s := state(r)
			authenticated := s.Authenticated && !s.Loading
			decision := table.CheckAccess(r.URL.Path, authenticated, s.Profile)
			if decision.Allowed {
				ctx := context.WithValue(r.Context(), stateContextKey{}, s)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			denial := decision.Error
			if denial == nil {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if denial.RedirectTo == "" || denial.RedirectTo == r.URL.Path {
				http.Error(w, denial.Message, http.StatusForbidden)
				return
			}
			http.Redirect(w, r, redirectTarget(denial.RedirectTo, r.URL.Path), http.StatusSeeOther)
		})
	}
}

// RequireAuth rejects unauthenticated requests with 401 and leaves routing
// rules to the caller.
func RequireAuth(state StateFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if state == nil {
				http.Error(w, loginRequiredMessage, http.StatusUnauthorized)
				return
			}
			s := state(r)
			if s.Loading || !s.Authenticated || s.Profile == nil {
				http.Error(w, loginRequiredMessage, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), stateContextKey{}, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
