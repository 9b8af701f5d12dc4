package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/dashauth/form"
	"github.com/MrEthical07/dashauth/middleware"
	"github.com/MrEthical07/dashauth/route"
)

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	redirect := r.URL.Query().Get("redirect")
	st := s.state(r)
	if st.Authenticated {
		http.Redirect(w, r, s.table.LoginRedirect(redirect), http.StatusSeeOther)
		return
	}

	s.render(w, http.StatusOK, loginTemplate, loginView{
		Redirect: redirect,
		Error:    s.flash.take(browserID(r.Context())),
		Errors:   map[string]string{},
	})
}

func (s *Server) submitLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	redirect := r.PostFormValue("redirect")

	f := form.New()
	f.Set(form.FieldEmail, r.PostFormValue("email"))
	f.Set(form.FieldPassword, r.PostFormValue("password"))

	c := s.container(r)
	if f.Submit(r.Context(), c.Login) {
		http.Redirect(w, r, s.table.LoginRedirect(redirect), http.StatusSeeOther)
		return
	}

	status := http.StatusUnprocessableEntity
	st := c.Snapshot()
	if st.Error != "" {
		status = http.StatusUnauthorized
	}
	s.render(w, status, loginTemplate, loginView{
		Email:    f.Values().Email,
		Redirect: redirect,
		Error:    st.Error,
		Errors:   fieldErrors(f.Errors()),
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.container(r).Logout(r.Context(), false)
	http.Redirect(w, r, route.LoginPath, http.StatusSeeOther)
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	st, _ := middleware.StateFromContext(r.Context())
	path := r.URL.Path
	s.render(w, http.StatusOK, pageTemplate, pageView{
		Title:       s.table.DisplayName(path),
		Breadcrumbs: s.table.Breadcrumbs(path),
		User:        st.Profile,
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	st, _ := middleware.StateFromContext(r.Context())
	s.render(w, http.StatusNotFound, pageTemplate, pageView{
		Title:       "Not Found",
		Breadcrumbs: s.table.Breadcrumbs(r.URL.Path),
		User:        st.Profile,
		Missing:     true,
	})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	st, _ := middleware.StateFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st.Profile); err != nil {
		s.logger.Warn("encode profile", slog.Any("err", err))
	}
}
