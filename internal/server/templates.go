package server

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/dashauth"
	"github.com/MrEthical07/dashauth/form"
	"github.com/MrEthical07/dashauth/route"
)

type loginView struct {
	Email    string
	Redirect string
	Error    string
	Errors   map[string]string
}

func fieldErrors(errs form.Errors) map[string]string {
	out := make(map[string]string, len(errs))
	for field, msg := range errs {
		out[string(field)] = msg
	}
	return out
}

type pageView struct {
	Title       string
	Breadcrumbs []route.Breadcrumb
	User        *dashauth.Profile
	Missing     bool
}

const layout = `{{define "head"}}<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>{{.}} · Repair Shop</title></head><body>{{end}}
{{define "foot"}}</body></html>{{end}}`

var loginTemplate = template.Must(template.New("login").Parse(layout + `
{{template "head" "Login"}}
<main>
<h1>Repair Shop Dashboard</h1>
{{with .Error}}<p role="alert" class="error">{{.}}</p>{{end}}
<form method="post" action="/login" novalidate>
<input type="hidden" name="redirect" value="{{.Redirect}}">
<label>Email <input type="email" name="email" value="{{.Email}}" autocomplete="username"></label>
{{with index .Errors "email"}}<p class="field-error">{{.}}</p>{{end}}
<label>Password <input type="password" name="password" autocomplete="current-password"></label>
{{with index .Errors "password"}}<p class="field-error">{{.}}</p>{{end}}
<button type="submit">Sign in</button>
</form>
</main>
{{template "foot"}}`))

var pageTemplate = template.Must(template.New("page").Parse(layout + `
{{template "head" .Title}}
<header>
<nav aria-label="breadcrumb">{{range $i, $c := .Breadcrumbs}}{{if $i}} / {{end}}{{if $c.Href}}<a href="{{$c.Href}}">{{$c.Label}}</a>{{else}}<span>{{$c.Label}}</span>{{end}}{{end}}</nav>
{{with .User}}<span class="user">{{.Username}} ({{.Email}})</span>{{end}}
<form method="post" action="/logout"><button type="submit">Log out</button></form>
</header>
<main>
<h1>{{.Title}}</h1>
{{if .Missing}}<p>This page does not exist.</p>{{end}}
</main>
{{template "foot"}}`))

func (s *Server) render(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		s.logger.Error("render template", slog.String("template", tmpl.Name()), slog.Any("err", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
