package route

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Breadcrumb is one navigation crumb. Href is empty for the current page.
type Breadcrumb struct {
	Label string
	Href  string
}

// LoginURL returns the login path carrying intended as the redirect parameter.
func LoginURL(intended string) string {
	return LoginPath + "?redirect=" + strings.ReplaceAll(url.QueryEscape(intended), "+", "%20")
}

// LoginRedirect picks where to send a user after a successful login. Only
// registered paths other than the login page are honored.
func (t *Table) LoginRedirect(intended string) string {
	if intended == "" || intended == LoginPath {
		return HomePath
	}
	if _, ok := t.routes[intended]; ok {
		return intended
	}
	return HomePath
}

// DisplayName returns the configured display name for path, or the path
// without its leading slash and with the first letter upper-cased.
func (t *Table) DisplayName(path string) string {
	if cfg, ok := t.routes[path]; ok && cfg.DisplayName != "" {
		return cfg.DisplayName
	}
	return capitalize(strings.Replace(path, "/", "", 1))
}

// Breadcrumbs builds the trail for path, starting at the dashboard.
func (t *Table) Breadcrumbs(path string) []Breadcrumb {
	crumbs := []Breadcrumb{{Label: t.labelFor(HomePath, ""), Href: HomePath}}

	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	current := ""
	for i, segment := range segments {
		current += "/" + segment
		crumb := Breadcrumb{Label: t.labelFor(current, segment)}
		if i < len(segments)-1 {
			crumb.Href = current
		}
		crumbs = append(crumbs, crumb)
	}
	return crumbs
}

func (t *Table) labelFor(path, segment string) string {
	if cfg, ok := t.routes[path]; ok && cfg.DisplayName != "" {
		return cfg.DisplayName
	}
	if path == HomePath {
		return "Dashboard"
	}
	return capitalize(segment)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
