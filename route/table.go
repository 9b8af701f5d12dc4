package route

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/dashauth/permission"
	"github.com/MrEthical07/dashauth/session"
)

const (
	// LoginPath is the public login view.
	LoginPath = "/login"
	// HomePath is the dashboard root.
	HomePath = "/"
)

// Protection classifies a path.
type Protection string

const (
	Public        Protection = "public"
	Authenticated Protection = "authenticated"
	RoleBased     Protection = "role-based"
)

// Config is one static route table entry.
type Config struct {
	Path          string
	Protection    Protection
	RequiredRoles []permission.Role
	RedirectTo    string
	DisplayName   string
}

// RoleResolver derives the caller's role from a profile.
type RoleResolver func(*session.Profile) permission.Role

// Table is a read-only route table.
type Table struct {
	routes    map[string]Config
	order     []string
	hierarchy *permission.Hierarchy
	roleOf    RoleResolver
}

// Option configures a [Table].
type Option func(*Table)

// WithHierarchy sets the hierarchy used for role-based routes.
func WithHierarchy(h *permission.Hierarchy) Option {
	return func(t *Table) { t.hierarchy = h }
}

// WithRoleResolver replaces [permission.RoleOf].
func WithRoleResolver(fn RoleResolver) Option {
	return func(t *Table) { t.roleOf = fn }
}

// NewTable validates configs and builds a table.
func NewTable(configs []Config, opts ...Option) (*Table, error) {
	t := &Table{
		routes:    make(map[string]Config, len(configs)),
		hierarchy: permission.DefaultHierarchy(),
		roleOf:    permission.RoleOf,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.hierarchy == nil || t.roleOf == nil {
		return nil, errors.New("route table requires a hierarchy and role resolver")
	}

	for _, cfg := range configs {
		if !strings.HasPrefix(cfg.Path, "/") {
			return nil, fmt.Errorf("route path %q must start with /", cfg.Path)
		}
		if _, exists := t.routes[cfg.Path]; exists {
			return nil, fmt.Errorf("route %q registered twice", cfg.Path)
		}
		switch cfg.Protection {
		case Public, Authenticated, RoleBased:
		default:
			return nil, fmt.Errorf("route %q has invalid protection %q", cfg.Path, cfg.Protection)
		}
		cfg.RequiredRoles = append([]permission.Role(nil), cfg.RequiredRoles...)
		t.routes[cfg.Path] = cfg
		t.order = append(t.order, cfg.Path)
	}
	return t, nil
}

// DefaultConfigs returns the dashboard's route table entries.
func DefaultConfigs() []Config {
	return []Config{
		{Path: "/", Protection: Authenticated, DisplayName: "Dashboard"},
		{Path: "/products", Protection: Authenticated, DisplayName: "Products"},
		{Path: "/stock", Protection: Authenticated, DisplayName: "Stock Management"},
		{Path: "/sales", Protection: Authenticated, DisplayName: "Sales"},
		{Path: "/repairs", Protection: Authenticated, DisplayName: "Repairs"},
		{Path: "/purchases", Protection: Authenticated, DisplayName: "Purchases"},
		{Path: "/login", Protection: Public, DisplayName: "Login"},
	}
}

// DefaultTable returns a table built from [DefaultConfigs].
func DefaultTable() *Table {
	t, err := NewTable(DefaultConfigs())
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the entry for path.
func (t *Table) Lookup(path string) (Config, bool) {
	cfg, ok := t.routes[path]
	if !ok {
		return Config{}, false
	}
	cfg.RequiredRoles = append([]permission.Role(nil), cfg.RequiredRoles...)
	return cfg, true
}

// Paths returns the registered paths in registration order.
func (t *Table) Paths() []string {
	return append([]string(nil), t.order...)
}
