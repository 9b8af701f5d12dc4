package middleware

import (
	"strings"
	"sync"

	"github.com/MrEthical07/dashauth/authstate"
	"github.com/MrEthical07/dashauth/route"
)

// StateSource is the session state a [Guard] watches. *authstate.Container
// satisfies it.
type StateSource interface {
	Snapshot() authstate.State
	Subscribe(fn func(authstate.State)) (unsubscribe func())
}

// GuardResult is what a view needs to decide whether to render.
// IsLoading stays true while redirecting so protected content is not shown.
type GuardResult struct {
	IsLoading     bool
	IsAllowed     bool
	Error         *route.AccessError
	IsRedirecting bool
}

// GuardOptions customizes denial handling.
type GuardOptions struct {
	// RedirectTo replaces the denial's own redirect target.
	RedirectTo string
	// OnAccessDenied is called with every denial before any redirect.
	OnAccessDenied func(*route.AccessError)
}

// Guard evaluates the current path against a route table on every path
// change and every session change.
type Guard struct {
	source    StateSource
	table     *route.Table
	navigator authstate.Navigator
	opts      GuardOptions

	mu          sync.Mutex
	path        string
	result      GuardResult
	unsubscribe func()
}

// NewGuard binds a guard to source. Nothing is evaluated until the first
// [Guard.Navigate].
func NewGuard(source StateSource, table *route.Table, navigator authstate.Navigator, opts GuardOptions) *Guard {
	if table == nil {
		table = route.DefaultTable()
	}
	g := &Guard{
		source:    source,
		table:     table,
		navigator: navigator,
		opts:      opts,
		result:    GuardResult{IsLoading: true},
	}
	g.unsubscribe = source.Subscribe(func(s authstate.State) {
		g.mu.Lock()
		path := g.path
		g.mu.Unlock()
		if path != "" {
			g.evaluate(path, s)
		}
	})
	return g
}

// Navigate records path as the current view and evaluates it. A query string
// or fragment is ignored when matching routes.
func (g *Guard) Navigate(path string) GuardResult {
	path = routePath(path)
	g.mu.Lock()
	g.path = path
	g.mu.Unlock()
	return g.evaluate(path, g.source.Snapshot())
}

// Result returns the latest evaluation.
func (g *Guard) Result() GuardResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.result
}

// Close stops watching the state source.
func (g *Guard) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
}

func (g *Guard) evaluate(path string, s authstate.State) GuardResult {
	if s.Loading {
		return g.store(path, GuardResult{IsLoading: true})
	}

	decision := g.table.CheckAccess(path, s.Authenticated, s.Profile)
	if decision.Allowed {
		return g.store(path, GuardResult{IsAllowed: true})
	}

	denial := decision.Error
	if denial == nil {
		return g.store(path, GuardResult{})
	}
	if g.opts.OnAccessDenied != nil {
		g.opts.OnAccessDenied(denial)
	}

	target := g.opts.RedirectTo
	if target == "" {
		target = denial.RedirectTo
	}
	if target == "" || g.navigator == nil {
		return g.store(path, GuardResult{Error: denial})
	}

	result := g.store(path, GuardResult{IsLoading: true, Error: denial, IsRedirecting: true})
	g.navigator.Navigate(redirectTarget(target, path))
	return result
}

// store saves r unless the guard has moved to another path meanwhile.
func (g *Guard) store(path string, r GuardResult) GuardResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.path == path {
		g.result = r
	}
	return r
}

// redirectTarget appends the intended path when sending the caller to login.
func redirectTarget(target, intended string) string {
	if target == route.LoginPath {
		return route.LoginURL(intended)
	}
	return target
}

func routePath(target string) string {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	if target == "" {
		return "/"
	}
	return target
}
