package middleware

import (
	"sync"
	"testing"

	"github.com/MrEthical07/dashauth"
	"github.com/MrEthical07/dashauth/authstate"
	"github.com/MrEthical07/dashauth/permission"
	"github.com/MrEthical07/dashauth/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingNavigator) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recordingNavigator) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func testProfile() *dashauth.Profile {
	return &dashauth.Profile{ID: 1, Username: "u", Email: "test@example.com", Confirmed: true}
}

func adminTable(t *testing.T) *route.Table {
	t.Helper()
	configs := append(route.DefaultConfigs(), route.Config{
		Path:          "/settings",
		Protection:    route.RoleBased,
		RequiredRoles: []permission.Role{permission.RoleAdmin},
	})
	table, err := route.NewTable(configs)
	require.NoError(t, err)
	return table
}

func newGuard(t *testing.T, opts GuardOptions) (*Guard, *authstate.Container, *recordingNavigator) {
	t.Helper()
	c := authstate.NewContainer(nil)
	nav := &recordingNavigator{}
	g := NewGuard(c, adminTable(t), nav, opts)
	t.Cleanup(g.Close)
	return g, c, nav
}

func TestGuardWaitsWhileLoading(t *testing.T) {
	g, _, nav := newGuard(t, GuardOptions{})

	assert.Equal(t, GuardResult{IsLoading: true}, g.Navigate("/products"))
	assert.Empty(t, nav.Paths())
}

func TestGuardAllowsAuthenticatedSession(t *testing.T) {
	g, c, nav := newGuard(t, GuardOptions{})
	c.Dispatch(authstate.Succeed{Profile: testProfile()})

	assert.Equal(t, GuardResult{IsAllowed: true}, g.Navigate("/"))
	assert.Empty(t, nav.Paths())
}

func TestGuardAllowsPublicRouteWithoutSession(t *testing.T) {
	g, c, _ := newGuard(t, GuardOptions{})
	c.Dispatch(authstate.Logout{})

	assert.Equal(t, GuardResult{IsAllowed: true}, g.Navigate("/login"))
}

func TestGuardRedirectsToLoginWithIntendedPath(t *testing.T) {
	g, c, nav := newGuard(t, GuardOptions{})
	c.Dispatch(authstate.Logout{})

	res := g.Navigate("/stock")
	assert.True(t, res.IsLoading)
	assert.True(t, res.IsRedirecting)
	assert.False(t, res.IsAllowed)
	require.NotNil(t, res.Error)
	assert.Equal(t, route.Unauthorized, res.Error.Type)
	assert.Equal(t, "You must be logged in to access this page.", res.Error.Message)
	assert.Equal(t, []string{"/login?redirect=%2Fstock"}, nav.Paths())
}

func TestGuardEscapesIntendedPath(t *testing.T) {
	g, c, nav := newGuard(t, GuardOptions{})
	c.Dispatch(authstate.Logout{})

	g.Navigate("/reports/q1 2026")
	assert.Equal(t, []string{"/login?redirect=%2Freports%2Fq1%202026"}, nav.Paths())
}

func TestGuardIgnoresQueryWhenMatchingRoutes(t *testing.T) {
	g, c, nav := newGuard(t, GuardOptions{})
	c.Dispatch(authstate.Logout{})

	res := g.Navigate(route.LoginURL("/stock"))
	assert.Equal(t, GuardResult{IsAllowed: true}, res)
	assert.Empty(t, nav.Paths())

	g.Navigate("/stock?tab=low#top")
	assert.Equal(t, []string{"/login?redirect=%2Fstock"}, nav.Paths())
}

func TestGuardForbiddenRedirectsHome(t *testing.T) {
	var denied []*route.AccessError
	g, c, nav := newGuard(t, GuardOptions{
		OnAccessDenied: func(err *route.AccessError) { denied = append(denied, err) },
	})
	c.Dispatch(authstate.Succeed{Profile: testProfile()})

	res := g.Navigate("/settings")
	require.NotNil(t, res.Error)
	assert.Equal(t, route.Forbidden, res.Error.Type)
	assert.True(t, res.IsRedirecting)
	assert.Equal(t, []string{"/"}, nav.Paths())
	require.Len(t, denied, 1)
	assert.Equal(t, route.Forbidden, denied[0].Type)
}

func TestGuardRedirectOverride(t *testing.T) {
	g, c, nav := newGuard(t, GuardOptions{RedirectTo: "/denied"})
	c.Dispatch(authstate.Logout{})

	g.Navigate("/sales")
	assert.Equal(t, []string{"/denied"}, nav.Paths())
}

func TestGuardWithoutNavigatorExposesError(t *testing.T) {
	c := authstate.NewContainer(nil)
	g := NewGuard(c, nil, nil, GuardOptions{})
	defer g.Close()
	c.Dispatch(authstate.Logout{})

	res := g.Navigate("/")
	assert.False(t, res.IsLoading)
	assert.False(t, res.IsRedirecting)
	require.NotNil(t, res.Error)
	assert.Equal(t, route.Unauthorized, res.Error.Type)
}

func TestGuardReevaluatesOnStateChange(t *testing.T) {
	g, c, nav := newGuard(t, GuardOptions{})

	require.True(t, g.Navigate("/products").IsLoading)

	c.Dispatch(authstate.Succeed{Profile: testProfile()})
	assert.Equal(t, GuardResult{IsAllowed: true}, g.Result())

	c.Dispatch(authstate.TokenExpired{})
	res := g.Result()
	assert.True(t, res.IsRedirecting)
	assert.Equal(t, []string{"/login?redirect=%2Fproducts"}, nav.Paths())

	// A later successful login clears the redirecting flag.
	c.Dispatch(authstate.Succeed{Profile: testProfile()})
	assert.Equal(t, GuardResult{IsAllowed: true}, g.Result())
}

func TestGuardCloseStopsWatching(t *testing.T) {
	g, c, nav := newGuard(t, GuardOptions{})
	c.Dispatch(authstate.Succeed{Profile: testProfile()})
	g.Navigate("/products")

	g.Close()
	c.Dispatch(authstate.Logout{})
	assert.Equal(t, GuardResult{IsAllowed: true}, g.Result())
	assert.Empty(t, nav.Paths())
}
