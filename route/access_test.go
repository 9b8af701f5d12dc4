package route

import (
	"testing"

	"github.com/MrEthical07/dashauth/permission"
	"github.com/MrEthical07/dashauth/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profile = &session.Profile{ID: 1, Username: "u", Email: "test@example.com", Confirmed: true}

func TestCheckAccessPublicRouteBypassesAuth(t *testing.T) {
	d := DefaultTable().CheckAccess("/login", false, nil)
	assert.True(t, d.Allowed)
	assert.Nil(t, d.Error)
}

func TestCheckAccessUnauthenticated(t *testing.T) {
	table := DefaultTable()

	for _, tc := range []struct {
		name          string
		authenticated bool
		profile       *session.Profile
	}{
		{"no auth no profile", false, nil},
		{"auth without profile", true, nil},
		{"profile without auth", false, profile},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := table.CheckAccess("/", tc.authenticated, tc.profile)
			require.False(t, d.Allowed)
			require.NotNil(t, d.Error)
			assert.Equal(t, Unauthorized, d.Error.Type)
			assert.Equal(t, "You must be logged in to access this page.", d.Error.Message)
			assert.Equal(t, "/login", d.Error.RedirectTo)
		})
	}
}

func TestCheckAccessAuthenticatedRoutes(t *testing.T) {
	table := DefaultTable()
	for _, path := range table.Paths() {
		assert.True(t, table.CheckAccess(path, true, profile).Allowed, path)
	}
}

func TestCheckAccessUnknownPathRequiresAuthentication(t *testing.T) {
	table := DefaultTable()

	d := table.CheckAccess("/reports/2024", false, nil)
	require.NotNil(t, d.Error)
	assert.Equal(t, Unauthorized, d.Error.Type)

	assert.True(t, table.CheckAccess("/reports/2024", true, profile).Allowed)
}

func TestCheckAccessRoleBased(t *testing.T) {
	table, err := NewTable([]Config{
		{Path: "/admin", Protection: RoleBased, RequiredRoles: []permission.Role{permission.RoleAdmin}},
		{Path: "/inventory", Protection: RoleBased, RequiredRoles: []permission.Role{permission.RoleViewer}},
		{Path: "/open", Protection: RoleBased},
	})
	require.NoError(t, err)

	d := table.CheckAccess("/admin", true, profile)
	require.False(t, d.Allowed)
	assert.Equal(t, Forbidden, d.Error.Type)
	assert.Equal(t, "You do not have permission to access this page.", d.Error.Message)
	assert.Equal(t, "/", d.Error.RedirectTo)

	assert.True(t, table.CheckAccess("/inventory", true, profile).Allowed)
	assert.True(t, table.CheckAccess("/open", true, profile).Allowed)

	// Authentication is checked before roles.
	d = table.CheckAccess("/admin", false, nil)
	assert.Equal(t, Unauthorized, d.Error.Type)
}

func TestCheckAccessCustomRoleResolver(t *testing.T) {
	table, err := NewTable(
		[]Config{{Path: "/admin", Protection: RoleBased, RequiredRoles: []permission.Role{permission.RoleAdmin}}},
		WithRoleResolver(func(*session.Profile) permission.Role { return permission.RoleAdmin }),
	)
	require.NoError(t, err)
	assert.True(t, table.CheckAccess("/admin", true, profile).Allowed)
}

func TestNewTableValidation(t *testing.T) {
	_, err := NewTable([]Config{{Path: "nope", Protection: Public}})
	assert.Error(t, err)

	_, err = NewTable([]Config{{Path: "/a", Protection: Public}, {Path: "/a", Protection: Public}})
	assert.Error(t, err)

	_, err = NewTable([]Config{{Path: "/a", Protection: "secret"}})
	assert.Error(t, err)
}

func TestLookupReturnsCopy(t *testing.T) {
	table, err := NewTable([]Config{{Path: "/a", Protection: RoleBased, RequiredRoles: []permission.Role{permission.RoleAdmin}}})
	require.NoError(t, err)

	cfg, ok := table.Lookup("/a")
	require.True(t, ok)
	cfg.RequiredRoles[0] = permission.RoleViewer

	again, _ := table.Lookup("/a")
	assert.Equal(t, permission.RoleAdmin, again.RequiredRoles[0])
}
