package route

import "github.com/MrEthical07/dashauth/session"

// ErrorType classifies a denial.
type ErrorType string

const (
	Unauthorized ErrorType = "unauthorized"
	Forbidden    ErrorType = "forbidden"
	NotFound     ErrorType = "not_found"
	TokenExpired ErrorType = "token_expired"
)

const (
	unauthorizedMessage = "You must be logged in to access this page."
	forbiddenMessage    = "You do not have permission to access this page."
)

// AccessError describes why access was denied and where to send the caller.
type AccessError struct {
	Type       ErrorType
	Message    string
	RedirectTo string
}

func (e *AccessError) Error() string {
	return string(e.Type) + ": " + e.Message
}

// Decision is the result of [Table.CheckAccess]. Error is nil when Allowed.
type Decision struct {
	Allowed bool
	Error   *AccessError
}

// CheckAccess decides whether a caller may view path.
func (t *Table) CheckAccess(path string, authenticated bool, profile *session.Profile) Decision {
	cfg, ok := t.routes[path]
	protection := Authenticated
	if ok {
		protection = cfg.Protection
	}

	if protection == Public {
		return Decision{Allowed: true}
	}

	if !authenticated || profile == nil {
		return Decision{Error: &AccessError{
			Type:       Unauthorized,
			Message:    unauthorizedMessage,
			RedirectTo: LoginPath,
		}}
	}

	if protection == RoleBased && !t.hierarchy.HasRequiredRole(t.roleOf(profile), cfg.RequiredRoles) {
		return Decision{Error: &AccessError{
			Type:       Forbidden,
			Message:    forbiddenMessage,
			RedirectTo: HomePath,
		}}
	}

	return Decision{Allowed: true}
}
