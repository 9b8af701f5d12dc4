package authstate

import "github.com/MrEthical07/dashauth"

// User-facing messages set by transitions and container actions.
const (
	SessionExpiredMessage = "Your session has expired. Please log in again."
	CheckFailedMessage    = "Authentication check failed"
	LoginFailedMessage    = "Login failed"
	UnexpectedMessage     = "An unexpected error occurred"
)

// State is the session as seen by views. Authenticated implies Profile is
// non-nil; Loading implies Error is empty.
type State struct {
	Authenticated bool
	Profile       *dashauth.Profile
	Loading       bool
	Error         string
}

// Initial is the state before the first status check completes.
func Initial() State {
	return State{Loading: true}
}

// HasError reports whether the last settled transition failed.
func (s State) HasError() bool {
	return s.Error != ""
}

func (s State) clone() State {
	s.Profile = s.Profile.Clone()
	return s
}

// Action is one of the transitions accepted by [Reduce].
type Action interface {
	action()
}

// BeginAuth marks an auth attempt in flight and clears the previous error.
type BeginAuth struct{}

// Succeed records an authenticated profile.
type Succeed struct {
	Profile *dashauth.Profile
}

// Fail records a failed attempt and drops any session.
type Fail struct {
	Message string
}

// Logout settles into the clean, never-logged-in state.
type Logout struct{}

// ClearError dismisses the current error only.
type ClearError struct{}

// TokenExpired drops the session with [SessionExpiredMessage].
type TokenExpired struct{}

func (BeginAuth) action()    {}
func (Succeed) action()      {}
func (Fail) action()         {}
func (Logout) action()       {}
func (ClearError) action()   {}
func (TokenExpired) action() {}

// Reduce returns the state after a. It does not modify s. A Succeed without a
// profile, or an unknown action, leaves the state unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case BeginAuth:
		s.Loading = true
		s.Error = ""
	case Succeed:
		if a.Profile == nil {
			return s
		}
		return State{Authenticated: true, Profile: a.Profile.Clone()}
	case Fail:
		return State{Error: a.Message}
	case Logout:
		return State{}
	case ClearError:
		s.Error = ""
	case TokenExpired:
		return State{Error: SessionExpiredMessage}
	}
	return s
}
