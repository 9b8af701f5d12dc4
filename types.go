package dashauth

import "github.com/MrEthical07/dashauth/session"

// Profile is the persisted identity record.
type Profile = session.Profile

// LoginRequest is the body posted to the auth endpoint.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginUser is the full user object returned by the auth endpoint.
type LoginUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Confirmed bool   `json:"confirmed"`
	Blocked   bool   `json:"blocked"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Profile drops the server timestamps.
func (u LoginUser) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Confirmed: u.Confirmed,
		Blocked:   u.Blocked,
	}
}

// LoginResponse is the decoded 2xx body of the auth endpoint.
type LoginResponse struct {
	JWT  string    `json:"jwt"`
	User LoginUser `json:"user"`
}

// LoginResult is the total outcome of [Engine.HandleLogin].
type LoginResult struct {
	Success bool
	User    *Profile
	Error   string
}

// StatusReason explains a [Status].
type StatusReason int

const (
	// ReasonValid means token and profile are present and the token is time-valid.
	ReasonValid StatusReason = iota
	// ReasonNoToken means no non-blank token is stored.
	ReasonNoToken
	// ReasonNoProfile means a usable token is stored without a profile.
	ReasonNoProfile
	// ReasonExpired means the stored token's exp has passed. Credentials were cleared.
	ReasonExpired
	// ReasonMalformed means the stored token could not be decoded or had no exp.
	// Credentials were cleared.
	ReasonMalformed
)

func (r StatusReason) String() string {
	switch r {
	case ReasonValid:
		return "valid"
	case ReasonNoToken:
		return "no_token"
	case ReasonNoProfile:
		return "no_profile"
	case ReasonExpired:
		return "expired"
	case ReasonMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// TokenLapsed reports whether a stored token existed but failed its time check.
func (r StatusReason) TokenLapsed() bool {
	return r == ReasonExpired || r == ReasonMalformed
}

// Status is the result of [Engine.Status].
type Status struct {
	Authenticated bool
	Reason        StatusReason
	Profile       *Profile
}
