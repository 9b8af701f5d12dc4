package session

// Profile is the durable identity record persisted alongside the token.
//
// Profile values are replaced wholesale on each successful login or status check and
// are never partially mutated.
type Profile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Confirmed bool   `json:"confirmed"`
	Blocked   bool   `json:"blocked"`
}

// Clone returns a copy of p, or nil when p is nil.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}
