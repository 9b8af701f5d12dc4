package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrProfileCorrupt is returned by [DecodeProfile] when the persisted blob is not a
// JSON profile object.
var ErrProfileCorrupt = errors.New("profile corrupt")

// EncodeProfile serializes p into the persisted JSON layout
// {id, username, email, confirmed, blocked}.
func EncodeProfile(p Profile) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeProfile parses a persisted profile blob. A JSON null or an empty blob is
// reported as corrupt so callers never receive a zero-value profile.
func DecodeProfile(data string) (*Profile, error) {
	if strings.TrimSpace(data) == "" {
		return nil, ErrProfileCorrupt
	}

	var p *Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileCorrupt, err)
	}
	if p == nil {
		return nil, ErrProfileCorrupt
	}

	return p, nil
}
