package jwt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Status classifies a token by the time-validity of its payload.
type Status int

const (
	// StatusValid means exp decoded and lies in the future.
	StatusValid Status = iota
	// StatusExpired means exp decoded and is at or before now.
	StatusExpired
	// StatusMalformed means the token could not be split, decoded or parsed.
	StatusMalformed
	// StatusMissingExpiry means the payload parsed but carried no usable exp.
	StatusMissingExpiry
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	case StatusMalformed:
		return "malformed"
	case StatusMissingExpiry:
		return "missing_expiry"
	default:
		return "unknown"
	}
}

// Validity is the result of [Codec.Check].
type Validity struct {
	Status    Status
	ExpiresAt time.Time
}

// Valid reports whether the token is time-valid.
func (v Validity) Valid() bool {
	return v.Status == StatusValid
}

// Codec decodes bearer tokens without verifying them.
//
// Codec is safe for concurrent use.
type Codec struct {
	parser *jwt.Parser
	now    func() time.Time
}

// NewCodec returns a Codec using now as its clock. A nil clock selects time.Now.
func NewCodec(now func() time.Time) *Codec {
	if now == nil {
		now = time.Now
	}
	return &Codec{
		parser: jwt.NewParser(jwt.WithPaddingAllowed()),
		now:    now,
	}
}

// Check decodes the payload segment of token and compares its exp claim
// (Unix seconds) with the clock. The header and signature are not inspected.
func (c *Codec) Check(token string) Validity {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[1] == "" {
		return Validity{Status: StatusMalformed}
	}

	payload, err := c.parser.DecodeSegment(parts[1])
	if err != nil {
		return Validity{Status: StatusMalformed}
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Validity{Status: StatusMalformed}
	}

	// null and zero count as absent.
	if claims["exp"] == nil {
		return Validity{Status: StatusMissingExpiry}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Validity{Status: StatusMalformed}
	}
	if exp == nil || exp.Unix() == 0 {
		return Validity{Status: StatusMissingExpiry}
	}

	if !exp.After(c.now()) {
		return Validity{Status: StatusExpired, ExpiresAt: exp.Time}
	}
	return Validity{Status: StatusValid, ExpiresAt: exp.Time}
}

// Valid is shorthand for Check(token).Valid().
func (c *Codec) Valid(token string) bool {
	return c.Check(token).Valid()
}
