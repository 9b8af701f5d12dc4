package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssuerConfig configures an [Issuer].
type IssuerConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Now    func() time.Time
}

// Claims is the payload minted for a dashboard user. The numeric id matches
// the user id returned alongside the token.
type Claims struct {
	ID int64 `json:"id"`
	jwt.RegisteredClaims
}

// Issuer mints HS256 bearer tokens for the development auth server.
type Issuer struct {
	config IssuerConfig
}

// NewIssuer validates cfg and returns an Issuer.
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("hs256 requires secret")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Issuer{config: cfg}, nil
}

// Issue mints a token for userID expiring after the configured TTL.
func (i *Issuer) Issue(userID int64) (string, error) {
	now := i.config.Now()
	return i.IssueUntil(userID, now, now.Add(i.config.TTL))
}

// IssueUntil mints a token with explicit issued-at and expiry times.
func (i *Issuer) IssueUntil(userID int64, issuedAt, expiresAt time.Time) (string, error) {
	claims := Claims{
		ID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    i.config.Issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.config.Secret)
}

// Parse verifies a token minted by this issuer and returns its claims.
func (i *Issuer) Parse(token string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.config.Now),
	}
	if i.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(i.config.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return i.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
