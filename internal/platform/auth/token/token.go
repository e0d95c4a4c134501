// Package token issues and verifies the HS256 access tokens used by the API.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wecare-ems/wecare-api/internal/domain"
	"github.com/wecare-ems/wecare-api/internal/platform/config"
)

var ErrUnauthorized = errors.New("unauthorized")

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Claims is the access token payload. Subject carries the user ID.
type Claims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c Claims) UserID() domain.UserID { return domain.UserID(c.Subject) }

// ExpiresAtTime returns the exp claim, or the zero time when absent.
func (c Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

type Issuer struct {
	cfg   config.JWTConfig
	clock Clock

	newID func() string
}

func NewIssuer(cfg config.JWTConfig, clock Clock) *Issuer {
	if clock == nil {
		clock = realClock{}
	}
	return &Issuer{cfg: cfg, clock: clock, newID: uuid.NewString}
}

// Issue mints a signed token for u. The returned claims carry the generated jti.
func (i *Issuer) Issue(u domain.User) (string, Claims, error) {
	if i.cfg.Secret == "" {
		return "", Claims{}, errors.New("token secret is not configured")
	}
	now := i.clock.Now().UTC().Truncate(time.Second)
	claims := Claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(u.ID),
			Issuer:    i.cfg.Issuer,
			ID:        i.newID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.TTL)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.cfg.Secret))
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return raw, claims, nil
}

type Verifier struct {
	cfg   config.JWTConfig
	clock Clock
}

func NewVerifier(cfg config.JWTConfig, clock Clock) *Verifier {
	if clock == nil {
		clock = realClock{}
	}
	return &Verifier{cfg: cfg, clock: clock}
}

// Verify checks the signature, issuer and expiry of raw. Every failure wraps ErrUnauthorized.
func (v *Verifier) Verify(raw string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(v.cfg.Secret), nil
	},
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.cfg.ClockSkew),
		jwt.WithTimeFunc(v.clock.Now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	return claims, nil
}
