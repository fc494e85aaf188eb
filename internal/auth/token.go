// Package auth validates bearer tokens at connect time. Authentication
// policy beyond that lives with the surrounding product.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/core"
	"github.com/SupriyaSandipShelke/AI-Communication-Platform-sub000/internal/domain"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// Claims carries the hub identity inside a JWT.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 bearer tokens and extracts the identity.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses the token and returns the identity it carries. Any failure
// maps onto AuthenticationFailure: the connection is refused before the
// registry sees it.
func (v *Verifier) Verify(token string) (*domain.User, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", core.ErrAuthenticationFailure, ErrExpiredToken)
		}
		return nil, fmt.Errorf("%w: %w", core.ErrAuthenticationFailure, ErrInvalidToken)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrAuthenticationFailure, ErrInvalidToken)
	}
	user, err := domain.NewUser(domain.UserID(claims.Subject), claims.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrAuthenticationFailure, err)
	}
	return user, nil
}

// Issue mints a token for an identity; used by dev tooling and tests.
func (v *Verifier) Issue(user *domain.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(user.ID),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
