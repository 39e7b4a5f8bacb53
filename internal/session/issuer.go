// Package session mints and verifies signed bearer tokens.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mdsaddlery/storefront/internal/model"
)

var (
	// ErrUnauthenticated is returned for a missing, malformed, tampered or expired token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when a valid token carries the wrong role.
	ErrForbidden = errors.New("forbidden")
)

// Claims is the decoded token payload.
type Claims struct {
	AccountID string     `json:"account_id"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs tokens with a shared HMAC secret.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates an Issuer for the given secret.
func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

// NewIssuerWithClock creates an Issuer with a custom clock.
// Primarily used for testing.
func NewIssuerWithClock(secret string, now func() time.Time) *Issuer {
	return &Issuer{secret: []byte(secret), now: now}
}

// Issue returns a signed token for the account and its absolute expiry.
func (i *Issuer) Issue(accountID uuid.UUID, email string, role model.Role, ttl time.Duration) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		AccountID: accountID.String(),
		Email:     email,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, algorithm and expiry of a token.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrUnauthenticated
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}
	if _, err := uuid.Parse(claims.AccountID); err != nil {
		return nil, ErrUnauthenticated
	}
	return claims, nil
}

// Authorize verifies the token and requires the given role.
func (i *Issuer) Authorize(tokenString string, role model.Role) (*Claims, error) {
	claims, err := i.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Role != role {
		return nil, ErrForbidden
	}
	return claims, nil
}

// AccountUUID returns the parsed account id.
func (c *Claims) AccountUUID() uuid.UUID {
	id, _ := uuid.Parse(c.AccountID)
	return id
}
