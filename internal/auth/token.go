package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"expensetracker/internal/core"
)

const DefaultIssuer = "expense-tracker"

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by access tokens. Scope is the space separated list of the
// user's role names.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL is the lifetime of issued tokens.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a signed token for u that expires after the issuer's TTL.
func (i *TokenIssuer) Issue(u core.User) (string, error) {
	now := i.now()
	scopes := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		scopes = append(scopes, string(r))
	}

	claims := Claims{
		Scope: strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry and returns the identity the
// token was issued for.
func (i *TokenIssuer) Verify(token string) (Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: subject %q", ErrInvalidToken, claims.Subject)
	}

	var scopes []core.RoleName
	for _, s := range strings.Fields(claims.Scope) {
		if r, ok := core.ParseRoleName(s); ok {
			scopes = append(scopes, r)
		}
	}
	return Identity{UserID: userID, Scopes: scopes, ExpiresAt: claims.ExpiresAt.Time}, nil
}
