// Package auth provides JWT token validation for the API.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"stockledger/internal/core/actor"
)

// Claims is the expected token payload. Subject identifies the actor.
type Claims struct {
	jwt.RegisteredClaims

	// Name is an optional display name for audit trails
	Name string `json:"name,omitempty"`
}

// JWTValidator validates HMAC-signed tokens.
type JWTValidator struct {
	secret []byte
	issuer string
}

// NewJWTValidator creates a validator. Issuer is optional; when set, tokens
// from other issuers are rejected.
func NewJWTValidator(secret, issuer string) *JWTValidator {
	return &JWTValidator{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// ValidateToken parses and verifies a token, returning the acting identity.
func (v *JWTValidator) ValidateToken(tokenString string) (actor.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return actor.Actor{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return actor.Actor{}, fmt.Errorf("token is not valid")
	}
	if claims.Subject == "" {
		return actor.Actor{}, fmt.Errorf("token has no subject")
	}

	return actor.Actor{
		ID:   claims.Subject,
		Name: claims.Name,
	}, nil
}

// IssueToken signs a token for the given actor. Used by tests and local
// tooling; production tokens come from the identity provider.
func (v *JWTValidator) IssueToken(a actor.Actor, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = a.ID
	if v.issuer != "" {
		claims.Issuer = v.issuer
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: claims,
		Name:             a.Name,
	})
	return token.SignedString(v.secret)
}
