// Package auth resolves the authenticated user identity from externally
// issued session tokens. Session issuance lives in a separate auth service;
// this side only verifies.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// UserResolver resolves a bearer credential to a user id.
type UserResolver interface {
	ResolveUser(token string) (string, error)
}

// Claims are the claims this service reads from a session token. The user id
// travels in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// Verifier validates HS256 session tokens signed by the external auth service.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier creates a Verifier for the given shared secret. When issuer is
// non-empty, tokens from any other issuer are rejected.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// ResolveUser validates the token and returns the user id from its subject.
func (v *Verifier) ResolveUser(tokenString string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
