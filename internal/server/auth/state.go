// Package auth issues and verifies the signed `state` value that protects
// the broker login redirect against forged callbacks. The state is a
// short-lived HS256 JWT, so nothing has to be stored between the redirect
// and the callback.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	stateIssuer  = common.ServiceName
	stateSubject = "kite-login"
)

// StateClaims are the claims carried in a login state token. The random ID
// makes every state unique.
type StateClaims struct {
	jwt.RegisteredClaims
}

// GenerateState returns a signed state valid for validityDuration from now.
func GenerateState(secretKey []byte, validityDuration time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, StateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    stateIssuer,
			Subject:   stateSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseState verifies signature, issuer, subject and expiry relative to now.
// An expired state yields common.ErrTokenExpired; anything else that fails
// yields an error wrapping common.ErrInvalidState.
func ParseState(stateString string, secretKey []byte, now time.Time) (*StateClaims, error) {
	claims := &StateClaims{}

	token, err := jwt.ParseWithClaims(stateString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithSubject(stateSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidState, err)
	}

	if !token.Valid {
		return nil, common.ErrInvalidState
	}

	return claims, nil
}
