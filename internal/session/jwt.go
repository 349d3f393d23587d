package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken is returned when an empty token string is passed
	ErrNoToken = errors.New("no token")

	// ErrInvalidToken is returned when the token cannot be parsed as a JWT
	ErrInvalidToken = errors.New("invalid token")

	// ErrNoExpiry is returned when the token carries no exp claim
	ErrNoExpiry = errors.New("token has no exp claim")
)

// DecodeForDisplayOnly parses a JWT access token WITHOUT verifying its
// signature and returns the raw claims.
//
// The name is the warning: the output is only trustworthy enough to render
// a username or hide an admin menu. Anything that actually matters must be
// authorized by the backend, which holds the signing key.
func DecodeForDisplayOnly(tokenString string) (jwt.MapClaims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenExpiry extracts the expiration time from an access token, for
// display in status output. Unverified, same caveat as DecodeForDisplayOnly.
func TokenExpiry(tokenString string) (time.Time, error) {
	claims, err := DecodeForDisplayOnly(tokenString)
	if err != nil {
		return time.Time{}, err
	}

	// exp is a NumericDate (Unix timestamp)
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, ErrNoExpiry
	}
	return time.Unix(int64(exp), 0), nil
}
