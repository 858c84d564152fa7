// Package auth implements the credential subsystem: password hashing,
// session token issuance and verification, the session cookie binding,
// and the authorization policy over users.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoSecret is returned when a TokenIssuer is constructed without
	// a signing key. Callers must treat this as fatal at startup.
	ErrNoSecret = errors.New("jwt signing secret is not configured")

	// ErrTokenExpired is returned for a correctly signed token past its
	// expiry.
	ErrTokenExpired = errors.New("session token expired")

	// ErrTokenInvalid is returned for a structurally valid token whose
	// signature or claims do not check out.
	ErrTokenInvalid = errors.New("session token invalid")

	// ErrTokenMalformed is returned for input that is not a JWT at all.
	ErrTokenMalformed = errors.New("session token malformed")
)

// TokenIssuer creates and verifies signed, time-bound session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer constructs a TokenIssuer. An empty secret yields
// ErrNoSecret so misconfiguration surfaces before any request is served.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the configured token lifetime. The session cookie expiry
// is derived from it.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a session token for the given user id and returns it with
// its expiry time.
func (i *TokenIssuer) Issue(userID int) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(i.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and returns the subject user id.
// Expired, tampered, and malformed tokens yield distinguished errors;
// callers typically treat all three as unauthenticated but the
// distinction matters for logs.
func (i *TokenIssuer) Verify(tokenString string) (int, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return 0, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, ErrTokenExpired
		default:
			return 0, ErrTokenInvalid
		}
	}
	if !token.Valid {
		return 0, ErrTokenInvalid
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || userID < 1 {
		return 0, ErrTokenInvalid
	}
	return userID, nil
}
