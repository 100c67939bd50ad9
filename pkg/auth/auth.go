// Package auth verifies the bearer token a job submission carries, giving
// the orchestrator a principal to record as job.Config.SubmittedBy, and
// throttles submissions per principal (SubmissionLimiter). It does not
// serve the outer HTTP surface or manage credentials; Verifier.Issue mints
// tokens only for tests and local tooling.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identifies the caller that submitted a job.
type Claims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens issued out-of-band (by whatever outer
// service fronts this module) and can issue its own for tests and local
// tooling.
type Verifier struct {
	secret   []byte
	tokenTTL time.Duration
}

// New constructs a Verifier. Panics if secret is too short to be a usable
// HMAC key, the same guard the teacher's auth service applies.
func New(secret string, tokenTTL time.Duration) *Verifier {
	if len(secret) < 16 {
		panic("jwt secret must be at least 16 characters long")
	}
	return &Verifier{secret: []byte(secret), tokenTTL: tokenTTL}
}

// Issue mints a token for userID/username/roles, expiring after tokenTTL.
func (v *Verifier) Issue(userID, username string, roles []string) (string, error) {
	if userID == "" {
		return "", errors.New("userID cannot be empty")
	}
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(v.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// Verify validates a bearer token and returns its claims. Rejects anything
// not signed with HMAC, regardless of what alg the token header claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("token cannot be empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// SubmittedBy resolves a bearer token straight to the principal string the
// orchestrator records on job.Config.SubmittedBy.
func (v *Verifier) SubmittedBy(tokenString string) (string, error) {
	claims, err := v.Verify(tokenString)
	if err != nil {
		return "", err
	}
	if claims.Username != "" {
		return claims.Username, nil
	}
	return claims.UserID, nil
}
