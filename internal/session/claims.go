// ABOUTME: Read-only inspection of the bearer token's JWT claims
// ABOUTME: Signatures are not verified; results are informational only

package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the backend puts in its tokens.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

type tokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// ParseClaims decodes token without verifying its signature. The server
// stays the only authority on validity; this is for display and for
// skipping requests with an obviously expired token.
func ParseClaims(token string) (*Claims, error) {
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	c := &Claims{UserID: tc.UserID}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
	}
	if c.UserID == "" && tc.Subject != "" {
		c.UserID = tc.Subject
	}
	if c.UserID == "" {
		return nil, errors.New("token has no user id")
	}
	return c, nil
}

// Expired reports whether the token carries an expiry that has passed.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
