package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded shape of the access token.
type Claims struct {
	jwt.RegisteredClaims
	Name        string   `json:"name,omitempty"`
	Username    string   `json:"username,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Companies   []int64  `json:"companies,omitempty"`
}

// ErrInvalidToken is returned when a token cannot be decoded.
var ErrInvalidToken = errors.New("invalid access token")

// Decode reads the claims without verifying the signature; the backend owns verification.
func Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// ExpiresAtTime is the expiry claim, zero when the token has none.
func (c *Claims) ExpiresAtTime() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Expired reports whether the expiry claim is before now. Tokens without exp never expire.
func (c *Claims) Expired(now time.Time) bool {
	exp := c.ExpiresAtTime()
	return !exp.IsZero() && exp.Before(now)
}

// DisplayName prefers the full name, then the username, then the subject.
func (c *Claims) DisplayName() string {
	switch {
	case c == nil:
		return ""
	case c.Name != "":
		return c.Name
	case c.Username != "":
		return c.Username
	default:
		return c.Subject
	}
}

// Permits reports whether companyID is one of the accessible companies.
func (c *Claims) Permits(companyID int64) bool {
	if c == nil {
		return false
	}
	for _, id := range c.Companies {
		if id == companyID {
			return true
		}
	}
	return false
}
