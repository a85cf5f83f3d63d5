package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

// AccessClaims is the payload of a short-lived access token: the subject
// id plus the small claims set the original clients rely on.
type AccessClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	TokenUse string `json:"token_use,omitempty"`
}

// AccountID returns the subject account id
func (c *AccessClaims) AccountID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration time
func (c *AccessClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *AccessClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// RefreshClaims is the deliberately minimal payload of a refresh token:
// subject id and token id only, no profile claims.
type RefreshClaims struct {
	jwt.RegisteredClaims
	TokenUse string `json:"token_use,omitempty"`
}

// AccountID returns the subject account id
func (c *RefreshClaims) AccountID() string {
	return c.RegisteredClaims.Subject
}
