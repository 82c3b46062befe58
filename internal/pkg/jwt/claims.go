// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token purposes carried in the "purpose" claim.
const (
	PurposeAccess        = "access"
	PurposeRefresh       = "refresh"
	PurposePasswordReset = "password_reset"
)

// Claims represents the JWT claims
type Claims struct {
	UserID  int64  `json:"uid"`
	Role    string `json:"role,omitempty"`
	Device  string `json:"device,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// IsAdmin checks if the token belongs to an admin (including super admin)
func (c *Claims) IsAdmin() bool {
	return c.Role == "admin" || c.Role == "super_admin"
}

// HasAudience checks if the expected audience is listed in the claims.
func (c *Claims) HasAudience(audience string) bool {
	for _, aud := range c.Audience {
		if aud == audience {
			return true
		}
	}
	return false
}
