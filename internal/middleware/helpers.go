// internal/middleware/helpers.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// GetUserID gets the authenticated user ID from context
func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// MustGetUserID gets user ID from context or panics
func MustGetUserID(c *gin.Context) int64 {
	userID, exists := GetUserID(c)
	if !exists {
		panic("user_id not found in context")
	}
	return userID
}

func GetJTI(c *gin.Context) string {
	return c.GetString(ctxJTI)
}

func GetRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

func GetDevice(c *gin.Context) string {
	return c.GetString(ctxDevice)
}

// GetTokenExpiry returns the access token expiry, zero when unknown.
func GetTokenExpiry(c *gin.Context) time.Time {
	return c.GetTime(ctxTokenExp)
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := GetUserID(c)
	return exists
}

// IsAdmin checks if user is an admin
func IsAdmin(c *gin.Context) bool {
	role := GetRole(c)
	return role == roleAdmin || role == roleSuperAdm
}

// IsSuperAdmin checks if user is a super admin
func IsSuperAdmin(c *gin.Context) bool {
	return GetRole(c) == roleSuperAdm
}
