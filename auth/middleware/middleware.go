package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avand/docportal-backend/auth"
)

// AuthRequired rejects requests without an authenticated identity. API
// routes only; the document serving route does its own browser-aware split.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Next()
	}
}

// RequireCapability rejects authenticated requesters that lack a capability.
func RequireCapability(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !auth.UserCan(user, capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}
