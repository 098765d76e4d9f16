package auth

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avand/docportal-backend/initializers"
	"github.com/avand/docportal-backend/models"
)

// Capabilities consumed by the portal. The mapping of roles to capabilities
// belongs to the permissions subsystem; only the names are fixed here.
const (
	CapReadDocuments   = "read_documents"
	CapManageDocuments = "manage_documents"
)

// UserCan decides whether a user holds a capability. The permissions
// subsystem replaces this at boot; the default maps the built-in roles.
var UserCan = func(user *models.User, capability string) bool {
	if user == nil {
		return false
	}
	switch user.Role {
	case models.RoleAdmin:
		return true
	case models.RoleMember:
		return capability == CapReadDocuments
	}
	return false
}

const currentUserKey = "currentUser"

// CurrentUser resolves the requester from the session or a Bearer token,
// caching the lookup on the request context. Nil means not logged in.
func CurrentUser(c *gin.Context) *models.User {
	if u, ok := c.Get(currentUserKey); ok {
		user, _ := u.(*models.User)
		return user
	}

	userID := sessionUserID(c)
	if userID == "" {
		userID = bearerUserID(c)
	}
	if userID == "" {
		return nil
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil
	}
	var user models.User
	if err := initializers.DB.First(&user, "id = ?", uid).Error; err != nil {
		return nil
	}
	c.Set(currentUserKey, &user)
	return &user
}

// IsLoggedIn reports whether the requester has any authenticated identity,
// regardless of capabilities.
func IsLoggedIn(c *gin.Context) bool {
	return CurrentUser(c) != nil
}

func sessionUserID(c *gin.Context) string {
	// The session middleware may not be installed on every route tree.
	if _, exists := c.Get(sessions.DefaultKey); !exists {
		return ""
	}
	session := sessions.Default(c)
	if v := session.Get("user_id"); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func bearerUserID(c *gin.Context) string {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	id, err := ValidateToken(parts[1])
	if err != nil {
		return ""
	}
	return id
}
