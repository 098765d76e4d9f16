// Package oauth provides the portal's OAuth login. Completing a login
// establishes the browser session the document serving route checks.
package oauth

import (
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"gorm.io/gorm"

	"github.com/avand/docportal-backend/initializers"
	"github.com/avand/docportal-backend/models"
)

// InitStore configures the session store shared by gothic and the session
// middleware, and registers the configured providers.
func InitStore() sessions.Store {
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET is not set")
	}

	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   true,
	})
	gothic.Store = store

	goth.UseProviders(google.New(
		os.Getenv("GOOGLE_CLIENT_ID"),
		os.Getenv("GOOGLE_CLIENT_SECRET"),
		os.Getenv("GOOGLE_REDIRECT_URL"),
		"email",
		"profile",
	))

	return store
}

// BeginAuth starts the OAuth flow for the provider in the URL.
func BeginAuth(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Add("provider", c.Param("provider"))
	c.Request.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// CompleteAuth finishes the OAuth flow, finds or creates the portal user,
// and stores the login in the session before sending the browser back to
// the portal.
func CompleteAuth(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Add("provider", c.Param("provider"))
	c.Request.URL.RawQuery = q.Encode()

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		log.Error("oauth completion failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	user, err := findOrCreateOAuthUser(gothUser)
	if err != nil {
		log.Error("oauth user lookup failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process user data"})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID.String())
	if err := session.Save(); err != nil {
		log.Error("session save failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to establish session"})
		return
	}

	log.Info("portal login", "user", user.Email, "provider", gothUser.Provider)
	c.Redirect(http.StatusFound, "/portal")
}

func findOrCreateOAuthUser(gothUser goth.User) (*models.User, error) {
	if gothUser.Provider != "google" {
		return nil, fmt.Errorf("unsupported provider: %s", gothUser.Provider)
	}

	var user models.User
	err := initializers.DB.Where("google_id = ?", gothUser.UserID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("database query error: %v", err)
	}

	// Link by email when the user already exists from another login path.
	err = initializers.DB.Where("email = ?", gothUser.Email).First(&user).Error
	if err == nil {
		updates := map[string]interface{}{
			"google_id":  gothUser.UserID,
			"provider":   gothUser.Provider,
			"name":       gothUser.Name,
			"avatar_url": gothUser.AvatarURL,
		}
		if err := initializers.DB.Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to link OAuth account: %v", err)
		}
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("database query error: %v", err)
	}

	user = models.User{
		Email:     gothUser.Email,
		Name:      gothUser.Name,
		AvatarURL: gothUser.AvatarURL,
		Role:      models.RoleMember,
		Provider:  &gothUser.Provider,
		GoogleID:  &gothUser.UserID,
	}
	if err := initializers.DB.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %v", err)
	}
	return &user, nil
}
