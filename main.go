package main

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/avand/docportal-backend/auth/middleware"
	"github.com/avand/docportal-backend/auth/oauth"
	"github.com/avand/docportal-backend/docfiles"
	"github.com/avand/docportal-backend/initializers"
	"github.com/avand/docportal-backend/jobs"
	"github.com/avand/docportal-backend/routes"
	"github.com/avand/docportal-backend/storage"
)

const defaultPort = "8080"

func main() {
	initializers.ConnectToDatabase()
	storage.Options = initializers.DBOptions{}

	// Deliberately fatal: falling back to a web-accessible directory would
	// silently expose every document.
	if err := storage.Activate(); err != nil {
		log.Fatal("document portal activation failed", "err", err)
	}

	docfiles.RegisterFilters()
	sessionStore := oauth.InitStore()

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	siteURL := os.Getenv("SITE_URL")
	if siteURL == "" {
		siteURL = "http://localhost:" + port
	}

	jobs.StartCleanupJob()

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{siteURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(
		sessions.Sessions("portal_session", sessionStore),
		middleware.RateLimit(),
	)

	routes.RegisterRoutes(router)

	log.Info("document portal listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("server exited", "err", err)
	}
}
