package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/avand/docportal-backend/auth"
	"github.com/avand/docportal-backend/auth/middleware"
	"github.com/avand/docportal-backend/auth/oauth"
	"github.com/avand/docportal-backend/handlers"
)

func RegisterRoutes(r *gin.Engine) {
	// The serving route: documents/<token> where the token is a filename,
	// document ID, or slug. Does its own auth with a browser-aware split,
	// so no middleware here.
	r.GET("/documents/:token", handlers.ServeDocument)

	r.POST("/api/login", handlers.Login)
	r.POST("/api/logout", handlers.Logout)
	r.GET("/auth/:provider", oauth.BeginAuth)
	r.GET("/auth/:provider/callback", oauth.CompleteAuth)

	api := r.Group("/api")
	api.Use(middleware.AuthRequired())

	// Portal listing for any logged-in reader.
	api.GET("/documents", middleware.RequireCapability(auth.CapReadDocuments), handlers.ListDocuments)

	manage := api.Group("")
	manage.Use(middleware.RequireCapability(auth.CapManageDocuments))

	manage.POST("/documents", handlers.CreateDocument)
	manage.POST("/documents/bulk", handlers.BulkUploadDocuments)
	manage.PATCH("/documents/:id", handlers.UpdateDocument)
	manage.DELETE("/documents/:id", handlers.DeleteDocument)

	manage.GET("/media", handlers.ListMedia)

	manage.POST("/folders", handlers.CreateFolder)
	manage.GET("/folders", handlers.ListFolders)
	manage.DELETE("/folders/:id", handlers.DeleteFolder)
}
