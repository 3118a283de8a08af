package routes

import (
	authapi "storefront-app/internal/api/auth"
	pagesapi "storefront-app/internal/api/pages"
	revisionsapi "storefront-app/internal/api/revisions"
	sectionsapi "storefront-app/internal/api/sections"
	usersapi "storefront-app/internal/api/users"
	"storefront-app/internal/app/http/middleware"
	"storefront-app/internal/realtime"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, hub *realtime.Hub) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())
	public.POST("/register", authapi.Register)
	public.POST("/login", authapi.Login)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware())
	auth.GET("/me", usersapi.GetCurrentUser)
	auth.GET("/events", realtime.StreamHandler(hub))

	// Pages
	auth.GET("/pages", pagesapi.ListPages)
	auth.POST("/pages", pagesapi.CreatePage)
	auth.GET("/pages/:id", pagesapi.GetPage)
	auth.PUT("/pages/:id", pagesapi.UpdatePage)
	auth.DELETE("/pages/:id", pagesapi.DeletePage)
	auth.POST("/pages/:id/publish", pagesapi.PublishPage)
	auth.POST("/pages/:id/duplicate", pagesapi.DuplicatePage)

	// Sections. PUT on the collection reorders it.
	auth.POST("/pages/:id/sections", sectionsapi.AddSection)
	auth.PUT("/pages/:id/sections", sectionsapi.ReorderSections)
	auth.PUT("/pages/:id/sections/:sectionId", sectionsapi.UpdateSection)
	auth.DELETE("/pages/:id/sections/:sectionId", sectionsapi.DeleteSection)
	auth.POST("/pages/:id/sections/:sectionId/duplicate", sectionsapi.DuplicateSection)

	// Revision history. Collection-level ops live under /revisions, single
	// revision ops under /revision/:revisionId (gin cannot mix a static
	// segment with a param at the same position).
	auth.GET("/pages/:id/revisions", revisionsapi.ListRevisions)
	auth.POST("/pages/:id/revisions", revisionsapi.CreateRevision)
	auth.GET("/pages/:id/revisions/compare", revisionsapi.CompareRevisions)
	auth.POST("/pages/:id/revisions/cleanup", revisionsapi.CleanupRevisions)
	auth.GET("/pages/:id/revision/:revisionId", revisionsapi.GetRevision)
	auth.DELETE("/pages/:id/revision/:revisionId", revisionsapi.DeleteRevision)
	auth.POST("/pages/:id/revision/:revisionId/restore", revisionsapi.RestoreRevision)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"))
	admin.PUT("/pages/:id/revision/:revisionId/restorable", revisionsapi.MarkRestorable)
}
