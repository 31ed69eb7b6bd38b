package api

import (
	"net/http"

	"femiforge/media-api/internal/domain"
	"femiforge/media-api/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the auth and catalog routes. uploadDir is served
// statically under /uploads so stored artifact locators double as public
// paths.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	assetService service.AssetService,
	uploadDir string,
) {
	authHandler := NewAuthHandler(authService)
	photoHandler := NewAssetHandler(assetService, domain.KindPhoto)
	videoHandler := NewAssetHandler(assetService, domain.KindVideo)

	authMiddleware := AuthMiddleware(jwtSecret)
	adminOnly := RoleMiddleware(domain.RoleAdmin)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.Static("/uploads", uploadDir)

	apiV1 := router.Group("/api/v1")

	authGroup := apiV1.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/me", authMiddleware, authHandler.Me)
	}

	for _, group := range []struct {
		path    string
		handler *AssetHandler
	}{
		{"/photos", photoHandler},
		{"/videos", videoHandler},
	} {
		assets := apiV1.Group(group.path)
		{
			// Public read surface; Get records a view.
			assets.GET("", group.handler.List)

			// Stats route first so it is not captured by /:id.
			assets.GET("/stats/totals", authMiddleware, adminOnly, group.handler.Stats)

			assets.GET("/:id", group.handler.Get)

			// Mutations require a caller; ownership is re-checked in the
			// service for update and delete.
			assets.POST("", authMiddleware, adminOnly, group.handler.Upload)
			assets.PUT("/:id", authMiddleware, adminOnly, group.handler.Update)
			assets.DELETE("/:id", authMiddleware, adminOnly, group.handler.Delete)
		}
	}
}
