package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CAR235/ConnexaLabPDF/api/handlers"
	"github.com/CAR235/ConnexaLabPDF/api/middleware"
	"github.com/CAR235/ConnexaLabPDF/internal/service/auth"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handlers, authService auth.AuthService) {
	r.Use(middleware.CORS())
	r.Use(middleware.OptionalAuth(authService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/upload", h.Files.Upload)
		api.POST("/process/:toolId", h.Process.Process)
		api.GET("/download/:fileId", h.Files.Download)

		api.GET("/files", h.Files.List)
		api.DELETE("/files/:fileId", h.Files.Delete)

		api.GET("/jobs", h.Process.ListJobs)
		api.GET("/jobs/:jobId", h.Process.GetJob)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
		}
	}
}
