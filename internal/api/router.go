package api

import (
	"context"
	"net/http"
	"time"

	"github.com/fuyanik/user-management-case/internal/config"
	"github.com/fuyanik/user-management-case/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router. health may be nil.
func NewRouter(services *service.Services, cfg *config.Config, health HealthChecker, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	authHandler := NewAuthHandler(services, &cfg.Auth, log)
	userHandler := NewUserHandler(services, log)
	importHandler := NewImportHandler(services, cfg, log)
	exportHandler := NewExportHandler(services, log)

	requireAuth := authMiddleware(services.Auth, &cfg.Auth, log)

	router.GET("/health", healthCheck(health, cfg.Log.Service))

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/logout", authHandler.Logout)
			authRoutes.GET("/me", requireAuth, authHandler.Me)
		}

		users := api.Group("/users", requireAuth)
		{
			users.GET("", userHandler.ListUsers)
			users.POST("", userHandler.CreateUser)
			users.GET("/export", adminOnly("Only administrators can export users"), exportHandler.StreamUsers)
			users.POST("/upload", adminOnly("Only administrators can upload users"), importHandler.Upload)
			users.GET("/:userid", userHandler.GetUser)
		}

		imports := api.Group("/imports", requireAuth, adminOnly("Only administrators can view imports"))
		{
			imports.GET("/:import_id", importHandler.GetImport)
			imports.GET("/:import_id/errors", importHandler.GetImportErrors)
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(health HealthChecker, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := health.HealthCheck(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   serviceName,
		})
	}
}
