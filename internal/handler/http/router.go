package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/AhmetDemiroglu/GGHub-sub001/internal/config"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/interfaces"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/domain/models"
	"github.com/AhmetDemiroglu/GGHub-sub001/internal/handler/http/middleware"
)

// NewRouter assembles the gin engine with the full middleware stack and all
// routes mounted under /api/v1.
func NewRouter(
	cfg *config.Config,
	authHandler *AuthHandler,
	adminHandler *AdminHandler,
	tokenManager interfaces.TokenManager,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logging(log))
	router.Use(middleware.Recovery(log))
	if cfg.Telemetry.Metrics.Enabled {
		router.Use(middleware.Metrics())
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Frontend.BaseURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Telemetry.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.GET("/verify-email", authHandler.VerifyEmailRedirect)
		auth.POST("/resend-verification", authHandler.ResendVerification)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		authed := auth.Group("")
		authed.Use(middleware.RequireAuth(tokenManager))
		{
			authed.GET("/me", authHandler.Me)
			authed.POST("/logout-all", authHandler.LogoutAll)
			authed.POST("/change-password", authHandler.ChangePassword)
		}
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.RequireAuth(tokenManager), middleware.RequireRole(models.UserRoleAdmin))
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users/:id/block", adminHandler.BlockUser)
		admin.POST("/users/:id/unblock", adminHandler.UnblockUser)
	}

	return router
}
