package routes

import (
	"github.com/labstack/echo/v4"

	"gearguard/pkg/config"
	"gearguard/pkg/middleware"
)

func runAuthRouter(api *echo.Group, h *Handlers, limits config.RateLimitConfig) {
	limited := middleware.RateLimit(limits.RPS, limits.Burst)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register, limited)
		authGroup.POST("/login", h.Auth.Login, limited)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.GET("/me", h.Auth.Me, h.AuthMW.Auth)
		authGroup.PUT("/me", h.Auth.UpdateProfile, h.AuthMW.Auth)
	}
}
