package routes

import (
	"github.com/labstack/echo/v4"

	"gearguard/internal/controllers"
	"gearguard/pkg/constants"
	"gearguard/pkg/middleware"
)

func runUserRouter(secureGroup *echo.Group, userCtrl *controllers.UserController) {
	users := secureGroup.Group("/users")
	users.GET("", userCtrl.GetUsers)
	users.GET("/technicians", userCtrl.GetTechnicians)
	users.GET("/:id", userCtrl.FindUser)
	users.PATCH("/:id/role", userCtrl.UpdateRole, middleware.RequireRole(constants.RoleManager))
}
