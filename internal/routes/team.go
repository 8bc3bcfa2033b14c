package routes

import (
	"github.com/labstack/echo/v4"

	"gearguard/internal/controllers"
	"gearguard/pkg/constants"
	"gearguard/pkg/middleware"
)

func runTeamRouter(secureGroup *echo.Group, teamCtrl *controllers.TeamController) {
	managerOnly := middleware.RequireRole(constants.RoleManager)

	teams := secureGroup.Group("/teams")
	teams.GET("", teamCtrl.GetTeams)
	teams.GET("/:id", teamCtrl.FindTeam)
	teams.POST("", teamCtrl.CreateTeam, managerOnly)
	teams.PUT("/:id", teamCtrl.UpdateTeam, managerOnly)
	teams.DELETE("/:id", teamCtrl.DeleteTeam, managerOnly)
	teams.POST("/:id/members", teamCtrl.AddMember, managerOnly)
	teams.DELETE("/:id/members/:userId", teamCtrl.RemoveMember, managerOnly)
}
