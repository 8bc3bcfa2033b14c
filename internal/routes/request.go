package routes

import (
	"github.com/labstack/echo/v4"

	"gearguard/internal/controllers"
	"gearguard/pkg/constants"
	"gearguard/pkg/middleware"
)

// Права на изменение заявок проверяет сервис, здесь только аутентификация.
func runRequestRouter(secureGroup *echo.Group, requestCtrl *controllers.MaintenanceRequestController) {
	requests := secureGroup.Group("/requests")
	requests.GET("", requestCtrl.GetRequests)
	requests.GET("/kanban", requestCtrl.GetKanban)
	requests.GET("/calendar", requestCtrl.GetCalendar)
	requests.GET("/stats", requestCtrl.GetStats)
	requests.GET("/export", requestCtrl.ExportRequests, middleware.RequireRole(constants.RoleManager))
	requests.GET("/:id", requestCtrl.FindRequest)
	requests.POST("", requestCtrl.CreateRequest)
	requests.PUT("/:id", requestCtrl.UpdateRequest)
	requests.DELETE("/:id", requestCtrl.DeleteRequest)
	requests.PATCH("/:id/stage", requestCtrl.SetStage)
	requests.PATCH("/:id/assign", requestCtrl.AssignTechnician)
	requests.PATCH("/:id/complete", requestCtrl.CompleteRequest)
}
