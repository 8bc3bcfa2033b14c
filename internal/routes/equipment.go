package routes

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"gearguard/internal/controllers"
	"gearguard/pkg/config"
	"gearguard/pkg/constants"
	"gearguard/pkg/middleware"
)

func runEquipmentRouter(secureGroup *echo.Group, equipmentCtrl *controllers.EquipmentController, cacheCfg config.CacheConfig) {
	managerOnly := middleware.RequireRole(constants.RoleManager)
	// список отделов меняется редко, держим его в памяти процесса
	departmentsCache := cache.New(cacheCfg.DepartmentsTTL, 2*cacheCfg.DepartmentsTTL+time.Minute)

	equipment := secureGroup.Group("/equipment")
	equipment.GET("", equipmentCtrl.GetEquipment)
	equipment.GET("/departments", equipmentCtrl.GetDepartments, middleware.Cache(departmentsCache, cacheCfg.DepartmentsTTL))
	equipment.GET("/:id", equipmentCtrl.FindEquipment)
	equipment.POST("", equipmentCtrl.CreateEquipment, managerOnly)
	equipment.PUT("/:id", equipmentCtrl.UpdateEquipment, managerOnly)
	equipment.DELETE("/:id", equipmentCtrl.DeleteEquipment, managerOnly)
}
