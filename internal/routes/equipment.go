package routes

import (
	"github.com/labstack/echo/v4"

	"inventory-system/internal/controllers"
	"inventory-system/pkg/middleware"
)

// Права проверяются в сервисах; здесь только кладём принципал в контекст.
func runEquipmentRouter(api *echo.Group, equipmentCtrl *controllers.EquipmentController, authMW *middleware.AuthMiddleware) {
	equipment := api.Group("/equipment", authMW.Principal)
	{
		equipment.GET("", equipmentCtrl.GetEquipments)
		equipment.POST("", equipmentCtrl.CreateEquipment)
		equipment.GET("/:uuid", equipmentCtrl.FindEquipment)
		equipment.PATCH("/:uuid", equipmentCtrl.UpdateEquipment)
		equipment.PATCH("/:uuid/status", equipmentCtrl.UpdateStatus)
		equipment.POST("/:uuid/history", equipmentCtrl.AddHistory)
		equipment.DELETE("/:uuid", equipmentCtrl.DeleteEquipment)
	}
}
