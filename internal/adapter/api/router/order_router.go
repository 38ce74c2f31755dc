package router

import (
	"github.com/labstack/echo/v4"

	"skipped/internal/adapter/api/handler"
	"skipped/internal/adapter/api/middleware"
)

func SetupOrderRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware) {
	orderHandler := handler.GetOrderHandler()
	disputeHandler := handler.GetDisputeHandler()

	orders := api.Group("/orders")
	orders.Use(authMiddleware.Authenticate)

	orders.GET("", orderHandler.ListOrders)
	orders.GET("/:id", orderHandler.GetOrder)
	orders.GET("/:id/logs", orderHandler.GetOrderLogs)
	orders.POST("/:id/status", orderHandler.UpdateStatus)
	orders.POST("/:id/confirm-receipt", orderHandler.ConfirmReceipt)
	orders.POST("/:id/disputes", disputeHandler.OpenDispute)
}
