package router

import (
	"github.com/labstack/echo/v4"

	"skipped/internal/adapter/api/handler"
	"skipped/internal/adapter/api/middleware"
)

func SetupDisputeRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware) {
	disputeHandler := handler.GetDisputeHandler()

	disputes := api.Group("/disputes")
	disputes.Use(authMiddleware.Authenticate)

	disputes.GET("/:id", disputeHandler.GetDispute)
	disputes.POST("/:id/evidence", disputeHandler.AddEvidence)

	// Admin endpoints
	admin := api.Group("/admin/disputes")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(middleware.AdminOnly)

	admin.GET("", disputeHandler.ListDisputes)
	admin.POST("/:id/resolve", disputeHandler.ResolveDispute)
}
