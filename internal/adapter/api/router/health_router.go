package router

import (
	"github.com/labstack/echo/v4"

	"skipped/internal/adapter/api/handler"
)

func SetupHealthRouter(e *echo.Echo) {
	healthHandler := handler.GetHealthHandler()
	if healthHandler == nil {
		return
	}

	e.GET("/health", healthHandler.CheckHealth)
	e.GET("/health/ready", healthHandler.CheckReadiness)
}
