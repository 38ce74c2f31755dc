package router

import (
	"github.com/labstack/echo/v4"

	"skipped/internal/adapter/api/handler"
	"skipped/internal/adapter/api/middleware"
)

// SetupWebSocketRouter takes the token from the query string since browsers cannot
// set headers on a websocket handshake.
func SetupWebSocketRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	wsHandler := handler.GetWebSocketHandler()
	if wsHandler == nil {
		return
	}

	e.GET("/api/ws", wsHandler.HandleWebSocket, authMiddleware.AuthenticateQuery)
}
