package router

import (
	"github.com/labstack/echo/v4"

	"skipped/internal/adapter/api/middleware"
)

// Limiters groups the rate limiters applied to route groups. A nil limiter disables that limit.
type Limiters struct {
	API    middleware.Limiter
	Offers middleware.Limiter
}

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, limiters Limiters) {
	// outside the per-IP limiter; requests are authenticated by signature
	SetupWebhookRouter(e.Group("/api"))

	api := e.Group("/api")
	if limiters.API != nil {
		api.Use(middleware.RateLimit("api", limiters.API, middleware.ByIP))
	}

	SetupListingRouter(api, authMiddleware)
	SetupOfferRouter(api, authMiddleware, limiters.Offers)
	SetupCheckoutRouter(api, authMiddleware)
	SetupOrderRouter(api, authMiddleware)
	SetupDisputeRouter(api, authMiddleware)
	SetupHealthRouter(e)
}
