package router

import (
	"github.com/labstack/echo/v4"

	"skipped/internal/adapter/api/handler"
	"skipped/internal/adapter/api/middleware"
)

func SetupOfferRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware, limiter middleware.Limiter) {
	offerHandler := handler.GetOfferHandler()

	offers := api.Group("/offers")
	offers.Use(authMiddleware.Authenticate)

	writes := []echo.MiddlewareFunc{}
	if limiter != nil {
		writes = append(writes, middleware.RateLimit("offers", limiter, middleware.ByUser))
	}

	offers.POST("", offerHandler.CreateOffer, writes...)
	offers.PATCH("/:id", offerHandler.RespondToOffer, writes...)
	offers.GET("", offerHandler.ListOffers)
	offers.GET("/:id", offerHandler.GetOffer)
	offers.GET("/:id/history", offerHandler.GetOfferHistory)
}
