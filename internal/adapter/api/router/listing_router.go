package router

import (
	"github.com/labstack/echo/v4"

	"skipped/internal/adapter/api/handler"
	"skipped/internal/adapter/api/middleware"
)

func SetupListingRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware) {
	listingHandler := handler.GetListingHandler()

	listings := api.Group("/listings")

	// Public
	listings.GET("", listingHandler.SearchListings)
	listings.GET("/:id", listingHandler.GetListing)

	// Seller
	listings.POST("", listingHandler.CreateListing, authMiddleware.Authenticate)
	listings.DELETE("/:id", listingHandler.RemoveListing, authMiddleware.Authenticate)
	listings.POST("/:id/images", listingHandler.UploadImage, authMiddleware.Authenticate)
}
