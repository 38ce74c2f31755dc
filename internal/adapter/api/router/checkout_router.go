package router

import (
	"github.com/labstack/echo/v4"

	"skipped/internal/adapter/api/handler"
	"skipped/internal/adapter/api/middleware"
)

func SetupCheckoutRouter(api *echo.Group, authMiddleware *middleware.AuthMiddleware) {
	checkoutHandler := handler.GetCheckoutHandler()

	stripe := api.Group("/stripe")
	stripe.Use(authMiddleware.Authenticate)

	stripe.POST("/create-payment-intent", checkoutHandler.CreatePaymentIntent)
	stripe.POST("/confirm-payment", checkoutHandler.ConfirmPayment)
}

// SetupWebhookRouter registers provider callbacks. They authenticate by signature, not bearer token.
func SetupWebhookRouter(api *echo.Group) {
	webhookHandler := handler.GetWebhookHandler()

	api.POST("/webhooks/stripe", webhookHandler.StripeWebhook)
}
