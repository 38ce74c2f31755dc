package handler

import (
	"skipped/internal/usecase"
)

var (
	listingHandler  *ListingHandler
	offerHandler    *OfferHandler
	checkoutHandler *CheckoutHandler
	webhookHandler  *WebhookHandler
	orderHandler    *OrderHandler
	disputeHandler  *DisputeHandler
)

func Setup(
	listingUseCase *usecase.ListingUseCase,
	offerUseCase *usecase.OfferUseCase,
	checkoutUseCase *usecase.CheckoutUseCase,
	paymentUseCase *usecase.PaymentUseCase,
	orderUseCase *usecase.OrderUseCase,
	disputeUseCase *usecase.DisputeUseCase,
) {
	listingHandler = NewListingHandler(listingUseCase)
	offerHandler = NewOfferHandler(offerUseCase)
	checkoutHandler = NewCheckoutHandler(checkoutUseCase, paymentUseCase)
	webhookHandler = NewWebhookHandler(paymentUseCase)
	orderHandler = NewOrderHandler(orderUseCase)
	disputeHandler = NewDisputeHandler(disputeUseCase)
}

func GetListingHandler() *ListingHandler {
	return listingHandler
}

func GetOfferHandler() *OfferHandler {
	return offerHandler
}

func GetCheckoutHandler() *CheckoutHandler {
	return checkoutHandler
}

func GetWebhookHandler() *WebhookHandler {
	return webhookHandler
}

func GetOrderHandler() *OrderHandler {
	return orderHandler
}

func GetDisputeHandler() *DisputeHandler {
	return disputeHandler
}
