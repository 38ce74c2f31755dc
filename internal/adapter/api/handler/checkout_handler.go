package handler

import (
	"github.com/labstack/echo/v4"

	"skipped/internal/adapter/api/middleware"
	"skipped/internal/usecase"
	"skipped/pkg/errors"
	"skipped/pkg/response"
)

type CheckoutHandler struct {
	checkoutUseCase *usecase.CheckoutUseCase
	paymentUseCase  *usecase.PaymentUseCase
}

func NewCheckoutHandler(checkoutUseCase *usecase.CheckoutUseCase, paymentUseCase *usecase.PaymentUseCase) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutUseCase: checkoutUseCase,
		paymentUseCase:  paymentUseCase,
	}
}

// CreatePaymentIntent - Price the checkout server-side and return the client secret
func (h *CheckoutHandler) CreatePaymentIntent(c echo.Context) error {
	var req usecase.CheckoutInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.checkoutUseCase.CreatePaymentIntent(c.Request().Context(), middleware.UIDFrom(c), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, result)
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

func (h *CheckoutHandler) ConfirmPayment(c echo.Context) error {
	var req confirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	transaction, err := h.paymentUseCase.ConfirmPayment(c.Request().Context(), middleware.UIDFrom(c), req.PaymentIntentID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, transaction)
}
