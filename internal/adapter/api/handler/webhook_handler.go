package handler

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"skipped/internal/usecase"
	"skipped/pkg/errors"
	"skipped/pkg/logger"
	"skipped/pkg/response"
)

const stripeSignatureHeader = "Stripe-Signature"

type WebhookHandler struct {
	paymentUseCase *usecase.PaymentUseCase
}

func NewWebhookHandler(paymentUseCase *usecase.PaymentUseCase) *WebhookHandler {
	return &WebhookHandler{
		paymentUseCase: paymentUseCase,
	}
}

// StripeWebhook verifies the signature over the raw body before anything is parsed.
// Business rejections are acknowledged with 200 so Stripe stops retrying; only
// signature failures and server-side errors are returned as errors.
func (h *WebhookHandler) StripeWebhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read request body", err))
	}

	err = h.paymentUseCase.HandleWebhook(c.Request().Context(), payload, c.Request().Header.Get(stripeSignatureHeader))
	if err == nil {
		return c.JSON(http.StatusOK, map[string]bool{"received": true})
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError && appErr.Code != errors.CodeUnauthorized {
		logger.Warn("Stripe webhook acknowledged without recording: %v", err)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"received": true,
			"ignored":  appErr.Code,
		})
	}

	return response.Error(c, err)
}
