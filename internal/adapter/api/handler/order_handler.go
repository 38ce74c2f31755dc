package handler

import (
	"github.com/labstack/echo/v4"

	"skipped/internal/adapter/api/middleware"
	"skipped/internal/domain/entity"
	"skipped/internal/usecase"
	"skipped/pkg/errors"
	"skipped/pkg/response"
	"skipped/pkg/utils"
)

type OrderHandler struct {
	orderUseCase *usecase.OrderUseCase
}

func NewOrderHandler(orderUseCase *usecase.OrderUseCase) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
	}
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	orders, total, err := h.orderUseCase.ListOrders(c.Request().Context(), entity.TransactionFilter{
		UserID: middleware.UIDFrom(c),
		Role:   c.QueryParam("role"),
		Status: c.QueryParam("status"),
		Limit:  pagination.PageSize,
		Offset: pagination.Offset,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, orders, total, pagination.Page, pagination.PageSize)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.orderUseCase.GetOrder(c.Request().Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, order)
}

func (h *OrderHandler) GetOrderLogs(c echo.Context) error {
	logs, err := h.orderUseCase.ListLogs(c.Request().Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, logs)
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=dispatched ready_for_collection"`
	Notes  string `json:"notes" validate:"max=1000"`
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	var req updateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.UpdateStatus(c.Request().Context(), middleware.UIDFrom(c), c.Param("id"), req.Status, req.Notes)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, order)
}

func (h *OrderHandler) ConfirmReceipt(c echo.Context) error {
	order, err := h.orderUseCase.ConfirmReceipt(c.Request().Context(), middleware.UIDFrom(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, order)
}
