package handler

import (
	"github.com/labstack/echo/v4"

	"skipped/internal/adapter/api/middleware"
	"skipped/internal/usecase"
	"skipped/pkg/errors"
	"skipped/pkg/response"
	"skipped/pkg/utils"
)

type DisputeHandler struct {
	disputeUseCase *usecase.DisputeUseCase
}

func NewDisputeHandler(disputeUseCase *usecase.DisputeUseCase) *DisputeHandler {
	return &DisputeHandler{
		disputeUseCase: disputeUseCase,
	}
}

func (h *DisputeHandler) OpenDispute(c echo.Context) error {
	var req usecase.OpenDisputeInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	dispute, err := h.disputeUseCase.OpenDispute(c.Request().Context(), middleware.UIDFrom(c), c.Param("id"), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, dispute)
}

func (h *DisputeHandler) AddEvidence(c echo.Context) error {
	upload, closer, err := readUpload(c, "file")
	if err != nil {
		return response.Error(c, err)
	}
	defer closer.Close()

	dispute, err := h.disputeUseCase.AddEvidence(c.Request().Context(), middleware.UIDFrom(c), c.Param("id"), c.FormValue("note"), upload)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, dispute)
}

func (h *DisputeHandler) GetDispute(c echo.Context) error {
	dispute, err := h.disputeUseCase.GetDispute(c.Request().Context(), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dispute)
}

// ListDisputes - Admin queue, optionally filtered by ?status=open|resolved
func (h *DisputeHandler) ListDisputes(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	disputes, total, err := h.disputeUseCase.ListDisputes(c.Request().Context(), c.QueryParam("status"), pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, disputes, total, pagination.Page, pagination.PageSize)
}

func (h *DisputeHandler) ResolveDispute(c echo.Context) error {
	var req usecase.ResolveDisputeInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	dispute, err := h.disputeUseCase.ResolveDispute(c.Request().Context(), middleware.UIDFrom(c), c.Param("id"), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, dispute)
}
