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

type OfferHandler struct {
	offerUseCase *usecase.OfferUseCase
}

func NewOfferHandler(offerUseCase *usecase.OfferUseCase) *OfferHandler {
	return &OfferHandler{
		offerUseCase: offerUseCase,
	}
}

type createOfferRequest struct {
	ListingID string  `json:"listing_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"gt=0"`
}

type respondOfferRequest struct {
	Action        string  `json:"action" validate:"required,oneof=accept reject counter"`
	CounterAmount float64 `json:"counter_amount" validate:"required_if=Action counter,gte=0"`
}

func (h *OfferHandler) CreateOffer(c echo.Context) error {
	var req createOfferRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	offer, err := h.offerUseCase.CreateOffer(c.Request().Context(), middleware.UIDFrom(c), req.ListingID, req.Amount)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, offer)
}

// RespondToOffer - Accept, reject or counter. Only the party whose turn it is may act.
func (h *OfferHandler) RespondToOffer(c echo.Context) error {
	var req respondOfferRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	offer, err := h.offerUseCase.RespondToOffer(c.Request().Context(), middleware.UIDFrom(c), c.Param("id"), req.Action, req.CounterAmount)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, offer)
}

func (h *OfferHandler) GetOffer(c echo.Context) error {
	offer, err := h.offerUseCase.GetOffer(c.Request().Context(), middleware.UIDFrom(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, offer)
}

func (h *OfferHandler) GetOfferHistory(c echo.Context) error {
	events, err := h.offerUseCase.GetOfferHistory(c.Request().Context(), middleware.UIDFrom(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, events)
}

func (h *OfferHandler) ListOffers(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	offers, total, err := h.offerUseCase.ListOffers(c.Request().Context(), entity.OfferFilter{
		UserID:    middleware.UIDFrom(c),
		Role:      c.QueryParam("role"),
		ListingID: c.QueryParam("listing_id"),
		Status:    c.QueryParam("status"),
		Limit:     pagination.PageSize,
		Offset:    pagination.Offset,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, offers, total, pagination.Page, pagination.PageSize)
}
