package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"skipped/internal/adapter/api/middleware"
	"skipped/internal/domain/entity"
	"skipped/internal/usecase"
	"skipped/pkg/errors"
	"skipped/pkg/response"
	"skipped/pkg/utils"
)

type ListingHandler struct {
	listingUseCase *usecase.ListingUseCase
}

func NewListingHandler(listingUseCase *usecase.ListingUseCase) *ListingHandler {
	return &ListingHandler{
		listingUseCase: listingUseCase,
	}
}

func (h *ListingHandler) CreateListing(c echo.Context) error {
	var req usecase.CreateListingInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listingUseCase.CreateListing(c.Request().Context(), middleware.UIDFrom(c), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, listing)
}

func (h *ListingHandler) GetListing(c echo.Context) error {
	listing, err := h.listingUseCase.GetListing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

// SearchListings - Public search with ?q=&category=&material=&min_price=&max_price=&status=&page=&limit=
func (h *ListingHandler) SearchListings(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)

	filter := entity.ListingFilter{
		Query:    c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Material: c.QueryParam("material"),
		Status:   c.QueryParam("status"),
		SellerID: c.QueryParam("seller_id"),
		Limit:    pagination.PageSize,
		Offset:   pagination.Offset,
	}

	var err error
	if filter.MinPrice, err = priceParam(c, "min_price"); err != nil {
		return response.Error(c, err)
	}
	if filter.MaxPrice, err = priceParam(c, "max_price"); err != nil {
		return response.Error(c, err)
	}

	listings, total, err := h.listingUseCase.SearchListings(c.Request().Context(), filter)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, listings, total, pagination.Page, pagination.PageSize)
}

func priceParam(c echo.Context, name string) (float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, errors.Validation(name + " must be a non-negative number")
	}
	return v, nil
}

func (h *ListingHandler) RemoveListing(c echo.Context) error {
	if err := h.listingUseCase.RemoveListing(c.Request().Context(), middleware.UIDFrom(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"id":     c.Param("id"),
		"status": entity.ListingStatusRemoved,
	})
}

func (h *ListingHandler) UploadImage(c echo.Context) error {
	upload, closer, err := readUpload(c, "file")
	if err != nil {
		return response.Error(c, err)
	}
	defer closer.Close()

	listing, err := h.listingUseCase.AddListingImage(c.Request().Context(), middleware.UIDFrom(c), c.Param("id"), upload)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, listing)
}
