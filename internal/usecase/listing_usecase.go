package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/internal/domain/service"
	"skipped/pkg/errors"
	"skipped/pkg/logger"
)

type ListingUseCase struct {
	listingRepo repository.ListingRepository
	fileRepo    repository.FileMetadataRepository
	fileService service.FileUploadService
}

func NewListingUseCase(
	listingRepo repository.ListingRepository,
	fileRepo repository.FileMetadataRepository,
	fileService service.FileUploadService,
) *ListingUseCase {
	return &ListingUseCase{
		listingRepo: listingRepo,
		fileRepo:    fileRepo,
		fileService: fileService,
	}
}

type CreateListingInput struct {
	Title               string  `json:"title" validate:"required,max=120"`
	Description         string  `json:"description" validate:"max=4000"`
	Category            string  `json:"category" validate:"required"`
	Material            string  `json:"material" validate:"required"`
	Condition           string  `json:"condition" validate:"required,oneof=new like_new used salvaged"`
	Quantity            int     `json:"quantity" validate:"gte=1"`
	Unit                string  `json:"unit"`
	Price               float64 `json:"price" validate:"gt=0"`
	CollectionAvailable bool    `json:"collection_available"`
	DeliveryAvailable   bool    `json:"delivery_available"`
	DeliveryCharge      float64 `json:"delivery_charge" validate:"gte=0"`
	CourierDeliveryCost float64 `json:"courier_delivery_cost" validate:"gte=0"`
	WeightKg            float64 `json:"weight_kg" validate:"gte=0"`
	LengthCm            float64 `json:"length_cm" validate:"gte=0"`
	WidthCm             float64 `json:"width_cm" validate:"gte=0"`
	HeightCm            float64 `json:"height_cm" validate:"gte=0"`
	Location            string  `json:"location"`
	Postcode            string  `json:"postcode"`
}

func (uc *ListingUseCase) CreateListing(ctx context.Context, sellerID string, input CreateListingInput) (*entity.Listing, error) {
	if sellerID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	if !input.CollectionAvailable && !input.DeliveryAvailable {
		return nil, errors.Validation("listing must offer collection or delivery")
	}

	now := time.Now()
	listing := &entity.Listing{
		ID:                  uuid.New().String(),
		SellerID:            sellerID,
		Title:               strings.TrimSpace(input.Title),
		Description:         input.Description,
		Category:            input.Category,
		Material:            strings.ToLower(strings.TrimSpace(input.Material)),
		Condition:           input.Condition,
		Quantity:            input.Quantity,
		Unit:                input.Unit,
		Price:               input.Price,
		Status:              entity.ListingStatusActive,
		CollectionAvailable: input.CollectionAvailable,
		DeliveryAvailable:   input.DeliveryAvailable,
		DeliveryCharge:      input.DeliveryCharge,
		CourierDeliveryCost: input.CourierDeliveryCost,
		WeightKg:            input.WeightKg,
		LengthCm:            input.LengthCm,
		WidthCm:             input.WidthCm,
		HeightCm:            input.HeightCm,
		Location:            input.Location,
		Postcode:            strings.ToUpper(strings.TrimSpace(input.Postcode)),
		Images:              []string{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	listing.CarbonSavedKg = entity.EstimateCarbonSavings(listing)

	if err := uc.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	logger.Info("Listing created: %s by seller %s", listing.ID, sellerID)
	return listing, nil
}

func (uc *ListingUseCase) GetListing(ctx context.Context, id string) (*entity.Listing, error) {
	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	listing.CarbonSavedKg = entity.EstimateCarbonSavings(listing)
	return listing, nil
}

// SearchListings defaults to active listings when no status is asked for.
func (uc *ListingUseCase) SearchListings(ctx context.Context, filter entity.ListingFilter) ([]*entity.Listing, int64, error) {
	if filter.Status == "" {
		filter.Status = entity.ListingStatusActive
	}
	if filter.MinPrice > 0 && filter.MaxPrice > 0 && filter.MinPrice > filter.MaxPrice {
		return nil, 0, errors.Validation("min_price must not exceed max_price")
	}

	listings, total, err := uc.listingRepo.Search(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for _, l := range listings {
		l.CarbonSavedKg = entity.EstimateCarbonSavings(l)
	}
	return listings, total, nil
}

func (uc *ListingUseCase) RemoveListing(ctx context.Context, userID, id string) error {
	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if listing.SellerID != userID {
		return errors.Forbidden("Only the seller can remove this listing", nil)
	}

	if err := uc.listingRepo.UpdateStatusIfActive(ctx, id, entity.ListingStatusRemoved); err != nil {
		return err
	}

	logger.Info("Listing removed: %s", id)
	return nil
}

type UploadInput struct {
	File        io.Reader
	Filename    string
	ContentType string
	Size        int64
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// AddListingImage uploads an image for the seller's own listing and appends its URL.
func (uc *ListingUseCase) AddListingImage(ctx context.Context, userID, id string, upload UploadInput) (*entity.Listing, error) {
	if uc.fileService == nil {
		return nil, errors.Provider("File storage is not configured", nil)
	}
	if !allowedImageTypes[upload.ContentType] {
		return nil, errors.Validation(fmt.Sprintf("unsupported image type %q", upload.ContentType))
	}

	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != userID {
		return nil, errors.Forbidden("Only the seller can add images", nil)
	}
	if !listing.IsActive() {
		return nil, errors.ListingUnavailable()
	}

	uploaded, err := uc.fileService.UploadFile(ctx, upload.File, upload.ContentType, "listings/"+id)
	if err != nil {
		return nil, errors.Provider("Failed to upload image", err)
	}

	if err := uc.listingRepo.AddImage(ctx, id, uploaded.URL); err != nil {
		return nil, err
	}

	metadata := &entity.FileMetadata{
		ID:         uuid.New().String(),
		URL:        uploaded.URL,
		ObjectName: uploaded.ObjectName,
		EntityType: entity.FileEntityListing,
		EntityID:   id,
		UploadedBy: userID,
		Filename:   filepath.Base(upload.Filename),
		FileType:   upload.ContentType,
		FileSize:   upload.Size,
		IsPublic:   true,
		CreatedAt:  time.Now(),
	}
	if err := uc.fileRepo.Create(ctx, metadata); err != nil {
		logger.Warn("Failed to record file metadata for %s: %v", uploaded.ObjectName, err)
	}

	listing.Images = append(listing.Images, uploaded.URL)
	listing.CarbonSavedKg = entity.EstimateCarbonSavings(listing)
	return listing, nil
}
