package repository

import (
	"context"

	"skipped/internal/domain/entity"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
	Update(ctx context.Context, listing *entity.Listing) error
	Search(ctx context.Context, filter entity.ListingFilter) ([]*entity.Listing, int64, error)

	// UpdateStatusIfActive moves an active listing to status. It returns
	// errors.ListingUnavailable when the listing is no longer active.
	UpdateStatusIfActive(ctx context.Context, id, status string) error
	AddImage(ctx context.Context, id, imageURL string) error
}
