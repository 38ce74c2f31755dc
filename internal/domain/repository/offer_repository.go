package repository

import (
	"context"

	"skipped/internal/domain/entity"
)

type OfferRepository interface {
	// CreateWithinLimits stores offer and its created event only if the buyer has
	// no active offer on the listing and fewer than maxAttempts offers overall.
	// The check and the insert happen atomically.
	CreateWithinLimits(ctx context.Context, offer *entity.Offer, event *entity.OfferEvent, maxAttempts int) error
	GetByID(ctx context.Context, id string) (*entity.Offer, error)

	// Transition saves offer when the stored version still equals expectedVersion
	// and appends event in the same write. A lost race returns errors.Conflict.
	Transition(ctx context.Context, offer *entity.Offer, expectedVersion int, event *entity.OfferEvent) error

	List(ctx context.Context, filter entity.OfferFilter) ([]*entity.Offer, int64, error)
	ListActiveByListing(ctx context.Context, listingID string) ([]*entity.Offer, error)
	ListEvents(ctx context.Context, offerID string) ([]*entity.OfferEvent, error)
}
