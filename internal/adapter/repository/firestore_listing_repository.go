package repository

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/pkg/errors"
)

type firestoreListingRepository struct {
	client *firestore.Client
}

func NewFirestoreListingRepository(client *firestore.Client) repository.ListingRepository {
	return &firestoreListingRepository{
		client: client,
	}
}

func (r *firestoreListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	_, err := r.client.Collection(listingsCollection).Doc(listing.ID).Create(ctx, listing)
	if err != nil {
		return errors.Internal("Failed to create listing", err)
	}
	return nil
}

func (r *firestoreListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	doc, err := r.client.Collection(listingsCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Listing", err)
		}
		return nil, errors.Internal("Failed to get listing", err)
	}

	var listing entity.Listing
	if err := doc.DataTo(&listing); err != nil {
		return nil, errors.Internal("Failed to parse listing data", err)
	}

	return &listing, nil
}

func (r *firestoreListingRepository) Update(ctx context.Context, listing *entity.Listing) error {
	listing.UpdatedAt = time.Now()

	_, err := r.client.Collection(listingsCollection).Doc(listing.ID).Set(ctx, listing)
	if err != nil {
		return errors.Internal("Failed to update listing", err)
	}
	return nil
}

// Search pushes status and seller to Firestore. Firestore has no substring
// match, so text, category, material and price filtering happen here.
func (r *firestoreListingRepository) Search(ctx context.Context, filter entity.ListingFilter) ([]*entity.Listing, int64, error) {
	query := r.client.Collection(listingsCollection).Query
	if filter.Status != "" {
		query = query.Where("status", "==", filter.Status)
	}
	if filter.SellerID != "" {
		query = query.Where("sellerId", "==", filter.SellerID)
	}

	listings, err := collect[entity.Listing](query.Documents(ctx))
	if err != nil {
		return nil, 0, errors.Internal("Failed to search listings", err)
	}

	text := strings.ToLower(strings.TrimSpace(filter.Query))
	matched := make([]*entity.Listing, 0, len(listings))
	for _, l := range listings {
		if filter.Category != "" && !strings.EqualFold(l.Category, filter.Category) {
			continue
		}
		if filter.Material != "" && !strings.EqualFold(l.Material, filter.Material) {
			continue
		}
		if filter.MinPrice > 0 && l.Price < filter.MinPrice {
			continue
		}
		if filter.MaxPrice > 0 && l.Price > filter.MaxPrice {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(l.Title), text) &&
			!strings.Contains(strings.ToLower(l.Description), text) {
			continue
		}
		matched = append(matched, l)
	}

	sortNewestFirst(matched, func(l *entity.Listing) time.Time { return l.CreatedAt })
	return paginate(matched, filter.Limit, filter.Offset), int64(len(matched)), nil
}

func (r *firestoreListingRepository) UpdateStatusIfActive(ctx context.Context, id, status string) error {
	ref := r.client.Collection(listingsCollection).Doc(id)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return errors.NotFound("Listing", err)
			}
			return errors.Internal("Failed to get listing", err)
		}

		current, err := doc.DataAt("status")
		if err != nil || current != entity.ListingStatusActive {
			return errors.ListingUnavailable()
		}

		return tx.Update(ref, listingStatusUpdates(status, time.Now()))
	})
}

func listingStatusUpdates(status string, now time.Time) []firestore.Update {
	updates := []firestore.Update{
		{Path: "status", Value: status},
		{Path: "updatedAt", Value: now},
	}
	if status == entity.ListingStatusSold {
		updates = append(updates, firestore.Update{Path: "soldAt", Value: now})
	}
	return updates
}

func (r *firestoreListingRepository) AddImage(ctx context.Context, id, imageURL string) error {
	_, err := r.client.Collection(listingsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "images", Value: firestore.ArrayUnion(imageURL)},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if isNotFound(err) {
			return errors.NotFound("Listing", err)
		}
		return errors.Internal("Failed to add listing image", err)
	}
	return nil
}
