package memory

import (
	"context"
	"strings"
	"time"

	"skipped/internal/domain/entity"
	"skipped/pkg/errors"
)

type ListingRepository struct {
	s *Store
}

func copyListing(l *entity.Listing) *entity.Listing {
	c := *l
	c.Images = append([]string(nil), l.Images...)
	return &c
}

func (r *ListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if listing.ID == "" {
		return errors.BadRequest("listing id is required", nil)
	}
	r.s.listings[listing.ID] = copyListing(listing)
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	return copyListing(l), nil
}

func (r *ListingRepository) Update(ctx context.Context, listing *entity.Listing) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.listings[listing.ID]; !ok {
		return errors.NotFound("Listing", nil)
	}
	r.s.listings[listing.ID] = copyListing(listing)
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, filter entity.ListingFilter) ([]*entity.Listing, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	var matched []*entity.Listing
	for _, l := range r.s.listings {
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.SellerID != "" && l.SellerID != filter.SellerID {
			continue
		}
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
		if query != "" &&
			!strings.Contains(strings.ToLower(l.Title), query) &&
			!strings.Contains(strings.ToLower(l.Description), query) {
			continue
		}
		matched = append(matched, copyListing(l))
	}

	sortNewestFirst(matched,
		func(l *entity.Listing) time.Time { return l.CreatedAt },
		func(l *entity.Listing) string { return l.ID })

	return paginate(matched, filter.Limit, filter.Offset), int64(len(matched)), nil
}

func (r *ListingRepository) UpdateStatusIfActive(ctx context.Context, id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.transitionListingLocked(id, status, time.Now())
}

// transitionListingLocked is the conditional "only if still active" update. Callers hold mu.
func (s *Store) transitionListingLocked(id, status string, now time.Time) error {
	l, ok := s.listings[id]
	if !ok {
		return errors.NotFound("Listing", nil)
	}
	if !l.IsActive() {
		return errors.ListingUnavailable()
	}
	l.Status = status
	l.UpdatedAt = now
	if status == entity.ListingStatusSold {
		l.SoldAt = &now
	}
	return nil
}

func (r *ListingRepository) AddImage(ctx context.Context, id, imageURL string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.listings[id]
	if !ok {
		return errors.NotFound("Listing", nil)
	}
	l.Images = append(l.Images, imageURL)
	l.UpdatedAt = time.Now()
	return nil
}
