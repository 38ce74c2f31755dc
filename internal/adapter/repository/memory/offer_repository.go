package memory

import (
	"context"
	"sort"
	"time"

	"skipped/internal/domain/entity"
	"skipped/pkg/errors"
)

type OfferRepository struct {
	s *Store
}

func copyOffer(o *entity.Offer) *entity.Offer {
	c := *o
	return &c
}

func copyEvent(e *entity.OfferEvent) *entity.OfferEvent {
	c := *e
	return &c
}

func (r *OfferRepository) CreateWithinLimits(ctx context.Context, offer *entity.Offer, event *entity.OfferEvent, maxAttempts int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	attempts := 0
	for _, o := range r.s.offers {
		if o.ListingID != offer.ListingID || o.BuyerID != offer.BuyerID {
			continue
		}
		if o.IsActive() {
			return errors.DuplicateActiveOffer()
		}
		attempts++
	}
	if attempts >= maxAttempts {
		return errors.OfferLimitExceeded(maxAttempts)
	}

	r.s.offers[offer.ID] = copyOffer(offer)
	r.s.offerEvents[offer.ID] = []*entity.OfferEvent{copyEvent(event)}
	return nil
}

func (r *OfferRepository) GetByID(ctx context.Context, id string) (*entity.Offer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.offers[id]
	if !ok {
		return nil, errors.NotFound("Offer", nil)
	}
	return copyOffer(o), nil
}

func (r *OfferRepository) Transition(ctx context.Context, offer *entity.Offer, expectedVersion int, event *entity.OfferEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.offers[offer.ID]
	if !ok {
		return errors.NotFound("Offer", nil)
	}
	if current.Version != expectedVersion {
		return errors.Conflict("Offer was updated by someone else, reload and try again")
	}

	r.s.offers[offer.ID] = copyOffer(offer)
	r.s.offerEvents[offer.ID] = append(r.s.offerEvents[offer.ID], copyEvent(event))
	return nil
}

func (r *OfferRepository) List(ctx context.Context, filter entity.OfferFilter) ([]*entity.Offer, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []*entity.Offer
	for _, o := range r.s.offers {
		switch filter.Role {
		case entity.RoleBuyer:
			if o.BuyerID != filter.UserID {
				continue
			}
		case entity.RoleSeller:
			if o.SellerID != filter.UserID {
				continue
			}
		default:
			if !o.IsParticipant(filter.UserID) {
				continue
			}
		}
		if filter.ListingID != "" && o.ListingID != filter.ListingID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		matched = append(matched, copyOffer(o))
	}

	sortNewestFirst(matched,
		func(o *entity.Offer) time.Time { return o.CreatedAt },
		func(o *entity.Offer) string { return o.ID })

	return paginate(matched, filter.Limit, filter.Offset), int64(len(matched)), nil
}

func (r *OfferRepository) ListActiveByListing(ctx context.Context, listingID string) ([]*entity.Offer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var active []*entity.Offer
	for _, o := range r.s.offers {
		if o.ListingID == listingID && o.IsActive() {
			active = append(active, copyOffer(o))
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active, nil
}

func (r *OfferRepository) ListEvents(ctx context.Context, offerID string) ([]*entity.OfferEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	events := make([]*entity.OfferEvent, 0, len(r.s.offerEvents[offerID]))
	for _, e := range r.s.offerEvents[offerID] {
		events = append(events, copyEvent(e))
	}
	return events, nil
}
