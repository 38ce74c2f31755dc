package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/pkg/errors"
)

// offerQuota is kept per (listing, buyer) at offer_quota/{listing}_{buyer} so the
// duplicate and lifetime checks can run inside one Firestore transaction.
type offerQuota struct {
	Count         int    `firestore:"count"`
	ActiveOfferID string `firestore:"activeOfferId"`
}

type firestoreOfferRepository struct {
	client *firestore.Client
}

func NewFirestoreOfferRepository(client *firestore.Client) repository.OfferRepository {
	return &firestoreOfferRepository{
		client: client,
	}
}

func (r *firestoreOfferRepository) offerRef(id string) *firestore.DocumentRef {
	return r.client.Collection(offersCollection).Doc(id)
}

func (r *firestoreOfferRepository) eventRef(event *entity.OfferEvent) *firestore.DocumentRef {
	return r.offerRef(event.OfferID).Collection(offerEventsCollection).Doc(fmt.Sprintf("%06d", event.Sequence))
}

func (r *firestoreOfferRepository) quotaRef(listingID, buyerID string) *firestore.DocumentRef {
	return r.client.Collection(offerQuotaCollection).Doc(listingID + "_" + buyerID)
}

func (r *firestoreOfferRepository) CreateWithinLimits(ctx context.Context, offer *entity.Offer, event *entity.OfferEvent, maxAttempts int) error {
	quotaRef := r.quotaRef(offer.ListingID, offer.BuyerID)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var quota offerQuota
		doc, err := tx.Get(quotaRef)
		switch {
		case err == nil:
			if err := doc.DataTo(&quota); err != nil {
				return errors.Internal("Failed to parse offer quota", err)
			}
		case !isNotFound(err):
			return errors.Internal("Failed to read offer quota", err)
		}

		if quota.ActiveOfferID != "" {
			activeDoc, err := tx.Get(r.offerRef(quota.ActiveOfferID))
			if err != nil && !isNotFound(err) {
				return errors.Internal("Failed to read active offer", err)
			}
			if err == nil {
				var active entity.Offer
				if err := activeDoc.DataTo(&active); err != nil {
					return errors.Internal("Failed to parse active offer", err)
				}
				if active.IsActive() {
					return errors.DuplicateActiveOffer()
				}
			}
		}

		if quota.Count >= maxAttempts {
			return errors.OfferLimitExceeded(maxAttempts)
		}

		if err := tx.Create(r.offerRef(offer.ID), offer); err != nil {
			return err
		}
		if err := tx.Create(r.eventRef(event), event); err != nil {
			return err
		}
		return tx.Set(quotaRef, offerQuota{Count: quota.Count + 1, ActiveOfferID: offer.ID})
	})
}

func (r *firestoreOfferRepository) GetByID(ctx context.Context, id string) (*entity.Offer, error) {
	doc, err := r.offerRef(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Offer", err)
		}
		return nil, errors.Internal("Failed to get offer", err)
	}

	var offer entity.Offer
	if err := doc.DataTo(&offer); err != nil {
		return nil, errors.Internal("Failed to parse offer data", err)
	}

	return &offer, nil
}

func (r *firestoreOfferRepository) Transition(ctx context.Context, offer *entity.Offer, expectedVersion int, event *entity.OfferEvent) error {
	ref := r.offerRef(offer.ID)
	quotaRef := r.quotaRef(offer.ListingID, offer.BuyerID)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return errors.NotFound("Offer", err)
			}
			return errors.Internal("Failed to get offer", err)
		}

		var stored entity.Offer
		if err := doc.DataTo(&stored); err != nil {
			return errors.Internal("Failed to parse offer data", err)
		}
		if stored.Version != expectedVersion {
			return errors.Conflict("Offer was changed by someone else, reload and try again")
		}

		var quota offerQuota
		releaseQuota := false
		if !offer.IsActive() {
			quotaDoc, err := tx.Get(quotaRef)
			if err != nil && !isNotFound(err) {
				return errors.Internal("Failed to read offer quota", err)
			}
			if err == nil {
				if err := quotaDoc.DataTo(&quota); err != nil {
					return errors.Internal("Failed to parse offer quota", err)
				}
				releaseQuota = quota.ActiveOfferID == offer.ID
			}
		}

		if err := tx.Set(ref, offer); err != nil {
			return err
		}
		if err := tx.Create(r.eventRef(event), event); err != nil {
			return err
		}
		if releaseQuota {
			return tx.Update(quotaRef, []firestore.Update{{Path: "activeOfferId", Value: ""}})
		}
		return nil
	})
}

// List runs one query per side when no role is given and merges the results.
func (r *firestoreOfferRepository) List(ctx context.Context, filter entity.OfferFilter) ([]*entity.Offer, int64, error) {
	var fields []string
	switch filter.Role {
	case entity.RoleBuyer:
		fields = []string{"buyerId"}
	case entity.RoleSeller:
		fields = []string{"sellerId"}
	default:
		fields = []string{"buyerId", "sellerId"}
	}

	var offers []*entity.Offer
	for _, field := range fields {
		query := r.client.Collection(offersCollection).Where(field, "==", filter.UserID)
		if filter.ListingID != "" {
			query = query.Where("listingId", "==", filter.ListingID)
		}
		if filter.Status != "" {
			query = query.Where("status", "==", filter.Status)
		}

		found, err := collect[entity.Offer](query.Documents(ctx))
		if err != nil {
			return nil, 0, errors.Internal("Failed to list offers", err)
		}
		offers = append(offers, found...)
	}

	sortNewestFirst(offers, func(o *entity.Offer) time.Time { return o.CreatedAt })
	return paginate(offers, filter.Limit, filter.Offset), int64(len(offers)), nil
}

func (r *firestoreOfferRepository) ListActiveByListing(ctx context.Context, listingID string) ([]*entity.Offer, error) {
	query := r.client.Collection(offersCollection).
		Where("listingId", "==", listingID).
		Where("status", "in", []string{entity.OfferStatusPending, entity.OfferStatusCountered})

	offers, err := collect[entity.Offer](query.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list active offers", err)
	}
	return offers, nil
}

func (r *firestoreOfferRepository) ListEvents(ctx context.Context, offerID string) ([]*entity.OfferEvent, error) {
	query := r.offerRef(offerID).Collection(offerEventsCollection).OrderBy("sequence", firestore.Asc)

	events, err := collect[entity.OfferEvent](query.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list offer events", err)
	}
	return events, nil
}
