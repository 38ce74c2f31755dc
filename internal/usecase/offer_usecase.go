package usecase

import (
	"context"
	"time"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/internal/domain/service"
	"skipped/pkg/errors"
	"skipped/pkg/logger"
)

type OfferUseCase struct {
	offerRepo   repository.OfferRepository
	listingRepo repository.ListingRepository
	notifier    service.Notifier
	now         func() time.Time
}

func NewOfferUseCase(
	offerRepo repository.OfferRepository,
	listingRepo repository.ListingRepository,
	notifier service.Notifier,
) *OfferUseCase {
	return &OfferUseCase{
		offerRepo:   offerRepo,
		listingRepo: listingRepo,
		notifier:    notifier,
		now:         time.Now,
	}
}

// CreateOffer - Buyer opens a negotiation on an active listing
func (uc *OfferUseCase) CreateOffer(ctx context.Context, buyerID, listingID string, amount float64) (*entity.Offer, error) {
	if buyerID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	if amount <= 0 {
		return nil, errors.Validation("amount must be greater than 0")
	}

	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsActive() {
		return nil, errors.ListingUnavailable()
	}
	if listing.SellerID == buyerID {
		return nil, errors.Forbidden("You cannot make an offer on your own listing", nil)
	}

	offer, event := entity.NewOffer(listing, buyerID, amount, uc.now())
	if err := uc.offerRepo.CreateWithinLimits(ctx, offer, event, entity.MaxOfferAttempts); err != nil {
		return nil, err
	}

	logger.Info("Offer created: %s on listing %s by buyer %s amount=%.2f", offer.ID, listingID, buyerID, amount)

	notify(ctx, uc.notifier, offer.SellerID, entity.NotificationOfferCreated, map[string]interface{}{
		"offer_id":   offer.ID,
		"listing_id": offer.ListingID,
		"amount":     offer.Amount,
	})
	return offer, nil
}

// RespondToOffer - Accept, reject or counter by whichever party holds the turn
func (uc *OfferUseCase) RespondToOffer(ctx context.Context, userID, offerID, action string, counterAmount float64) (*entity.Offer, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	offer, err := uc.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}

	expected := offer.Version
	event, err := offer.Respond(userID, action, counterAmount, uc.now())
	if err != nil {
		return nil, err
	}

	if err := uc.offerRepo.Transition(ctx, offer, expected, event); err != nil {
		return nil, err
	}

	logger.Info("Offer %s %s by %s (version %d)", offer.ID, event.Action, event.ActorRole, offer.Version)

	counterparty := offer.BuyerID
	if event.ActorRole == entity.RoleBuyer {
		counterparty = offer.SellerID
	}
	notify(ctx, uc.notifier, counterparty, notificationForEvent(event.Action), map[string]interface{}{
		"offer_id":   offer.ID,
		"listing_id": offer.ListingID,
		"amount":     event.Amount,
		"status":     offer.Status,
	})
	return offer, nil
}

func notificationForEvent(action string) string {
	switch action {
	case entity.OfferEventAccepted:
		return entity.NotificationOfferAccepted
	case entity.OfferEventCountered:
		return entity.NotificationOfferCountered
	default:
		return entity.NotificationOfferRejected
	}
}

func (uc *OfferUseCase) GetOffer(ctx context.Context, userID, offerID string) (*entity.Offer, error) {
	offer, err := uc.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.IsParticipant(userID) {
		return nil, errors.Forbidden("You are not part of this offer", nil)
	}
	return offer, nil
}

// GetOfferHistory returns the negotiation log oldest first.
func (uc *OfferUseCase) GetOfferHistory(ctx context.Context, userID, offerID string) ([]*entity.OfferEvent, error) {
	if _, err := uc.GetOffer(ctx, userID, offerID); err != nil {
		return nil, err
	}
	return uc.offerRepo.ListEvents(ctx, offerID)
}

func (uc *OfferUseCase) ListOffers(ctx context.Context, filter entity.OfferFilter) ([]*entity.Offer, int64, error) {
	if filter.UserID == "" {
		return nil, 0, errors.Unauthorized("Authentication required", nil)
	}
	switch filter.Role {
	case "", entity.RoleBuyer, entity.RoleSeller:
	default:
		return nil, 0, errors.Validation("role must be one of: buyer seller")
	}
	return uc.offerRepo.List(ctx, filter)
}

// CloseOffersForListing rejects every still-active offer once the listing is gone.
// Offers that move concurrently are skipped.
func (uc *OfferUseCase) CloseOffersForListing(ctx context.Context, listingID string) int {
	offers, err := uc.offerRepo.ListActiveByListing(ctx, listingID)
	if err != nil {
		logger.Error("Failed to list active offers for listing %s: %v", listingID, err)
		return 0
	}

	closed := 0
	for _, offer := range offers {
		expected := offer.Version
		event, ok := offer.Close(uc.now())
		if !ok {
			continue
		}
		if err := uc.offerRepo.Transition(ctx, offer, expected, event); err != nil {
			logger.Warn("Failed to close offer %s: %v", offer.ID, err)
			continue
		}
		closed++

		notify(ctx, uc.notifier, offer.BuyerID, entity.NotificationOfferRejected, map[string]interface{}{
			"offer_id":   offer.ID,
			"listing_id": listingID,
			"reason":     "listing_unavailable",
		})
	}
	return closed
}
