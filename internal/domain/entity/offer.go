package entity

import (
	"time"

	"github.com/google/uuid"

	"skipped/pkg/errors"
)

// MaxOfferAttempts is the lifetime number of offers a buyer may make on one listing.
const MaxOfferAttempts = 5

const (
	OfferStatusPending   = "pending"
	OfferStatusAccepted  = "accepted"
	OfferStatusRejected  = "rejected"
	OfferStatusCountered = "countered"
)

// Actions a participant can take on an active offer.
const (
	OfferActionAccept  = "accept"
	OfferActionReject  = "reject"
	OfferActionCounter = "counter"
)

// Event kinds written to the negotiation log.
const (
	OfferEventCreated   = "created"
	OfferEventAccepted  = "accepted"
	OfferEventRejected  = "rejected"
	OfferEventCountered = "countered"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleSystem = "system"
)

type Offer struct {
	ID            string     `json:"id" firestore:"id"`
	ListingID     string     `json:"listing_id" firestore:"listingId"`
	BuyerID       string     `json:"buyer_id" firestore:"buyerId"`
	SellerID      string     `json:"seller_id" firestore:"sellerId"`
	Amount        float64    `json:"amount" firestore:"amount"`
	Status        string     `json:"status" firestore:"status"`
	CounterAmount *float64   `json:"counter_amount,omitempty" firestore:"counterAmount,omitempty"`
	Awaiting      string     `json:"awaiting,omitempty" firestore:"awaiting"` // buyer or seller while active
	Version       int        `json:"version" firestore:"version"`
	CreatedAt     time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time  `json:"updated_at" firestore:"updatedAt"`
	AcceptedAt    *time.Time `json:"accepted_at,omitempty" firestore:"acceptedAt,omitempty"`
}

// OfferEvent is one immutable step of a negotiation. Sequence equals the
// offer version the event produced.
type OfferEvent struct {
	ID        string    `json:"id" firestore:"id"`
	OfferID   string    `json:"offer_id" firestore:"offerId"`
	ListingID string    `json:"listing_id" firestore:"listingId"`
	Sequence  int       `json:"sequence" firestore:"sequence"`
	Action    string    `json:"action" firestore:"action"`
	ActorID   string    `json:"actor_id" firestore:"actorId"`
	ActorRole string    `json:"actor_role" firestore:"actorRole"`
	Amount    float64   `json:"amount" firestore:"amount"`
	Status    string    `json:"status" firestore:"status"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// NewOffer opens a negotiation on listing for buyerID. The seller answers first.
func NewOffer(listing *Listing, buyerID string, amount float64, now time.Time) (*Offer, *OfferEvent) {
	offer := &Offer{
		ID:        uuid.New().String(),
		ListingID: listing.ID,
		BuyerID:   buyerID,
		SellerID:  listing.SellerID,
		Amount:    amount,
		Status:    OfferStatusPending,
		Awaiting:  RoleSeller,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return offer, offer.event(OfferEventCreated, buyerID, RoleBuyer, now)
}

func (o *Offer) IsActive() bool {
	return o.Status == OfferStatusPending || o.Status == OfferStatusCountered
}

// EffectiveAmount is the price currently on the table.
func (o *Offer) EffectiveAmount() float64 {
	if o.CounterAmount != nil {
		return *o.CounterAmount
	}
	return o.Amount
}

// RoleOf returns buyer, seller, or "" for anyone else.
func (o *Offer) RoleOf(userID string) string {
	switch userID {
	case o.BuyerID:
		return RoleBuyer
	case o.SellerID:
		return RoleSeller
	default:
		return ""
	}
}

func (o *Offer) IsParticipant(userID string) bool {
	return o.RoleOf(userID) != ""
}

// Respond applies action by actorID and returns the event to append.
// Only the party whose turn it is may act; a counter hands the turn over.
func (o *Offer) Respond(actorID, action string, counterAmount float64, now time.Time) (*OfferEvent, error) {
	role := o.RoleOf(actorID)
	if role == "" {
		return nil, errors.Forbidden("Only the buyer or the seller can respond to this offer", nil)
	}
	if !o.IsActive() {
		return nil, errors.OfferNotPending(o.Status)
	}

	switch action {
	case OfferActionAccept, OfferActionReject:
	case OfferActionCounter:
		if counterAmount <= 0 {
			return nil, errors.Validation("counter_amount must be greater than 0")
		}
	default:
		return nil, errors.Validation("action must be one of: accept reject counter")
	}

	if o.Awaiting != role {
		return nil, errors.Forbidden("Waiting for the other party to respond", nil)
	}

	var kind string
	switch action {
	case OfferActionAccept:
		o.Status = OfferStatusAccepted
		o.AcceptedAt = &now
		o.Awaiting = ""
		kind = OfferEventAccepted
	case OfferActionReject:
		o.Status = OfferStatusRejected
		o.Awaiting = ""
		kind = OfferEventRejected
	case OfferActionCounter:
		amount := counterAmount
		o.Status = OfferStatusCountered
		o.CounterAmount = &amount
		o.Awaiting = otherRole(role)
		kind = OfferEventCountered
	}

	o.Version++
	o.UpdatedAt = now
	return o.event(kind, actorID, role, now), nil
}

// Close rejects an active offer on behalf of the platform, e.g. after the listing sold.
func (o *Offer) Close(now time.Time) (*OfferEvent, bool) {
	if !o.IsActive() {
		return nil, false
	}
	o.Status = OfferStatusRejected
	o.Awaiting = ""
	o.Version++
	o.UpdatedAt = now
	return o.event(OfferEventRejected, "", RoleSystem, now), true
}

func (o *Offer) event(kind, actorID, role string, now time.Time) *OfferEvent {
	return &OfferEvent{
		ID:        uuid.New().String(),
		OfferID:   o.ID,
		ListingID: o.ListingID,
		Sequence:  o.Version,
		Action:    kind,
		ActorID:   actorID,
		ActorRole: role,
		Amount:    o.EffectiveAmount(),
		Status:    o.Status,
		CreatedAt: now,
	}
}

func otherRole(role string) string {
	if role == RoleBuyer {
		return RoleSeller
	}
	return RoleBuyer
}

// OfferFilter selects offers for a participant.
type OfferFilter struct {
	UserID    string
	Role      string // buyer or seller
	ListingID string
	Status    string
	Limit     int
	Offset    int
}
