package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skipped/pkg/errors"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestOffer(t *testing.T) *Offer {
	t.Helper()
	listing := &Listing{ID: "listing-1", SellerID: "seller", Price: 60, Status: ListingStatusActive}
	offer, event := NewOffer(listing, "buyer", 45, now)

	require.Equal(t, OfferStatusPending, offer.Status)
	require.Equal(t, RoleSeller, offer.Awaiting)
	require.Equal(t, 1, event.Sequence)
	require.Equal(t, OfferEventCreated, event.Action)
	return offer
}

func TestSellerAcceptsPendingOffer(t *testing.T) {
	offer := newTestOffer(t)

	event, err := offer.Respond("seller", OfferActionAccept, 0, now.Add(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, OfferStatusAccepted, offer.Status)
	require.NotNil(t, offer.AcceptedAt)
	assert.Equal(t, now.Add(time.Minute), *offer.AcceptedAt)
	assert.Equal(t, 2, offer.Version)
	assert.Equal(t, 2, event.Sequence)
	assert.Equal(t, 45.0, event.Amount)
	assert.Empty(t, offer.Awaiting)
}

func TestCounterHandsTurnToOtherParty(t *testing.T) {
	offer := newTestOffer(t)

	_, err := offer.Respond("seller", OfferActionCounter, 55, now)
	require.NoError(t, err)
	assert.Equal(t, OfferStatusCountered, offer.Status)
	assert.Equal(t, RoleBuyer, offer.Awaiting)
	assert.Equal(t, 55.0, offer.EffectiveAmount())

	// seller cannot answer their own counter
	_, err = offer.Respond("seller", OfferActionAccept, 0, now)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	event, err := offer.Respond("buyer", OfferActionCounter, 50, now)
	require.NoError(t, err)
	assert.Equal(t, RoleSeller, offer.Awaiting)
	assert.Equal(t, 50.0, event.Amount)
	assert.Equal(t, RoleBuyer, event.ActorRole)

	_, err = offer.Respond("seller", OfferActionAccept, 0, now)
	require.NoError(t, err)
	assert.Equal(t, 50.0, offer.EffectiveAmount())
	assert.Equal(t, 4, offer.Version)
}

func TestBuyerCannotRespondToPendingOffer(t *testing.T) {
	offer := newTestOffer(t)

	_, err := offer.Respond("buyer", OfferActionAccept, 0, now)
	assert.True(t, errors.Is(err, errors.CodeForbidden))
	assert.Equal(t, OfferStatusPending, offer.Status)
	assert.Equal(t, 1, offer.Version)
}

func TestStrangerIsForbidden(t *testing.T) {
	offer := newTestOffer(t)

	_, err := offer.Respond("someone-else", OfferActionReject, 0, now)
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestTerminalOffersRejectEveryAction(t *testing.T) {
	for _, terminal := range []string{OfferActionAccept, OfferActionReject} {
		offer := newTestOffer(t)
		_, err := offer.Respond("seller", terminal, 0, now)
		require.NoError(t, err)

		for _, action := range []string{OfferActionAccept, OfferActionReject} {
			_, err := offer.Respond("seller", action, 0, now)
			assert.True(t, errors.Is(err, errors.CodeOfferNotPending), "%s after %s", action, terminal)
		}
		_, err = offer.Respond("buyer", OfferActionCounter, 10, now)
		assert.True(t, errors.Is(err, errors.CodeOfferNotPending))
	}
}

func TestCounterRequiresPositiveAmount(t *testing.T) {
	offer := newTestOffer(t)

	for _, amount := range []float64{0, -5} {
		_, err := offer.Respond("seller", OfferActionCounter, amount, now)
		assert.True(t, errors.Is(err, errors.CodeValidation))
	}
	assert.Equal(t, OfferStatusPending, offer.Status)
}

func TestClosedOfferReportsStatusBeforeAmount(t *testing.T) {
	offer := newTestOffer(t)
	_, err := offer.Respond("seller", OfferActionAccept, 0, now)
	require.NoError(t, err)

	_, err = offer.Respond("seller", OfferActionCounter, 0, now)
	assert.True(t, errors.Is(err, errors.CodeOfferNotPending))

	_, err = offer.Respond("buyer", "withdraw", 0, now)
	assert.True(t, errors.Is(err, errors.CodeOfferNotPending))
	assert.Equal(t, 2, offer.Version)
}

func TestUnknownActionIsValidationError(t *testing.T) {
	offer := newTestOffer(t)

	_, err := offer.Respond("seller", "withdraw", 0, now)
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestCloseOnlyAffectsActiveOffers(t *testing.T) {
	offer := newTestOffer(t)

	event, closed := offer.Close(now)
	require.True(t, closed)
	assert.Equal(t, RoleSystem, event.ActorRole)
	assert.Equal(t, OfferStatusRejected, offer.Status)

	_, closed = offer.Close(now)
	assert.False(t, closed)
}
