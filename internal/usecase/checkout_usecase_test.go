package usecase

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skipped/internal/domain/entity"
	"skipped/pkg/errors"
)

func ptr(v float64) *float64 { return &v }

func TestComputeTotal(t *testing.T) {
	listing := &entity.Listing{
		ID:                  "l1",
		SellerID:            "seller",
		Price:               60,
		Status:              entity.ListingStatusActive,
		DeliveryCharge:      5,
		CourierDeliveryCost: 12.5,
	}
	accepted := &entity.Offer{ID: "o1", ListingID: "l1", BuyerID: "buyer", Amount: 35, CounterAmount: ptr(40), Status: entity.OfferStatusAccepted}

	cases := []struct {
		name         string
		method       string
		deliveryType string
		offer        *entity.Offer
		item         string
		delivery     string
		total        string
		minor        int64
	}{
		{"accepted counter with local delivery", entity.DeliveryMethodDelivery, entity.DeliveryTypeLocal, accepted, "40", "5", "45", 4500},
		{"listing price on collection", entity.DeliveryMethodCollection, "", nil, "60", "0", "60", 6000},
		{"courier delivery", entity.DeliveryMethodDelivery, entity.DeliveryTypeCourier, nil, "60", "12.5", "72.5", 7250},
		{"delivery without type is local", entity.DeliveryMethodDelivery, "", nil, "60", "5", "65", 6500},
		{"accepted offer without counter", entity.DeliveryMethodCollection, "", &entity.Offer{ListingID: "l1", BuyerID: "buyer", Amount: 33.33, Status: entity.OfferStatusAccepted}, "33.33", "0", "33.33", 3333},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeTotal(listing, tc.method, tc.deliveryType, tc.offer, "buyer")
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.item).Equal(got.Item), "item %s", got.Item)
			assert.True(t, decimal.RequireFromString(tc.delivery).Equal(got.Delivery), "delivery %s", got.Delivery)
			assert.True(t, got.Fee.IsZero())
			assert.True(t, decimal.RequireFromString(tc.total).Equal(got.Total), "total %s", got.Total)
			assert.True(t, got.Total.Equal(got.Item.Add(got.Fee).Add(got.Delivery)))
			assert.Equal(t, tc.minor, got.AmountMinor)
		})
	}
}

func TestComputeTotalRoundsMinorUnits(t *testing.T) {
	listing := &entity.Listing{ID: "l1", Price: 0.1, DeliveryCharge: 0.2, Status: entity.ListingStatusActive}

	got, err := ComputeTotal(listing, entity.DeliveryMethodDelivery, entity.DeliveryTypeLocal, nil, "buyer")
	require.NoError(t, err)
	assert.Equal(t, int64(30), got.AmountMinor)

	listing.Price = 10.005
	listing.DeliveryCharge = 0
	got, err = ComputeTotal(listing, entity.DeliveryMethodCollection, "", nil, "buyer")
	require.NoError(t, err)
	assert.Equal(t, int64(1001), got.AmountMinor)
}

func TestComputeTotalRejections(t *testing.T) {
	active := &entity.Listing{ID: "l1", Price: 60, Status: entity.ListingStatusActive}
	good := &entity.Offer{ListingID: "l1", BuyerID: "buyer", Amount: 40, Status: entity.OfferStatusAccepted}

	sold := *active
	sold.Status = entity.ListingStatusSold
	_, err := ComputeTotal(&sold, entity.DeliveryMethodCollection, "", good, "buyer")
	assert.True(t, errors.Is(err, errors.CodeListingUnavailable))

	other := *good
	other.ListingID = "l2"
	_, err = ComputeTotal(active, entity.DeliveryMethodCollection, "", &other, "buyer")
	assert.True(t, errors.Is(err, errors.CodeInvalidOffer))

	_, err = ComputeTotal(active, entity.DeliveryMethodCollection, "", good, "someone-else")
	assert.True(t, errors.Is(err, errors.CodeInvalidOffer))

	for _, status := range []string{entity.OfferStatusPending, entity.OfferStatusCountered, entity.OfferStatusRejected} {
		o := *good
		o.Status = status
		_, err = ComputeTotal(active, entity.DeliveryMethodCollection, "", &o, "buyer")
		assert.True(t, errors.Is(err, errors.CodeInvalidOffer), status)
	}
}

func TestCreatePaymentIntentWithAcceptedOffer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	listing := f.listing(t, "seller")
	offer := f.acceptedOffer(t, listing, "buyer", 40)

	result, err := f.checkout.CreatePaymentIntent(ctx, "buyer", CheckoutInput{
		ListingID:       listing.ID,
		OfferID:         offer.ID,
		DeliveryMethod:  entity.DeliveryMethodDelivery,
		DeliveryType:    entity.DeliveryTypeLocal,
		DeliveryAddress: "1 High Street",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4500), result.Breakdown.AmountMinor)
	assert.NotEmpty(t, result.ClientSecret)

	require.Len(t, f.gateway.created, 1)
	req := f.gateway.created[0]
	assert.Equal(t, int64(4500), req.AmountMinor)
	assert.Equal(t, "gbp", req.Currency)
	assert.Equal(t, offer.ID, req.Metadata[metaOfferID])
	assert.Equal(t, "45.00", req.Metadata[metaTotalAmount])
	assert.NotEmpty(t, req.IdempotencyKey)
}

func TestCreatePaymentIntentRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	listing := f.listing(t, "seller")

	_, err := f.checkout.CreatePaymentIntent(ctx, "", CheckoutInput{ListingID: listing.ID, DeliveryMethod: entity.DeliveryMethodCollection})
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))

	_, err = f.checkout.CreatePaymentIntent(ctx, "seller", CheckoutInput{ListingID: listing.ID, DeliveryMethod: entity.DeliveryMethodCollection})
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.checkout.CreatePaymentIntent(ctx, "buyer", CheckoutInput{ListingID: listing.ID, OfferID: "missing", DeliveryMethod: entity.DeliveryMethodCollection})
	assert.True(t, errors.Is(err, errors.CodeInvalidOffer))

	pending, err := f.offers.CreateOffer(ctx, "buyer", listing.ID, 40)
	require.NoError(t, err)
	_, err = f.checkout.CreatePaymentIntent(ctx, "buyer", CheckoutInput{ListingID: listing.ID, OfferID: pending.ID, DeliveryMethod: entity.DeliveryMethodCollection})
	assert.True(t, errors.Is(err, errors.CodeInvalidOffer))

	f.gateway.failWith = stderrors.New("stripe down")
	_, err = f.checkout.CreatePaymentIntent(ctx, "buyer", CheckoutInput{ListingID: listing.ID, DeliveryMethod: entity.DeliveryMethodCollection})
	assert.True(t, errors.Is(err, errors.CodeProvider))
}

func TestCheckoutIdempotencyKeyIsStable(t *testing.T) {
	md := map[string]string{"listing_id": "l1", "buyer_id": "b"}
	assert.Equal(t, checkoutIdempotencyKey(4500, md), checkoutIdempotencyKey(4500, map[string]string{"buyer_id": "b", "listing_id": "l1"}))
	assert.NotEqual(t, checkoutIdempotencyKey(4500, md), checkoutIdempotencyKey(4600, md))
}
