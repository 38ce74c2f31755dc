package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/internal/domain/service"
	"skipped/pkg/errors"
	"skipped/pkg/logger"
)

// Payment intent metadata keys. The recorder rebuilds the sale from these.
const (
	metaListingID       = "listing_id"
	metaBuyerID         = "buyer_id"
	metaSellerID        = "seller_id"
	metaOfferID         = "offer_id"
	metaDeliveryMethod  = "delivery_method"
	metaDeliveryType    = "delivery_type"
	metaDeliveryAddress = "delivery_address"
	metaItemAmount      = "item_amount"
	metaDeliveryAmount  = "delivery_amount"
	metaPlatformFee     = "platform_fee"
	metaTotalAmount     = "total_amount"
)

var hundred = decimal.NewFromInt(100)

// PriceBreakdown is what the buyer pays. Fee is currently always zero.
type PriceBreakdown struct {
	Item        decimal.Decimal `json:"item"`
	Fee         decimal.Decimal `json:"fee"`
	Delivery    decimal.Decimal `json:"delivery"`
	Total       decimal.Decimal `json:"total"`
	AmountMinor int64           `json:"amount_minor"`
}

// ComputeTotal prices a checkout of listing for buyerID. An accepted offer
// replaces the listing price with the negotiated amount.
func ComputeTotal(listing *entity.Listing, deliveryMethod, deliveryType string, offer *entity.Offer, buyerID string) (*PriceBreakdown, error) {
	if !listing.IsActive() {
		return nil, errors.ListingUnavailable()
	}

	item := decimal.NewFromFloat(listing.Price)
	if offer != nil {
		if offer.ListingID != listing.ID {
			return nil, errors.InvalidOffer("Offer is for a different listing")
		}
		if offer.BuyerID != buyerID {
			return nil, errors.InvalidOffer("Offer belongs to another buyer")
		}
		if offer.Status != entity.OfferStatusAccepted {
			return nil, errors.InvalidOffer("Offer has not been accepted")
		}
		item = decimal.NewFromFloat(offer.EffectiveAmount())
	}

	var delivery decimal.Decimal
	switch {
	case deliveryMethod == entity.DeliveryMethodCollection:
		delivery = decimal.Zero
	case deliveryType == entity.DeliveryTypeCourier:
		delivery = decimal.NewFromFloat(listing.CourierDeliveryCost)
	default:
		delivery = decimal.NewFromFloat(listing.DeliveryCharge)
	}

	fee := decimal.Zero
	total := item.Add(fee).Add(delivery)

	return &PriceBreakdown{
		Item:        item,
		Fee:         fee,
		Delivery:    delivery,
		Total:       total,
		AmountMinor: total.Mul(hundred).Round(0).IntPart(),
	}, nil
}

type CheckoutUseCase struct {
	listingRepo repository.ListingRepository
	offerRepo   repository.OfferRepository
	gateway     service.PaymentGateway
	currency    string
}

func NewCheckoutUseCase(
	listingRepo repository.ListingRepository,
	offerRepo repository.OfferRepository,
	gateway service.PaymentGateway,
	currency string,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		listingRepo: listingRepo,
		offerRepo:   offerRepo,
		gateway:     gateway,
		currency:    currency,
	}
}

type CheckoutInput struct {
	ListingID       string `json:"listing_id" validate:"required"`
	OfferID         string `json:"offer_id"`
	DeliveryMethod  string `json:"delivery_method" validate:"required,oneof=collection delivery"`
	DeliveryType    string `json:"delivery_type" validate:"omitempty,oneof=local courier"`
	DeliveryAddress string `json:"delivery_address" validate:"required_if=DeliveryMethod delivery"`
}

type CheckoutResult struct {
	PaymentIntentID string          `json:"payment_intent_id"`
	ClientSecret    string          `json:"client_secret"`
	Currency        string          `json:"currency"`
	Breakdown       *PriceBreakdown `json:"breakdown"`
}

// CreatePaymentIntent - Price the checkout and open a payment intent for it
func (uc *CheckoutUseCase) CreatePaymentIntent(ctx context.Context, buyerID string, input CheckoutInput) (*CheckoutResult, error) {
	if buyerID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	listing, err := uc.listingRepo.GetByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID == buyerID {
		return nil, errors.Forbidden("You cannot buy your own listing", nil)
	}

	switch input.DeliveryMethod {
	case entity.DeliveryMethodCollection:
		if !listing.CollectionAvailable {
			return nil, errors.Validation("collection is not available for this listing")
		}
		input.DeliveryType = ""
		input.DeliveryAddress = ""
	case entity.DeliveryMethodDelivery:
		if !listing.DeliveryAvailable {
			return nil, errors.Validation("delivery is not available for this listing")
		}
		if input.DeliveryType == "" {
			input.DeliveryType = entity.DeliveryTypeLocal
		}
	default:
		return nil, errors.Validation("delivery_method must be one of: collection delivery")
	}

	var offer *entity.Offer
	if input.OfferID != "" {
		offer, err = uc.offerRepo.GetByID(ctx, input.OfferID)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				return nil, errors.InvalidOffer("Offer does not exist")
			}
			return nil, err
		}
	}

	breakdown, err := ComputeTotal(listing, input.DeliveryMethod, input.DeliveryType, offer, buyerID)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		metaListingID:      listing.ID,
		metaBuyerID:        buyerID,
		metaSellerID:       listing.SellerID,
		metaDeliveryMethod: input.DeliveryMethod,
		metaItemAmount:     breakdown.Item.StringFixed(2),
		metaDeliveryAmount: breakdown.Delivery.StringFixed(2),
		metaPlatformFee:    breakdown.Fee.StringFixed(2),
		metaTotalAmount:    breakdown.Total.StringFixed(2),
	}
	if offer != nil {
		metadata[metaOfferID] = offer.ID
	}
	if input.DeliveryType != "" {
		metadata[metaDeliveryType] = input.DeliveryType
	}
	if input.DeliveryAddress != "" {
		metadata[metaDeliveryAddress] = input.DeliveryAddress
	}

	intent, err := uc.gateway.CreatePaymentIntent(ctx, service.PaymentIntentRequest{
		AmountMinor:    breakdown.AmountMinor,
		Currency:       uc.currency,
		Metadata:       metadata,
		IdempotencyKey: checkoutIdempotencyKey(breakdown.AmountMinor, metadata),
	})
	if err != nil {
		return nil, errors.Provider("Failed to create payment intent", err)
	}

	logger.Info("Payment intent %s created for listing %s buyer %s amount_minor=%d", intent.ID, listing.ID, buyerID, breakdown.AmountMinor)

	return &CheckoutResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Currency:        uc.currency,
		Breakdown:       breakdown,
	}, nil
}

// checkoutIdempotencyKey makes a double-submitted checkout reuse the same intent.
func checkoutIdempotencyKey(amountMinor int64, metadata map[string]string) string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(strconv.FormatInt(amountMinor, 10))
	for _, k := range keys {
		b.WriteString("|" + k + "=" + metadata[k])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return "checkout-" + hex.EncodeToString(sum[:16])
}
