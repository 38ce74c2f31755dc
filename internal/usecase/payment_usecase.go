package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/internal/domain/service"
	"skipped/pkg/errors"
	"skipped/pkg/logger"
)

// listingInvalidator is implemented by caching listing repositories.
type listingInvalidator interface {
	Invalidate(ctx context.Context, id string)
}

type PaymentUseCase struct {
	transactionRepo repository.TransactionRepository
	listingRepo     repository.ListingRepository
	offerUseCase    *OfferUseCase
	gateway         service.PaymentGateway
	notifier        service.Notifier
	webhookSecret   string
	currency        string
	now             func() time.Time
}

func NewPaymentUseCase(
	transactionRepo repository.TransactionRepository,
	listingRepo repository.ListingRepository,
	offerUseCase *OfferUseCase,
	gateway service.PaymentGateway,
	notifier service.Notifier,
	webhookSecret string,
	currency string,
) *PaymentUseCase {
	return &PaymentUseCase{
		transactionRepo: transactionRepo,
		listingRepo:     listingRepo,
		offerUseCase:    offerUseCase,
		gateway:         gateway,
		notifier:        notifier,
		webhookSecret:   webhookSecret,
		currency:        currency,
		now:             time.Now,
	}
}

type RecordPaymentInput struct {
	ListingID       string
	PaymentIntentID string
	OfferID         string
	BuyerID         string
	ItemAmount      decimal.Decimal
	DeliveryAmount  decimal.Decimal
	PlatformFee     decimal.Decimal
	TotalAmount     decimal.Decimal
	AmountMinor     int64
	Currency        string
	DeliveryMethod  string
	DeliveryType    string
	DeliveryAddress string
}

// RecordPayment - Turn a confirmed payment into a sale exactly once.
// Replaying the same payment intent returns the original transaction with created=false.
func (uc *PaymentUseCase) RecordPayment(ctx context.Context, input RecordPaymentInput) (*entity.Transaction, bool, error) {
	if input.PaymentIntentID == "" {
		return nil, false, errors.BadRequest("payment_intent_id is required", nil)
	}

	if existing, err := uc.transactionRepo.GetByPaymentIntentID(ctx, input.PaymentIntentID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, errors.CodeNotFound) {
		return nil, false, err
	}

	listing, err := uc.listingRepo.GetByID(ctx, input.ListingID)
	if err != nil {
		return nil, false, err
	}

	now := uc.now()
	currency := input.Currency
	if currency == "" {
		currency = uc.currency
	}

	transaction := &entity.Transaction{
		ID:              uuid.New().String(),
		PaymentIntentID: input.PaymentIntentID,
		ListingID:       listing.ID,
		OfferID:         input.OfferID,
		BuyerID:         input.BuyerID,
		SellerID:        listing.SellerID,
		ItemAmount:      input.ItemAmount.InexactFloat64(),
		DeliveryAmount:  input.DeliveryAmount.InexactFloat64(),
		PlatformFee:     input.PlatformFee.InexactFloat64(),
		TotalAmount:     input.TotalAmount.InexactFloat64(),
		AmountMinor:     input.AmountMinor,
		Currency:        currency,
		DeliveryMethod:  input.DeliveryMethod,
		DeliveryType:    input.DeliveryType,
		DeliveryAddress: input.DeliveryAddress,
		PaymentStatus:   entity.PaymentStatusPaid,
		OrderStatus:     entity.OrderStatusPaid,
		CarbonSavedKg:   entity.EstimateCarbonSavings(listing),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	log := &entity.TransactionLog{
		ID:            uuid.New().String(),
		TransactionID: transaction.ID,
		Status:        entity.OrderStatusPaid,
		Notes:         fmt.Sprintf("Payment %s received", input.PaymentIntentID),
		CreatedBy:     input.BuyerID,
		CreatedAt:     now,
	}

	recorded, created, err := uc.transactionRepo.RecordSale(ctx, transaction, log)
	if err != nil {
		return nil, false, err
	}
	if !created {
		logger.Info("Payment %s already recorded as transaction %s", input.PaymentIntentID, recorded.ID)
		return recorded, false, nil
	}

	logger.Info("Sale recorded: transaction %s listing %s buyer %s total=%s", recorded.ID, recorded.ListingID, recorded.BuyerID, input.TotalAmount.StringFixed(2))

	if cache, ok := uc.listingRepo.(listingInvalidator); ok {
		cache.Invalidate(ctx, recorded.ListingID)
	}

	if uc.offerUseCase != nil {
		if closed := uc.offerUseCase.CloseOffersForListing(ctx, recorded.ListingID); closed > 0 {
			logger.Info("Closed %d open offers on sold listing %s", closed, recorded.ListingID)
		}
	}

	data := map[string]interface{}{
		"transaction_id": recorded.ID,
		"listing_id":     recorded.ListingID,
		"total_amount":   recorded.TotalAmount,
	}
	notify(ctx, uc.notifier, recorded.BuyerID, entity.NotificationPaymentRecorded, data)
	notify(ctx, uc.notifier, recorded.SellerID, entity.NotificationPaymentRecorded, data)

	return recorded, true, nil
}

// ConfirmPayment - Client-driven path after the payment sheet reports success
func (uc *PaymentUseCase) ConfirmPayment(ctx context.Context, buyerID, paymentIntentID string) (*entity.Transaction, error) {
	if buyerID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	intent, err := uc.gateway.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, errors.Provider("Failed to retrieve payment intent", err)
	}
	if intent.Metadata[metaBuyerID] != buyerID {
		return nil, errors.Forbidden("This payment belongs to another buyer", nil)
	}
	if intent.Status != service.PaymentIntentSucceeded {
		return nil, errors.BadRequest(fmt.Sprintf("Payment has not succeeded (status %s)", intent.Status), nil)
	}

	transaction, _, err := uc.recordFromIntent(ctx, intent)
	return transaction, err
}

// HandleWebhook verifies a provider callback and records successful payments.
// Events other than payment_intent.succeeded are acknowledged and ignored.
func (uc *PaymentUseCase) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := service.ConstructWebhookEvent(payload, signature, uc.webhookSecret, service.DefaultWebhookTolerance, uc.now())
	if err != nil {
		return errors.Unauthorized("Invalid webhook signature", err)
	}

	logger.Info("Stripe webhook received: %s %s", event.ID, event.Type)

	if event.Type != service.EventPaymentIntentSucceeded {
		return nil
	}

	intent, err := event.PaymentIntent()
	if err != nil {
		return errors.BadRequest("Malformed payment intent payload", err)
	}

	_, _, err = uc.recordFromIntent(ctx, intent)
	return err
}

func (uc *PaymentUseCase) recordFromIntent(ctx context.Context, intent *service.PaymentIntent) (*entity.Transaction, bool, error) {
	input, err := recordInputFromIntent(intent)
	if err != nil {
		return nil, false, err
	}

	transaction, created, err := uc.RecordPayment(ctx, input)
	if errors.Is(err, errors.CodeListingUnavailable) {
		// money was taken for a listing someone else bought first. A failed refund
		// surfaces as a provider error so the webhook is redelivered and retries it.
		if _, refundErr := uc.gateway.CreateRefund(ctx, intent.ID); refundErr != nil {
			logger.Error("Failed to refund payment %s for unavailable listing %s: %v", intent.ID, input.ListingID, refundErr)
			return nil, false, errors.Provider("Failed to refund payment for unavailable listing", refundErr)
		}
		logger.Warn("Refunded payment %s: listing %s no longer available", intent.ID, input.ListingID)
	}
	return transaction, created, err
}

func recordInputFromIntent(intent *service.PaymentIntent) (RecordPaymentInput, error) {
	md := intent.Metadata
	if md[metaListingID] == "" || md[metaBuyerID] == "" {
		return RecordPaymentInput{}, errors.BadRequest("Payment intent is missing checkout metadata", nil)
	}

	amounts := map[string]decimal.Decimal{}
	for _, key := range []string{metaItemAmount, metaDeliveryAmount, metaPlatformFee, metaTotalAmount} {
		v, err := decimal.NewFromString(md[key])
		if err != nil {
			return RecordPaymentInput{}, errors.BadRequest(fmt.Sprintf("Payment intent metadata %s is invalid", key), err)
		}
		amounts[key] = v
	}

	expected := amounts[metaTotalAmount].Mul(hundred).Round(0).IntPart()
	if intent.Amount != expected {
		return RecordPaymentInput{}, errors.BadRequest(fmt.Sprintf("Payment amount %d does not match checkout total %d", intent.Amount, expected), nil)
	}

	return RecordPaymentInput{
		ListingID:       md[metaListingID],
		PaymentIntentID: intent.ID,
		OfferID:         md[metaOfferID],
		BuyerID:         md[metaBuyerID],
		ItemAmount:      amounts[metaItemAmount],
		DeliveryAmount:  amounts[metaDeliveryAmount],
		PlatformFee:     amounts[metaPlatformFee],
		TotalAmount:     amounts[metaTotalAmount],
		AmountMinor:     intent.Amount,
		Currency:        intent.Currency,
		DeliveryMethod:  md[metaDeliveryMethod],
		DeliveryType:    md[metaDeliveryType],
		DeliveryAddress: md[metaDeliveryAddress],
	}, nil
}
