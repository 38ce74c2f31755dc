package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"skipped/internal/adapter/repository/memory"
	"skipped/internal/domain/entity"
	"skipped/internal/domain/service"
	"skipped/pkg/logger"
)

type fakeGateway struct {
	mu       sync.Mutex
	intents  map[string]*service.PaymentIntent
	refunds  []string
	created  []service.PaymentIntentRequest
	failWith error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*service.PaymentIntent{}}
}

func (g *fakeGateway) CreatePaymentIntent(ctx context.Context, req service.PaymentIntentRequest) (*service.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	g.created = append(g.created, req)
	id := fmt.Sprintf("pi_%d", len(g.created))
	intent := &service.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       req.AmountMinor,
		Currency:     req.Currency,
		Status:       "requires_payment_method",
		Metadata:     req.Metadata,
	}
	g.intents[id] = intent
	return intent, nil
}

func (g *fakeGateway) GetPaymentIntent(ctx context.Context, id string) (*service.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such payment intent: %s", id)
	}
	c := *intent
	return &c, nil
}

func (g *fakeGateway) CreateRefund(ctx context.Context, paymentIntentID string) (*service.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return nil, g.failWith
	}
	g.refunds = append(g.refunds, paymentIntentID)
	return &service.Refund{ID: "re_" + paymentIntentID, PaymentIntentID: paymentIntentID, Status: "succeeded"}, nil
}

func (g *fakeGateway) succeed(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id].Status = service.PaymentIntentSucceeded
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*entity.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, notification *entity.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) to(userID, kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, s := range n.sent {
		if s.UserID == userID && s.Type == kind {
			count++
		}
	}
	return count
}

type fakeUploader struct {
	mu      sync.Mutex
	uploads []string
}

func (u *fakeUploader) UploadFile(ctx context.Context, file io.Reader, fileType, folder string) (*service.UploadedFile, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	name := fmt.Sprintf("%s/file-%d", folder, len(u.uploads)+1)
	u.uploads = append(u.uploads, name)
	return &service.UploadedFile{URL: "https://storage.example/" + name, ObjectName: name}, nil
}

func (u *fakeUploader) DeleteFile(ctx context.Context, objectName string) error { return nil }

func (u *fakeUploader) Close() error { return nil }

// fixture wires every usecase over one memory store.
type fixture struct {
	store    *memory.Store
	gateway  *fakeGateway
	notifier *recordingNotifier
	uploader *fakeUploader

	listings *ListingUseCase
	offers   *OfferUseCase
	checkout *CheckoutUseCase
	payments *PaymentUseCase
	orders   *OrderUseCase
	disputes *DisputeUseCase
}

const testWebhookSecret = "whsec_test"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger.Replace(zaptest.NewLogger(t))

	f := &fixture{
		store:    memory.NewStore(),
		gateway:  newFakeGateway(),
		notifier: &recordingNotifier{},
		uploader: &fakeUploader{},
	}
	f.listings = NewListingUseCase(f.store.Listings(), f.store.Files(), f.uploader)
	f.offers = NewOfferUseCase(f.store.Offers(), f.store.Listings(), f.notifier)
	f.checkout = NewCheckoutUseCase(f.store.Listings(), f.store.Offers(), f.gateway, "gbp")
	f.payments = NewPaymentUseCase(f.store.Transactions(), f.store.Listings(), f.offers, f.gateway, f.notifier, testWebhookSecret, "gbp")
	f.orders = NewOrderUseCase(f.store.Transactions(), f.notifier, 7*24*time.Hour)
	f.disputes = NewDisputeUseCase(f.store.Disputes(), f.store.Transactions(), f.store.Files(), f.orders, f.gateway, f.uploader, f.notifier)
	return f
}

func (f *fixture) listing(t *testing.T, sellerID string) *entity.Listing {
	t.Helper()
	l, err := f.listings.CreateListing(context.Background(), sellerID, CreateListingInput{
		Title:               "Reclaimed oak boards",
		Category:            "timber",
		Material:            "timber",
		Condition:           "used",
		Quantity:            10,
		Price:               60,
		CollectionAvailable: true,
		DeliveryAvailable:   true,
		DeliveryCharge:      5,
		CourierDeliveryCost: 12.5,
		WeightKg:            40,
	})
	require.NoError(t, err)
	return l
}

// acceptedOffer negotiates buyer offer -> seller counter -> buyer accept.
func (f *fixture) acceptedOffer(t *testing.T, listing *entity.Listing, buyerID string, counter float64) *entity.Offer {
	t.Helper()
	ctx := context.Background()
	offer, err := f.offers.CreateOffer(ctx, buyerID, listing.ID, counter-10)
	require.NoError(t, err)
	_, err = f.offers.RespondToOffer(ctx, listing.SellerID, offer.ID, entity.OfferActionCounter, counter)
	require.NoError(t, err)
	offer, err = f.offers.RespondToOffer(ctx, buyerID, offer.ID, entity.OfferActionAccept, 0)
	require.NoError(t, err)
	return offer
}

// paidOrder runs checkout and confirms the payment.
func (f *fixture) paidOrder(t *testing.T, listing *entity.Listing, buyerID, method string) *entity.Transaction {
	t.Helper()
	ctx := context.Background()
	input := CheckoutInput{ListingID: listing.ID, DeliveryMethod: method}
	if method == entity.DeliveryMethodDelivery {
		input.DeliveryAddress = "1 High Street"
	}
	result, err := f.checkout.CreatePaymentIntent(ctx, buyerID, input)
	require.NoError(t, err)
	f.gateway.succeed(result.PaymentIntentID)

	transaction, err := f.payments.ConfirmPayment(ctx, buyerID, result.PaymentIntentID)
	require.NoError(t, err)
	return transaction
}

func upload(content string) UploadInput {
	return UploadInput{File: bytes.NewBufferString(content), Filename: "photo.jpg", ContentType: "image/jpeg", Size: int64(len(content))}
}
