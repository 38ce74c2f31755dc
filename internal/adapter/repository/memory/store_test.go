package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skipped/internal/domain/entity"
	"skipped/pkg/errors"
)

func seedListing(t *testing.T, s *Store) *entity.Listing {
	t.Helper()
	l := &entity.Listing{ID: "l1", SellerID: "seller", Title: "Oak boards", Price: 60, Status: entity.ListingStatusActive, CreatedAt: time.Now()}
	require.NoError(t, s.Listings().Create(context.Background(), l))
	return l
}

func TestConcurrentOffersKeepOneActive(t *testing.T) {
	s := NewStore()
	listing := seedListing(t, s)
	repo := s.Offers()

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			offer, event := entity.NewOffer(listing, "buyer", 40, time.Now())
			results <- repo.CreateWithinLimits(context.Background(), offer, event, entity.MaxOfferAttempts)
		}()
	}
	wg.Wait()
	close(results)

	created := 0
	for err := range results {
		if err == nil {
			created++
			continue
		}
		assert.True(t, errors.Is(err, errors.CodeDuplicateActiveOffer))
	}
	assert.Equal(t, 1, created)
}

func TestLifetimeOfferLimit(t *testing.T) {
	s := NewStore()
	listing := seedListing(t, s)
	repo := s.Offers()
	ctx := context.Background()

	for i := 0; i < entity.MaxOfferAttempts; i++ {
		offer, event := entity.NewOffer(listing, "buyer", float64(40+i), time.Now())
		require.NoError(t, repo.CreateWithinLimits(ctx, offer, event, entity.MaxOfferAttempts), "attempt %d", i+1)

		expected := offer.Version
		closeEvent, ok := offer.Close(time.Now())
		require.True(t, ok)
		require.NoError(t, repo.Transition(ctx, offer, expected, closeEvent))
	}

	offer, event := entity.NewOffer(listing, "buyer", 50, time.Now())
	err := repo.CreateWithinLimits(ctx, offer, event, entity.MaxOfferAttempts)
	assert.True(t, errors.Is(err, errors.CodeOfferLimitExceeded))

	// another buyer is unaffected
	offer, event = entity.NewOffer(listing, "buyer-2", 50, time.Now())
	assert.NoError(t, repo.CreateWithinLimits(ctx, offer, event, entity.MaxOfferAttempts))
}

func TestTransitionRejectsStaleVersion(t *testing.T) {
	s := NewStore()
	listing := seedListing(t, s)
	repo := s.Offers()
	ctx := context.Background()

	offer, event := entity.NewOffer(listing, "buyer", 40, time.Now())
	require.NoError(t, repo.CreateWithinLimits(ctx, offer, event, entity.MaxOfferAttempts))

	first, _ := repo.GetByID(ctx, offer.ID)
	second, _ := repo.GetByID(ctx, offer.ID)

	ev, err := first.Respond("seller", entity.OfferActionAccept, 0, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Transition(ctx, first, 1, ev))

	ev, err = second.Respond("seller", entity.OfferActionReject, 0, time.Now())
	require.NoError(t, err)
	err = repo.Transition(ctx, second, 1, ev)
	assert.True(t, errors.Is(err, errors.CodeConflict))

	events, err := repo.ListEvents(ctx, offer.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, entity.OfferEventAccepted, events[1].Action)
}

func TestRecordSaleIsIdempotentUnderDuplicateDelivery(t *testing.T) {
	s := NewStore()
	seedListing(t, s)
	repo := s.Transactions()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	ids := map[string]bool{}

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx := &entity.Transaction{
				ID:              fmt.Sprintf("tx-%d", i),
				PaymentIntentID: "pi_1",
				ListingID:       "l1",
				BuyerID:         "buyer",
				SellerID:        "seller",
				OrderStatus:     entity.OrderStatusPaid,
				CreatedAt:       time.Now(),
			}
			log := &entity.TransactionLog{ID: fmt.Sprintf("log-%d", i), TransactionID: tx.ID, Status: entity.OrderStatusPaid}
			got, isNew, err := repo.RecordSale(context.Background(), tx, log)
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			ids[got.ID] = true
			if isNew {
				created++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)

	listing, err := s.Listings().GetByID(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusSold, listing.Status)
	assert.NotNil(t, listing.SoldAt)
}

func TestRecordSaleOnSoldListingFails(t *testing.T) {
	s := NewStore()
	seedListing(t, s)
	repo := s.Transactions()
	ctx := context.Background()

	first := &entity.Transaction{ID: "tx-1", PaymentIntentID: "pi_1", ListingID: "l1", CreatedAt: time.Now()}
	_, _, err := repo.RecordSale(ctx, first, &entity.TransactionLog{ID: "log-1", TransactionID: "tx-1"})
	require.NoError(t, err)

	second := &entity.Transaction{ID: "tx-2", PaymentIntentID: "pi_2", ListingID: "l1", CreatedAt: time.Now()}
	_, _, err = repo.RecordSale(ctx, second, &entity.TransactionLog{ID: "log-2", TransactionID: "tx-2"})
	assert.True(t, errors.Is(err, errors.CodeListingUnavailable))

	_, err = repo.GetByPaymentIntentID(ctx, "pi_2")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestListingSearch(t *testing.T) {
	s := NewStore()
	repo := s.Listings()
	ctx := context.Background()
	base := time.Now()

	for i, l := range []*entity.Listing{
		{ID: "a", Title: "Reclaimed oak boards", Material: "timber", Price: 60, Status: entity.ListingStatusActive},
		{ID: "b", Title: "Engineering bricks", Material: "brick", Price: 120, Status: entity.ListingStatusActive},
		{ID: "c", Title: "Oak sleepers", Material: "timber", Price: 200, Status: entity.ListingStatusSold},
	} {
		l.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, l))
	}

	got, total, err := repo.Search(ctx, entity.ListingFilter{Query: "OAK", Status: entity.ListingStatusActive})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "a", got[0].ID)

	got, total, err = repo.Search(ctx, entity.ListingFilter{Material: "timber", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)

	got, _, err = repo.Search(ctx, entity.ListingFilter{MinPrice: 100, MaxPrice: 150})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}
