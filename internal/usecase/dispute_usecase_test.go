package usecase

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skipped/internal/adapter/repository/memory"
	"skipped/internal/domain/entity"
	"skipped/pkg/errors"
)

var damaged = OpenDisputeInput{Reason: "damaged", Description: "Half the boards are split"}

func TestDisputeRefundsBuyer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.paidOrder(t, f.listing(t, "seller"), "buyer", entity.DeliveryMethodDelivery)
	_, err := f.orders.UpdateStatus(ctx, "seller", order.ID, entity.OrderStatusDispatched, "")
	require.NoError(t, err)

	_, err = f.disputes.OpenDispute(ctx, "stranger", order.ID, damaged)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	dispute, err := f.disputes.OpenDispute(ctx, "buyer", order.ID, damaged)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleBuyer, dispute.ReporterRole)
	assert.Equal(t, 1, f.notifier.to("seller", entity.NotificationDisputeOpened))

	_, err = f.disputes.OpenDispute(ctx, "seller", order.ID, damaged)
	assert.True(t, errors.Is(err, errors.CodeConflict))

	// a disputed order is no longer eligible for confirmation or auto-release
	_, err = f.orders.ConfirmReceipt(ctx, "buyer", order.ID)
	assert.Error(t, err)

	withEvidence, err := f.disputes.AddEvidence(ctx, "buyer", dispute.ID, "photo of split boards", upload("jpeg-bytes"))
	require.NoError(t, err)
	require.Len(t, withEvidence.Evidence, 1)
	assert.Contains(t, withEvidence.Evidence[0].FileURL, "disputes/"+dispute.ID)

	files, err := f.store.Files().GetByEntityID(ctx, entity.FileEntityDispute, dispute.ID)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	resolved, err := f.disputes.ResolveDispute(ctx, "admin", dispute.ID, ResolveDisputeInput{Resolution: entity.ResolutionRefundBuyer, Notes: "Photos confirm damage"})
	require.NoError(t, err)
	assert.Equal(t, entity.DisputeStatusResolved, resolved.Status)
	assert.Equal(t, []string{order.PaymentIntentID}, f.gateway.refunds)

	got, err := f.store.Transactions().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusRefunded, got.OrderStatus)
	assert.Equal(t, entity.PaymentStatusRefunded, got.PaymentStatus)

	_, err = f.disputes.ResolveDispute(ctx, "admin", dispute.ID, ResolveDisputeInput{Resolution: entity.ResolutionReleaseSeller})
	assert.True(t, errors.Is(err, errors.CodeConflict))

	_, err = f.disputes.AddEvidence(ctx, "buyer", dispute.ID, "", upload("late"))
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}

func TestDisputeReleaseToSeller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.paidOrder(t, f.listing(t, "seller"), "buyer", entity.DeliveryMethodCollection)

	dispute, err := f.disputes.OpenDispute(ctx, "seller", order.ID, OpenDisputeInput{Reason: "other", Description: "Buyer never turned up"})
	require.NoError(t, err)

	_, err = f.disputes.ResolveDispute(ctx, "admin", dispute.ID, ResolveDisputeInput{Resolution: entity.ResolutionReleaseSeller})
	require.NoError(t, err)

	got, err := f.store.Transactions().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCompleted, got.OrderStatus)
	assert.Equal(t, entity.PaymentStatusPaid, got.PaymentStatus)
	assert.Empty(t, f.gateway.refunds)
}

func TestFailedRefundLeavesDisputeOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.paidOrder(t, f.listing(t, "seller"), "buyer", entity.DeliveryMethodCollection)
	dispute, err := f.disputes.OpenDispute(ctx, "buyer", order.ID, damaged)
	require.NoError(t, err)

	f.gateway.failWith = stderrors.New("stripe unavailable")
	_, err = f.disputes.ResolveDispute(ctx, "admin", dispute.ID, ResolveDisputeInput{Resolution: entity.ResolutionRefundBuyer})
	assert.True(t, errors.Is(err, errors.CodeProvider))

	got, err := f.disputes.GetDispute(ctx, &entity.Principal{UID: "buyer"}, dispute.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DisputeStatusOpen, got.Status)

	open, total, err := f.disputes.ListDisputes(ctx, entity.DisputeStatusOpen, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, dispute.ID, open[0].ID)
}

func TestCompletedOrderCannotBeDisputed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.paidOrder(t, f.listing(t, "seller"), "buyer", entity.DeliveryMethodCollection)
	_, err := f.orders.UpdateStatus(ctx, "seller", order.ID, entity.OrderStatusReadyForCollection, "")
	require.NoError(t, err)
	_, err = f.orders.ConfirmReceipt(ctx, "buyer", order.ID)
	require.NoError(t, err)

	_, err = f.disputes.OpenDispute(ctx, "buyer", order.ID, damaged)
	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}

type unwritableDisputes struct {
	*memory.DisputeRepository
}

func (unwritableDisputes) Create(ctx context.Context, dispute *entity.Dispute) error {
	return errors.Internal("Failed to create dispute", stderrors.New("disk full"))
}

type racedTransactions struct {
	*memory.TransactionRepository
}

func (racedTransactions) UpdateStatus(ctx context.Context, transaction *entity.Transaction, from string) error {
	return errors.Conflict("Order status changed, please retry")
}

func TestOrderStaysPaidWhenDisputeCannotBeSaved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.paidOrder(t, f.listing(t, "seller"), "buyer", entity.DeliveryMethodCollection)

	broken := NewDisputeUseCase(unwritableDisputes{f.store.Disputes()}, f.store.Transactions(), f.store.Files(), f.orders, f.gateway, f.uploader, f.notifier)
	_, err := broken.OpenDispute(ctx, "buyer", order.ID, damaged)
	assert.True(t, errors.Is(err, errors.CodeInternal))

	got, err := f.store.Transactions().GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPaid, got.OrderStatus)
	assert.Equal(t, 0, f.notifier.to("seller", entity.NotificationDisputeOpened))

	// the buyer can still raise it once storage recovers
	dispute, err := f.disputes.OpenDispute(ctx, "buyer", order.ID, damaged)
	require.NoError(t, err)
	assert.Equal(t, entity.DisputeStatusOpen, dispute.Status)
}

func TestDisputeRemovedWhenOrderCannotBeFrozen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.paidOrder(t, f.listing(t, "seller"), "buyer", entity.DeliveryMethodCollection)

	transactions := racedTransactions{f.store.Transactions()}
	orders := NewOrderUseCase(transactions, f.notifier, 7*24*time.Hour)
	disputes := NewDisputeUseCase(f.store.Disputes(), transactions, f.store.Files(), orders, f.gateway, f.uploader, f.notifier)

	_, err := disputes.OpenDispute(ctx, "buyer", order.ID, damaged)
	assert.True(t, errors.Is(err, errors.CodeConflict))

	_, total, err := f.disputes.ListDisputes(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestConcurrentEvidenceUploadsAreAllKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.paidOrder(t, f.listing(t, "seller"), "buyer", entity.DeliveryMethodCollection)
	dispute, err := f.disputes.OpenDispute(ctx, "buyer", order.ID, damaged)
	require.NoError(t, err)

	const uploads = 8
	var wg sync.WaitGroup
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uploader := "buyer"
			if i%2 == 1 {
				uploader = "seller"
			}
			_, err := f.disputes.AddEvidence(ctx, uploader, dispute.ID, fmt.Sprintf("photo %d", i), upload("jpeg-bytes"))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := f.disputes.GetDispute(ctx, &entity.Principal{UID: "seller"}, dispute.ID)
	require.NoError(t, err)
	assert.Len(t, got.Evidence, uploads)

	files, err := f.store.Files().GetByEntityID(ctx, entity.FileEntityDispute, dispute.ID)
	require.NoError(t, err)
	assert.Len(t, files, uploads)
}

func TestResolutionKeepsEvidence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.paidOrder(t, f.listing(t, "seller"), "buyer", entity.DeliveryMethodCollection)
	dispute, err := f.disputes.OpenDispute(ctx, "buyer", order.ID, damaged)
	require.NoError(t, err)
	_, err = f.disputes.AddEvidence(ctx, "buyer", dispute.ID, "", upload("jpeg-bytes"))
	require.NoError(t, err)

	// resolve from the copy read before the upload
	dispute.Status = entity.DisputeStatusResolved
	dispute.Resolution = entity.ResolutionReleaseSeller
	require.NoError(t, f.store.Disputes().Update(ctx, dispute))

	got, err := f.store.Disputes().GetByID(ctx, dispute.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DisputeStatusResolved, got.Status)
	assert.Len(t, got.Evidence, 1)
}
