package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skipped/internal/domain/entity"
	"skipped/pkg/errors"
)

func TestDeliveryOrderLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.paidOrder(t, f.listing(t, "seller"), "buyer", entity.DeliveryMethodDelivery)
	assert.Equal(t, int64(6500), order.AmountMinor)

	_, err := f.orders.UpdateStatus(ctx, "buyer", order.ID, entity.OrderStatusDispatched, "")
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.orders.UpdateStatus(ctx, "seller", order.ID, entity.OrderStatusReadyForCollection, "")
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = f.orders.ConfirmReceipt(ctx, "buyer", order.ID)
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	dispatched, err := f.orders.UpdateStatus(ctx, "seller", order.ID, entity.OrderStatusDispatched, "Sent via van")
	require.NoError(t, err)
	require.NotNil(t, dispatched.AutoReleaseAt)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), *dispatched.AutoReleaseAt, time.Minute)

	completed, err := f.orders.ConfirmReceipt(ctx, "buyer", order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCompleted, completed.OrderStatus)
	assert.NotNil(t, completed.CompletedAt)
	assert.Nil(t, completed.AutoReleaseAt)

	logs, err := f.orders.ListLogs(ctx, &entity.Principal{UID: "buyer"}, order.ID)
	require.NoError(t, err)
	statuses := []string{}
	for _, l := range logs {
		statuses = append(statuses, l.Status)
	}
	assert.Equal(t, []string{entity.OrderStatusPaid, entity.OrderStatusDispatched, entity.OrderStatusCompleted}, statuses)
	assert.Equal(t, "Sent via van", logs[1].Notes)

	assert.Equal(t, 2, f.notifier.to("buyer", entity.NotificationOrderUpdated))
}

func TestAutoReleaseCompletesOverdueOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	due := f.paidOrder(t, f.listing(t, "seller"), "buyer", entity.DeliveryMethodCollection)
	notDue := f.paidOrder(t, f.listing(t, "seller"), "buyer", entity.DeliveryMethodCollection)
	f.paidOrder(t, f.listing(t, "seller"), "buyer", entity.DeliveryMethodCollection) // still paid

	_, err := f.orders.UpdateStatus(ctx, "seller", due.ID, entity.OrderStatusReadyForCollection, "")
	require.NoError(t, err)
	_, err = f.orders.UpdateStatus(ctx, "seller", notDue.ID, entity.OrderStatusReadyForCollection, "")
	require.NoError(t, err)

	// advance the clock past the first order's release time only
	f.orders.now = func() time.Time { return time.Now().Add(7*24*time.Hour + time.Hour) }
	stored, err := f.store.Transactions().GetByID(ctx, notDue.ID)
	require.NoError(t, err)
	later := time.Now().Add(30 * 24 * time.Hour)
	stored.AutoReleaseAt = &later
	require.NoError(t, f.store.Transactions().UpdateStatus(ctx, stored, stored.OrderStatus))

	released, err := f.orders.ProcessAutoRelease(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	got, err := f.orders.GetOrder(ctx, &entity.Principal{UID: "seller"}, due.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCompleted, got.OrderStatus)

	got, err = f.orders.GetOrder(ctx, &entity.Principal{UID: "seller"}, notDue.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusReadyForCollection, got.OrderStatus)

	released, err = f.orders.ProcessAutoRelease(ctx)
	require.NoError(t, err)
	assert.Zero(t, released)
}

func TestStartAutoReleaseJobStopsWithContext(t *testing.T) {
	f := newFixture(t)
	order := f.paidOrder(t, f.listing(t, "seller"), "buyer", entity.DeliveryMethodCollection)
	f.orders.autoReleaseAfter = 0
	_, err := f.orders.UpdateStatus(context.Background(), "seller", order.ID, entity.OrderStatusReadyForCollection, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.orders.StartAutoReleaseJob(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		got, err := f.store.Transactions().GetByID(context.Background(), order.ID)
		return err == nil && got.OrderStatus == entity.OrderStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetOrderAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.paidOrder(t, f.listing(t, "seller"), "buyer", entity.DeliveryMethodCollection)

	_, err := f.orders.GetOrder(ctx, &entity.Principal{UID: "stranger"}, order.ID)
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.orders.GetOrder(ctx, &entity.Principal{UID: "ops", Role: entity.UserRoleAdmin}, order.ID)
	assert.NoError(t, err)
}
