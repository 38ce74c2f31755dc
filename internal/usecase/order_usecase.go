package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/internal/domain/service"
	"skipped/pkg/errors"
	"skipped/pkg/logger"
)

const autoReleaseBatchSize = 100

type OrderUseCase struct {
	transactionRepo  repository.TransactionRepository
	notifier         service.Notifier
	autoReleaseAfter time.Duration
	now              func() time.Time
}

func NewOrderUseCase(
	transactionRepo repository.TransactionRepository,
	notifier service.Notifier,
	autoReleaseAfter time.Duration,
) *OrderUseCase {
	return &OrderUseCase{
		transactionRepo:  transactionRepo,
		notifier:         notifier,
		autoReleaseAfter: autoReleaseAfter,
		now:              time.Now,
	}
}

func (uc *OrderUseCase) GetOrder(ctx context.Context, principal *entity.Principal, id string) (*entity.Transaction, error) {
	transaction, err := uc.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transaction.IsParticipant(principal.UID) && !principal.IsAdmin() {
		return nil, errors.Forbidden("You are not part of this order", nil)
	}
	return transaction, nil
}

func (uc *OrderUseCase) ListOrders(ctx context.Context, filter entity.TransactionFilter) ([]*entity.Transaction, int64, error) {
	switch filter.Role {
	case "", entity.RoleBuyer, entity.RoleSeller:
	default:
		return nil, 0, errors.Validation("role must be one of: buyer seller")
	}
	return uc.transactionRepo.List(ctx, filter)
}

func (uc *OrderUseCase) ListLogs(ctx context.Context, principal *entity.Principal, id string) ([]*entity.TransactionLog, error) {
	if _, err := uc.GetOrder(ctx, principal, id); err != nil {
		return nil, err
	}
	return uc.transactionRepo.ListLogs(ctx, id)
}

// UpdateStatus - Seller marks the order dispatched or ready for collection
func (uc *OrderUseCase) UpdateStatus(ctx context.Context, sellerID, id, status, notes string) (*entity.Transaction, error) {
	transaction, err := uc.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transaction.SellerID != sellerID {
		return nil, errors.Forbidden("Only the seller can update this order", nil)
	}

	switch status {
	case entity.OrderStatusDispatched:
		if transaction.DeliveryMethod != entity.DeliveryMethodDelivery {
			return nil, errors.Validation("only delivery orders can be dispatched")
		}
	case entity.OrderStatusReadyForCollection:
		if transaction.DeliveryMethod != entity.DeliveryMethodCollection {
			return nil, errors.Validation("only collection orders can be ready for collection")
		}
	default:
		return nil, errors.Validation("status must be one of: dispatched ready_for_collection")
	}

	if err := uc.transition(ctx, transaction, status, sellerID, notes); err != nil {
		return nil, err
	}
	return transaction, nil
}

// ConfirmReceipt - Buyer confirms the goods arrived, releasing funds to the seller
func (uc *OrderUseCase) ConfirmReceipt(ctx context.Context, buyerID, id string) (*entity.Transaction, error) {
	transaction, err := uc.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transaction.BuyerID != buyerID {
		return nil, errors.Forbidden("Only the buyer can confirm receipt", nil)
	}
	if transaction.OrderStatus != entity.OrderStatusDispatched && transaction.OrderStatus != entity.OrderStatusReadyForCollection {
		return nil, errors.BadRequest("Order must be dispatched or ready for collection before it can be confirmed", nil)
	}

	if err := uc.transition(ctx, transaction, entity.OrderStatusCompleted, buyerID, "Buyer confirmed receipt"); err != nil {
		return nil, err
	}
	return transaction, nil
}

// transition applies a status change with a compare-and-set on the current
// status, then appends the log row and notifies both parties.
func (uc *OrderUseCase) transition(ctx context.Context, transaction *entity.Transaction, to, actorID, notes string) error {
	from := transaction.OrderStatus
	if !entity.CanTransitionOrder(from, to) {
		return errors.BadRequest(fmt.Sprintf("Order cannot move from %s to %s", from, to), nil)
	}

	now := uc.now()
	transaction.OrderStatus = to
	transaction.UpdatedAt = now
	switch to {
	case entity.OrderStatusDispatched, entity.OrderStatusReadyForCollection:
		releaseAt := now.Add(uc.autoReleaseAfter)
		transaction.DispatchedAt = &now
		transaction.AutoReleaseAt = &releaseAt
	case entity.OrderStatusCompleted:
		transaction.CompletedAt = &now
		transaction.AutoReleaseAt = nil
	case entity.OrderStatusDisputed, entity.OrderStatusRefunded:
		transaction.AutoReleaseAt = nil
	}

	if err := uc.transactionRepo.UpdateStatus(ctx, transaction, from); err != nil {
		return err
	}

	if notes == "" {
		notes = fmt.Sprintf("Order moved from %s to %s", from, to)
	}
	log := &entity.TransactionLog{
		ID:            uuid.New().String(),
		TransactionID: transaction.ID,
		Status:        to,
		Notes:         notes,
		CreatedBy:     actorID,
		CreatedAt:     now,
	}
	if err := uc.transactionRepo.CreateLog(ctx, log); err != nil {
		logger.LogTransactionError(transaction.ID, "order_"+to, err)
	}

	logger.Info("Order %s: %s -> %s by %s", transaction.ID, from, to, actorID)

	data := map[string]interface{}{
		"transaction_id": transaction.ID,
		"from":           from,
		"status":         to,
	}
	notify(ctx, uc.notifier, transaction.BuyerID, entity.NotificationOrderUpdated, data)
	notify(ctx, uc.notifier, transaction.SellerID, entity.NotificationOrderUpdated, data)
	return nil
}

// ProcessAutoRelease completes orders whose buyer did not confirm or dispute in time.
func (uc *OrderUseCase) ProcessAutoRelease(ctx context.Context) (int, error) {
	due, err := uc.transactionRepo.ListDueForAutoRelease(ctx, uc.now(), autoReleaseBatchSize)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, transaction := range due {
		if err := uc.transition(ctx, transaction, entity.OrderStatusCompleted, entity.RoleSystem, "Auto-released: buyer did not respond in time"); err != nil {
			logger.Warn("Failed to auto-release order %s: %v", transaction.ID, err)
			continue
		}
		released++
	}

	if released > 0 {
		logger.Info("Auto-release processed: %d orders completed", released)
	}
	return released, nil
}

// StartAutoReleaseJob runs ProcessAutoRelease every interval until ctx is done.
func (uc *OrderUseCase) StartAutoReleaseJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := uc.ProcessAutoRelease(ctx); err != nil {
					logger.Error("Auto-release job error: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info("Auto-release job started (checking every %s)", interval)
}
