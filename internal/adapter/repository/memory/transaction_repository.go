package memory

import (
	"context"
	"time"

	"skipped/internal/domain/entity"
	"skipped/pkg/errors"
)

type TransactionRepository struct {
	s *Store
}

func copyTransaction(t *entity.Transaction) *entity.Transaction {
	c := *t
	return &c
}

func (r *TransactionRepository) RecordSale(ctx context.Context, transaction *entity.Transaction, log *entity.TransactionLog) (*entity.Transaction, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if id, ok := r.s.byIntent[transaction.PaymentIntentID]; ok {
		return copyTransaction(r.s.transactions[id]), false, nil
	}

	if err := r.s.transitionListingLocked(transaction.ListingID, entity.ListingStatusSold, transaction.CreatedAt); err != nil {
		return nil, false, err
	}

	r.s.transactions[transaction.ID] = copyTransaction(transaction)
	r.s.byIntent[transaction.PaymentIntentID] = transaction.ID
	r.s.logs[transaction.ID] = append(r.s.logs[transaction.ID], log)
	return copyTransaction(transaction), true, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.transactions[id]
	if !ok {
		return nil, errors.NotFound("Transaction", nil)
	}
	return copyTransaction(t), nil
}

func (r *TransactionRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entity.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.byIntent[paymentIntentID]
	if !ok {
		return nil, errors.NotFound("Transaction", nil)
	}
	return copyTransaction(r.s.transactions[id]), nil
}

func (r *TransactionRepository) List(ctx context.Context, filter entity.TransactionFilter) ([]*entity.Transaction, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []*entity.Transaction
	for _, t := range r.s.transactions {
		switch filter.Role {
		case entity.RoleBuyer:
			if t.BuyerID != filter.UserID {
				continue
			}
		case entity.RoleSeller:
			if t.SellerID != filter.UserID {
				continue
			}
		default:
			if filter.UserID != "" && !t.IsParticipant(filter.UserID) {
				continue
			}
		}
		if filter.Status != "" && t.OrderStatus != filter.Status {
			continue
		}
		matched = append(matched, copyTransaction(t))
	}

	sortNewestFirst(matched,
		func(t *entity.Transaction) time.Time { return t.CreatedAt },
		func(t *entity.Transaction) string { return t.ID })

	return paginate(matched, filter.Limit, filter.Offset), int64(len(matched)), nil
}

func (r *TransactionRepository) UpdateStatus(ctx context.Context, transaction *entity.Transaction, from string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.transactions[transaction.ID]
	if !ok {
		return errors.NotFound("Transaction", nil)
	}
	if current.OrderStatus != from {
		return errors.Conflict("Order status has changed, reload and try again")
	}
	r.s.transactions[transaction.ID] = copyTransaction(transaction)
	return nil
}

func (r *TransactionRepository) ListDueForAutoRelease(ctx context.Context, now time.Time, limit int) ([]*entity.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var due []*entity.Transaction
	for _, t := range r.s.transactions {
		if t.OrderStatus != entity.OrderStatusDispatched && t.OrderStatus != entity.OrderStatusReadyForCollection {
			continue
		}
		if t.AutoReleaseAt == nil || t.AutoReleaseAt.After(now) {
			continue
		}
		due = append(due, copyTransaction(t))
	}

	sortNewestFirst(due,
		func(t *entity.Transaction) time.Time { return t.CreatedAt },
		func(t *entity.Transaction) string { return t.ID })
	return paginate(due, limit, 0), nil
}

func (r *TransactionRepository) CreateLog(ctx context.Context, log *entity.TransactionLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.logs[log.TransactionID] = append(r.s.logs[log.TransactionID], log)
	return nil
}

func (r *TransactionRepository) ListLogs(ctx context.Context, transactionID string) ([]*entity.TransactionLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	logs := make([]*entity.TransactionLog, 0, len(r.s.logs[transactionID]))
	for _, l := range r.s.logs[transactionID] {
		c := *l
		logs = append(logs, &c)
	}
	return logs, nil
}
