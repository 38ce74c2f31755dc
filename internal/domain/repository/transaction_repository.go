package repository

import (
	"context"
	"time"

	"skipped/internal/domain/entity"
)

type TransactionRepository interface {
	// RecordSale is idempotent on transaction.PaymentIntentID. If a sale was
	// already recorded for the intent it is returned with created=false and
	// nothing is written. Otherwise the listing is marked sold only if still
	// active, then the transaction and its first log row are inserted, all in
	// one atomic unit.
	RecordSale(ctx context.Context, transaction *entity.Transaction, log *entity.TransactionLog) (*entity.Transaction, bool, error)

	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entity.Transaction, error)
	List(ctx context.Context, filter entity.TransactionFilter) ([]*entity.Transaction, int64, error)

	// UpdateStatus saves transaction if the stored order status is still from.
	UpdateStatus(ctx context.Context, transaction *entity.Transaction, from string) error
	ListDueForAutoRelease(ctx context.Context, now time.Time, limit int) ([]*entity.Transaction, error)

	CreateLog(ctx context.Context, log *entity.TransactionLog) error
	ListLogs(ctx context.Context, transactionID string) ([]*entity.TransactionLog, error)
}
