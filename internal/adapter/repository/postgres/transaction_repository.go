package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/pkg/errors"
)

const (
	transactionColumns = `id, payment_intent_id, listing_id, offer_id, buyer_id, seller_id, item_amount, delivery_amount,
	platform_fee, total_amount, amount_minor, currency, delivery_method, delivery_type, delivery_address,
	payment_status, order_status, carbon_saved_kg, created_at, updated_at, dispatched_at, completed_at, auto_release_at`
	transactionLogColumns = `id, transaction_id, status, notes, created_by, created_at`
)

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func scanTransaction(row scanner) (*entity.Transaction, error) {
	var (
		t                                    entity.Transaction
		dispatchedAt, completedAt, releaseAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.PaymentIntentID, &t.ListingID, &t.OfferID, &t.BuyerID, &t.SellerID, &t.ItemAmount,
		&t.DeliveryAmount, &t.PlatformFee, &t.TotalAmount, &t.AmountMinor, &t.Currency, &t.DeliveryMethod,
		&t.DeliveryType, &t.DeliveryAddress, &t.PaymentStatus, &t.OrderStatus, &t.CarbonSavedKg, &t.CreatedAt,
		&t.UpdatedAt, &dispatchedAt, &completedAt, &releaseAt)
	if err != nil {
		return nil, err
	}
	t.DispatchedAt = timePtr(dispatchedAt)
	t.CompletedAt = timePtr(completedAt)
	t.AutoReleaseAt = timePtr(releaseAt)
	return &t, nil
}

func scanTransactions(rows *sql.Rows) ([]*entity.Transaction, error) {
	defer rows.Close()

	transactions := []*entity.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func insertTransactionLog(ctx context.Context, exec interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}, log *entity.TransactionLog) error {
	_, err := exec.ExecContext(ctx, `INSERT INTO transaction_logs (`+transactionLogColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		log.ID, log.TransactionID, log.Status, log.Notes, log.CreatedBy, log.CreatedAt)
	return err
}

func (r *transactionRepository) RecordSale(ctx context.Context, transaction *entity.Transaction, log *entity.TransactionLog) (*entity.Transaction, bool, error) {
	var existing *entity.Transaction

	err := WithTx(ctx, r.db, func(tx *sql.Tx) error {
		found, err := scanTransaction(tx.QueryRowContext(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE payment_intent_id = $1`, transaction.PaymentIntentID))
		if err == nil {
			existing = found
			return nil
		}
		if !stderrors.Is(err, sql.ErrNoRows) {
			return err
		}

		if err := markListing(ctx, tx, transaction.ListingID, entity.ListingStatusSold, transaction.CreatedAt); err != nil {
			return err
		}

		t := transaction
		_, err = tx.ExecContext(ctx, `INSERT INTO transactions (`+transactionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
			t.ID, t.PaymentIntentID, t.ListingID, t.OfferID, t.BuyerID, t.SellerID, t.ItemAmount, t.DeliveryAmount,
			t.PlatformFee, t.TotalAmount, t.AmountMinor, t.Currency, t.DeliveryMethod, t.DeliveryType,
			t.DeliveryAddress, t.PaymentStatus, t.OrderStatus, t.CarbonSavedKg, t.CreatedAt, t.UpdatedAt,
			nullTime(t.DispatchedAt), nullTime(t.CompletedAt), nullTime(t.AutoReleaseAt))
		if err != nil {
			return err
		}
		return insertTransactionLog(ctx, tx, log)
	})

	if err == nil {
		if existing != nil {
			return existing, false, nil
		}
		return transaction, true, nil
	}

	// A concurrent delivery of the same intent either tripped the unique key or
	// found the listing already sold by itself. Either way its sale wins.
	if isUniqueViolation(err) || errors.Is(err, errors.CodeListingUnavailable) {
		if recorded, lookupErr := r.GetByPaymentIntentID(ctx, transaction.PaymentIntentID); lookupErr == nil {
			return recorded, false, nil
		}
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return nil, false, appErr
	}
	return nil, false, errors.Internal("Failed to record sale", err)
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	return r.getOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
}

func (r *transactionRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entity.Transaction, error) {
	return r.getOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE payment_intent_id = $1`, paymentIntentID)
}

func (r *transactionRepository) getOne(ctx context.Context, query string, arg string) (*entity.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, arg))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("Transaction", err)
	}
	if err != nil {
		return nil, errors.Internal("Failed to get transaction", err)
	}
	return t, nil
}

func (r *transactionRepository) List(ctx context.Context, filter entity.TransactionFilter) ([]*entity.Transaction, int64, error) {
	w := &whereBuilder{}
	switch filter.Role {
	case entity.RoleBuyer:
		w.where("buyer_id = ?", filter.UserID)
	case entity.RoleSeller:
		w.where("seller_id = ?", filter.UserID)
	default:
		w.where("(buyer_id = ? OR seller_id = ?)", filter.UserID, filter.UserID)
	}
	if filter.Status != "" {
		w.where("order_status = ?", filter.Status)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM transactions`+w.clause(), w.args...).Scan(&total); err != nil {
		return nil, 0, errors.Internal("Failed to count transactions", err)
	}

	query := w.page(`SELECT `+transactionColumns+` FROM transactions`+w.clause()+` ORDER BY created_at DESC, id`, filter.Limit, filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, errors.Internal("Failed to list transactions", err)
	}
	transactions, err := scanTransactions(rows)
	if err != nil {
		return nil, 0, errors.Internal("Failed to read transactions", err)
	}
	return transactions, total, nil
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, t *entity.Transaction, from string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET
		payment_status = $3, order_status = $4, updated_at = $5, dispatched_at = $6, completed_at = $7, auto_release_at = $8
		WHERE id = $1 AND order_status = $2`,
		t.ID, from, t.PaymentStatus, t.OrderStatus, t.UpdatedAt,
		nullTime(t.DispatchedAt), nullTime(t.CompletedAt), nullTime(t.AutoReleaseAt))
	if err != nil {
		return errors.Internal("Failed to update transaction", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	if _, err := r.GetByID(ctx, t.ID); err != nil {
		return err
	}
	return errors.Conflict("Order status has changed, reload and try again")
}

func (r *transactionRepository) ListDueForAutoRelease(ctx context.Context, now time.Time, limit int) ([]*entity.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE order_status IN ($1, $2) AND auto_release_at <= $3
		ORDER BY auto_release_at LIMIT $4`,
		entity.OrderStatusDispatched, entity.OrderStatusReadyForCollection, now, limit)
	if err != nil {
		return nil, errors.Internal("Failed to list orders due for release", err)
	}
	transactions, err := scanTransactions(rows)
	if err != nil {
		return nil, errors.Internal("Failed to read transactions", err)
	}
	return transactions, nil
}

func (r *transactionRepository) CreateLog(ctx context.Context, log *entity.TransactionLog) error {
	if err := insertTransactionLog(ctx, r.db, log); err != nil {
		return errors.Internal("Failed to create transaction log", err)
	}
	return nil
}

func (r *transactionRepository) ListLogs(ctx context.Context, transactionID string) ([]*entity.TransactionLog, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionLogColumns+` FROM transaction_logs
		WHERE transaction_id = $1 ORDER BY created_at, id`, transactionID)
	if err != nil {
		return nil, errors.Internal("Failed to list transaction logs", err)
	}
	defer rows.Close()

	logs := []*entity.TransactionLog{}
	for rows.Next() {
		var l entity.TransactionLog
		if err := rows.Scan(&l.ID, &l.TransactionID, &l.Status, &l.Notes, &l.CreatedBy, &l.CreatedAt); err != nil {
			return nil, errors.Internal("Failed to read transaction log", err)
		}
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("Failed to list transaction logs", err)
	}
	return logs, nil
}
