package repository

import (
	"context"
	stderrors "errors"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/pkg/errors"
)

// paymentIntentRecord maps a payment intent to the sale it produced. Its
// document ID is the intent ID, which makes the sale idempotent per intent.
type paymentIntentRecord struct {
	TransactionID string    `firestore:"transactionId"`
	CreatedAt     time.Time `firestore:"createdAt"`
}

type firestoreTransactionRepository struct {
	client *firestore.Client
}

func NewFirestoreTransactionRepository(client *firestore.Client) repository.TransactionRepository {
	return &firestoreTransactionRepository{
		client: client,
	}
}

func (r *firestoreTransactionRepository) RecordSale(ctx context.Context, transaction *entity.Transaction, log *entity.TransactionLog) (*entity.Transaction, bool, error) {
	intentRef := r.client.Collection(paymentIntentsCollection).Doc(transaction.PaymentIntentID)
	listingRef := r.client.Collection(listingsCollection).Doc(transaction.ListingID)
	transactionRef := r.client.Collection(transactionsCollection).Doc(transaction.ID)
	logRef := r.client.Collection(transactionLogsCollection).Doc(log.ID)

	var result *entity.Transaction
	var created bool

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		result, created = nil, false

		intentDoc, err := tx.Get(intentRef)
		if err == nil {
			var record paymentIntentRecord
			if err := intentDoc.DataTo(&record); err != nil {
				return errors.Internal("Failed to parse payment intent record", err)
			}
			existingDoc, err := tx.Get(r.client.Collection(transactionsCollection).Doc(record.TransactionID))
			if err != nil {
				return errors.Internal("Failed to get recorded transaction", err)
			}
			var existing entity.Transaction
			if err := existingDoc.DataTo(&existing); err != nil {
				return errors.Internal("Failed to parse transaction data", err)
			}
			result = &existing
			return nil
		}
		if !isNotFound(err) {
			return errors.Internal("Failed to read payment intent record", err)
		}

		listingDoc, err := tx.Get(listingRef)
		if err != nil {
			if isNotFound(err) {
				return errors.NotFound("Listing", err)
			}
			return errors.Internal("Failed to get listing", err)
		}
		if status, err := listingDoc.DataAt("status"); err != nil || status != entity.ListingStatusActive {
			return errors.ListingUnavailable()
		}

		if err := tx.Update(listingRef, listingStatusUpdates(entity.ListingStatusSold, transaction.CreatedAt)); err != nil {
			return err
		}
		if err := tx.Create(transactionRef, transaction); err != nil {
			return err
		}
		if err := tx.Create(logRef, log); err != nil {
			return err
		}
		if err := tx.Create(intentRef, paymentIntentRecord{TransactionID: transaction.ID, CreatedAt: transaction.CreatedAt}); err != nil {
			return err
		}

		result, created = transaction, true
		return nil
	})
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, false, err
		}
		return nil, false, errors.Internal("Failed to record sale", err)
	}

	return result, created, nil
}

func (r *firestoreTransactionRepository) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	doc, err := r.client.Collection(transactionsCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Transaction", err)
		}
		return nil, errors.Internal("Failed to get transaction", err)
	}

	var transaction entity.Transaction
	if err := doc.DataTo(&transaction); err != nil {
		return nil, errors.Internal("Failed to parse transaction data", err)
	}

	return &transaction, nil
}

func (r *firestoreTransactionRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entity.Transaction, error) {
	iter := r.client.Collection(transactionsCollection).Where("paymentIntentId", "==", paymentIntentID).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Transaction", nil)
		}
		return nil, errors.Internal("Failed to query transaction", err)
	}

	var transaction entity.Transaction
	if err := doc.DataTo(&transaction); err != nil {
		return nil, errors.Internal("Failed to parse transaction data", err)
	}

	return &transaction, nil
}

func (r *firestoreTransactionRepository) List(ctx context.Context, filter entity.TransactionFilter) ([]*entity.Transaction, int64, error) {
	var fields []string
	switch filter.Role {
	case entity.RoleBuyer:
		fields = []string{"buyerId"}
	case entity.RoleSeller:
		fields = []string{"sellerId"}
	default:
		fields = []string{"buyerId", "sellerId"}
	}

	var transactions []*entity.Transaction
	for _, field := range fields {
		query := r.client.Collection(transactionsCollection).Where(field, "==", filter.UserID)
		if filter.Status != "" {
			query = query.Where("orderStatus", "==", filter.Status)
		}

		found, err := collect[entity.Transaction](query.Documents(ctx))
		if err != nil {
			return nil, 0, errors.Internal("Failed to list transactions", err)
		}
		transactions = append(transactions, found...)
	}

	sortNewestFirst(transactions, func(t *entity.Transaction) time.Time { return t.CreatedAt })
	return paginate(transactions, filter.Limit, filter.Offset), int64(len(transactions)), nil
}

func (r *firestoreTransactionRepository) UpdateStatus(ctx context.Context, transaction *entity.Transaction, from string) error {
	ref := r.client.Collection(transactionsCollection).Doc(transaction.ID)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return errors.NotFound("Transaction", err)
			}
			return errors.Internal("Failed to get transaction", err)
		}

		current, err := doc.DataAt("orderStatus")
		if err != nil || current != from {
			return errors.Conflict("Order was updated by someone else, reload and try again")
		}

		return tx.Set(ref, transaction)
	})
}

func (r *firestoreTransactionRepository) ListDueForAutoRelease(ctx context.Context, now time.Time, limit int) ([]*entity.Transaction, error) {
	query := r.client.Collection(transactionsCollection).
		Where("orderStatus", "in", []string{entity.OrderStatusDispatched, entity.OrderStatusReadyForCollection}).
		Where("autoReleaseAt", "<=", now).
		OrderBy("autoReleaseAt", firestore.Asc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	due, err := collect[entity.Transaction](query.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list orders due for release", err)
	}
	return due, nil
}

func (r *firestoreTransactionRepository) CreateLog(ctx context.Context, log *entity.TransactionLog) error {
	_, err := r.client.Collection(transactionLogsCollection).Doc(log.ID).Set(ctx, log)
	if err != nil {
		return errors.Internal("Failed to create transaction log", err)
	}
	return nil
}

func (r *firestoreTransactionRepository) ListLogs(ctx context.Context, transactionID string) ([]*entity.TransactionLog, error) {
	query := r.client.Collection(transactionLogsCollection).
		Where("transactionId", "==", transactionID).
		OrderBy("createdAt", firestore.Asc)

	logs, err := collect[entity.TransactionLog](query.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list transaction logs", err)
	}
	return logs, nil
}
