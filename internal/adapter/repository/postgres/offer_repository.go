package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/pkg/errors"
)

const (
	offerColumns = `id, listing_id, buyer_id, seller_id, amount, status, counter_amount, awaiting, version,
	created_at, updated_at, accepted_at`
	offerEventColumns = `id, offer_id, listing_id, sequence, action, actor_id, actor_role, amount, status, created_at`
)

type offerRepository struct {
	db *sql.DB
}

func NewOfferRepository(db *sql.DB) repository.OfferRepository {
	return &offerRepository{db: db}
}

func scanOffer(row scanner) (*entity.Offer, error) {
	var (
		o          entity.Offer
		counter    sql.NullFloat64
		acceptedAt sql.NullTime
	)
	err := row.Scan(&o.ID, &o.ListingID, &o.BuyerID, &o.SellerID, &o.Amount, &o.Status, &counter,
		&o.Awaiting, &o.Version, &o.CreatedAt, &o.UpdatedAt, &acceptedAt)
	if err != nil {
		return nil, err
	}
	if counter.Valid {
		v := counter.Float64
		o.CounterAmount = &v
	}
	o.AcceptedAt = timePtr(acceptedAt)
	return &o, nil
}

func scanOffers(rows *sql.Rows) ([]*entity.Offer, error) {
	defer rows.Close()

	offers := []*entity.Offer{}
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func insertOfferEvent(ctx context.Context, tx *sql.Tx, e *entity.OfferEvent) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO offer_events (`+offerEventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.OfferID, e.ListingID, e.Sequence, e.Action, e.ActorID, e.ActorRole, e.Amount, e.Status, e.CreatedAt)
	return err
}

// CreateWithinLimits serialises offers per buyer and listing with a transaction
// scoped advisory lock. The partial unique index on active offers backs it up.
func (r *offerRepository) CreateWithinLimits(ctx context.Context, offer *entity.Offer, event *entity.OfferEvent, maxAttempts int) error {
	err := WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
			offer.ListingID+":"+offer.BuyerID); err != nil {
			return err
		}

		var attempts, active int
		err := tx.QueryRowContext(ctx, `SELECT count(*), count(*) FILTER (WHERE status IN ($3, $4))
			FROM offers WHERE listing_id = $1 AND buyer_id = $2`,
			offer.ListingID, offer.BuyerID, entity.OfferStatusPending, entity.OfferStatusCountered).Scan(&attempts, &active)
		if err != nil {
			return err
		}
		if active > 0 {
			return errors.DuplicateActiveOffer()
		}
		if attempts >= maxAttempts {
			return errors.OfferLimitExceeded(maxAttempts)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO offers (`+offerColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			offer.ID, offer.ListingID, offer.BuyerID, offer.SellerID, offer.Amount, offer.Status,
			nullFloat(offer.CounterAmount), offer.Awaiting, offer.Version, offer.CreatedAt, offer.UpdatedAt,
			nullTime(offer.AcceptedAt))
		if err != nil {
			return err
		}
		return insertOfferEvent(ctx, tx, event)
	})

	var appErr *errors.AppError
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &appErr):
		return appErr
	case isUniqueViolation(err):
		return errors.DuplicateActiveOffer()
	default:
		return errors.Internal("Failed to create offer", err)
	}
}

func (r *offerRepository) GetByID(ctx context.Context, id string) (*entity.Offer, error) {
	offer, err := scanOffer(r.db.QueryRowContext(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("Offer", err)
	}
	if err != nil {
		return nil, errors.Internal("Failed to get offer", err)
	}
	return offer, nil
}

func (r *offerRepository) Transition(ctx context.Context, offer *entity.Offer, expectedVersion int, event *entity.OfferEvent) error {
	err := WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE offers SET
			amount = $3, status = $4, counter_amount = $5, awaiting = $6, version = $7, updated_at = $8, accepted_at = $9
			WHERE id = $1 AND version = $2`,
			offer.ID, expectedVersion, offer.Amount, offer.Status, nullFloat(offer.CounterAmount), offer.Awaiting,
			offer.Version, offer.UpdatedAt, nullTime(offer.AcceptedAt))
		if err != nil {
			return err
		}

		if n, _ := res.RowsAffected(); n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM offers WHERE id = $1)`, offer.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return errors.NotFound("Offer", nil)
			}
			return errors.Conflict("Offer was updated by someone else, reload and try again")
		}

		return insertOfferEvent(ctx, tx, event)
	})

	var appErr *errors.AppError
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &appErr):
		return appErr
	case isUniqueViolation(err):
		return errors.Conflict("Offer was updated by someone else, reload and try again")
	default:
		return errors.Internal("Failed to update offer", err)
	}
}

func (r *offerRepository) List(ctx context.Context, filter entity.OfferFilter) ([]*entity.Offer, int64, error) {
	w := &whereBuilder{}
	switch filter.Role {
	case entity.RoleBuyer:
		w.where("buyer_id = ?", filter.UserID)
	case entity.RoleSeller:
		w.where("seller_id = ?", filter.UserID)
	default:
		w.where("(buyer_id = ? OR seller_id = ?)", filter.UserID, filter.UserID)
	}
	if filter.ListingID != "" {
		w.where("listing_id = ?", filter.ListingID)
	}
	if filter.Status != "" {
		w.where("status = ?", filter.Status)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM offers`+w.clause(), w.args...).Scan(&total); err != nil {
		return nil, 0, errors.Internal("Failed to count offers", err)
	}

	query := w.page(`SELECT `+offerColumns+` FROM offers`+w.clause()+` ORDER BY created_at DESC, id`, filter.Limit, filter.Offset)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, errors.Internal("Failed to list offers", err)
	}
	offers, err := scanOffers(rows)
	if err != nil {
		return nil, 0, errors.Internal("Failed to read offers", err)
	}
	return offers, total, nil
}

func (r *offerRepository) ListActiveByListing(ctx context.Context, listingID string) ([]*entity.Offer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+offerColumns+` FROM offers
		WHERE listing_id = $1 AND status IN ($2, $3) ORDER BY id`,
		listingID, entity.OfferStatusPending, entity.OfferStatusCountered)
	if err != nil {
		return nil, errors.Internal("Failed to list active offers", err)
	}
	offers, err := scanOffers(rows)
	if err != nil {
		return nil, errors.Internal("Failed to read offers", err)
	}
	return offers, nil
}

func (r *offerRepository) ListEvents(ctx context.Context, offerID string) ([]*entity.OfferEvent, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+offerEventColumns+` FROM offer_events
		WHERE offer_id = $1 ORDER BY sequence`, offerID)
	if err != nil {
		return nil, errors.Internal("Failed to list offer events", err)
	}
	defer rows.Close()

	events := []*entity.OfferEvent{}
	for rows.Next() {
		var e entity.OfferEvent
		if err := rows.Scan(&e.ID, &e.OfferID, &e.ListingID, &e.Sequence, &e.Action, &e.ActorID, &e.ActorRole,
			&e.Amount, &e.Status, &e.CreatedAt); err != nil {
			return nil, errors.Internal("Failed to read offer event", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("Failed to list offer events", err)
	}
	return events, nil
}
