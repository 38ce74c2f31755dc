package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/pkg/errors"
)

const disputeColumns = `id, transaction_id, listing_id, buyer_id, seller_id, reporter_id, reporter_role, reason,
	description, evidence, status, resolution, resolution_notes, resolved_by, created_at, updated_at, resolved_at`

type disputeRepository struct {
	db *sql.DB
}

func NewDisputeRepository(db *sql.DB) repository.DisputeRepository {
	return &disputeRepository{db: db}
}

func scanDispute(row scanner) (*entity.Dispute, error) {
	var (
		d          entity.Dispute
		evidence   []byte
		resolvedAt sql.NullTime
	)
	err := row.Scan(&d.ID, &d.TransactionID, &d.ListingID, &d.BuyerID, &d.SellerID, &d.ReporterID, &d.ReporterRole,
		&d.Reason, &d.Description, &evidence, &d.Status, &d.Resolution, &d.ResolutionNotes, &d.ResolvedBy,
		&d.CreatedAt, &d.UpdatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(evidence, &d.Evidence); err != nil {
		return nil, err
	}
	d.ResolvedAt = timePtr(resolvedAt)
	return &d, nil
}

func marshalEvidence(evidence []entity.DisputeEvidence) ([]byte, error) {
	if evidence == nil {
		evidence = []entity.DisputeEvidence{}
	}
	return json.Marshal(evidence)
}

func (r *disputeRepository) Create(ctx context.Context, d *entity.Dispute) error {
	evidence, err := marshalEvidence(d.Evidence)
	if err != nil {
		return errors.Internal("Failed to encode dispute evidence", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO disputes (`+disputeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		d.ID, d.TransactionID, d.ListingID, d.BuyerID, d.SellerID, d.ReporterID, d.ReporterRole, d.Reason,
		d.Description, evidence, d.Status, d.Resolution, d.ResolutionNotes, d.ResolvedBy, d.CreatedAt, d.UpdatedAt,
		nullTime(d.ResolvedAt))
	if err != nil {
		return errors.Internal("Failed to create dispute", err)
	}
	return nil
}

func (r *disputeRepository) GetByID(ctx context.Context, id string) (*entity.Dispute, error) {
	d, err := scanDispute(r.db.QueryRowContext(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("Dispute", err)
	}
	if err != nil {
		return nil, errors.Internal("Failed to get dispute", err)
	}
	return d, nil
}

func (r *disputeRepository) Update(ctx context.Context, d *entity.Dispute) error {
	res, err := r.db.ExecContext(ctx, `UPDATE disputes SET
		status = $2, resolution = $3, resolution_notes = $4, resolved_by = $5, updated_at = $6, resolved_at = $7
		WHERE id = $1`,
		d.ID, d.Status, d.Resolution, d.ResolutionNotes, d.ResolvedBy, d.UpdatedAt, nullTime(d.ResolvedAt))
	if err != nil {
		return errors.Internal("Failed to update dispute", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("Dispute", nil)
	}
	return nil
}

// AddEvidence appends in one statement so concurrent uploads never overwrite each other.
func (r *disputeRepository) AddEvidence(ctx context.Context, id string, evidence entity.DisputeEvidence) error {
	item, err := marshalEvidence([]entity.DisputeEvidence{evidence})
	if err != nil {
		return errors.Internal("Failed to encode dispute evidence", err)
	}

	res, err := r.db.ExecContext(ctx, `UPDATE disputes SET evidence = evidence || $2::jsonb, updated_at = $3
		WHERE id = $1 AND status = $4`,
		id, item, evidence.UploadedAt, entity.DisputeStatusOpen)
	if err != nil {
		return errors.Internal("Failed to add dispute evidence", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM disputes WHERE id = $1)`, id).Scan(&exists); err != nil {
		return errors.Internal("Failed to get dispute", err)
	}
	if !exists {
		return errors.NotFound("Dispute", nil)
	}
	return errors.BadRequest("Evidence can only be added to open disputes", nil)
}

func (r *disputeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM disputes WHERE id = $1`, id); err != nil {
		return errors.Internal("Failed to delete dispute", err)
	}
	return nil
}

func (r *disputeRepository) List(ctx context.Context, status string, limit, offset int) ([]*entity.Dispute, int64, error) {
	w := &whereBuilder{}
	if status != "" {
		w.where("status = ?", status)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM disputes`+w.clause(), w.args...).Scan(&total); err != nil {
		return nil, 0, errors.Internal("Failed to count disputes", err)
	}

	query := w.page(`SELECT `+disputeColumns+` FROM disputes`+w.clause()+` ORDER BY created_at DESC, id`, limit, offset)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, errors.Internal("Failed to list disputes", err)
	}
	defer rows.Close()

	disputes := []*entity.Dispute{}
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, 0, errors.Internal("Failed to read dispute", err)
		}
		disputes = append(disputes, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Internal("Failed to list disputes", err)
	}
	return disputes, total, nil
}
