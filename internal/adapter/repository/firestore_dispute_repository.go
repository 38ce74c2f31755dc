package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/pkg/errors"
)

type firestoreDisputeRepository struct {
	client *firestore.Client
}

func NewFirestoreDisputeRepository(client *firestore.Client) repository.DisputeRepository {
	return &firestoreDisputeRepository{
		client: client,
	}
}

func (r *firestoreDisputeRepository) Create(ctx context.Context, dispute *entity.Dispute) error {
	_, err := r.client.Collection(disputesCollection).Doc(dispute.ID).Create(ctx, dispute)
	if err != nil {
		return errors.Internal("Failed to create dispute", err)
	}
	return nil
}

func (r *firestoreDisputeRepository) GetByID(ctx context.Context, id string) (*entity.Dispute, error) {
	doc, err := r.client.Collection(disputesCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Dispute", err)
		}
		return nil, errors.Internal("Failed to get dispute", err)
	}

	var dispute entity.Dispute
	if err := doc.DataTo(&dispute); err != nil {
		return nil, errors.Internal("Failed to parse dispute data", err)
	}

	return &dispute, nil
}

func (r *firestoreDisputeRepository) Update(ctx context.Context, dispute *entity.Dispute) error {
	_, err := r.client.Collection(disputesCollection).Doc(dispute.ID).Update(ctx, []firestore.Update{
		{Path: "status", Value: dispute.Status},
		{Path: "resolution", Value: dispute.Resolution},
		{Path: "resolutionNotes", Value: dispute.ResolutionNotes},
		{Path: "resolvedBy", Value: dispute.ResolvedBy},
		{Path: "resolvedAt", Value: dispute.ResolvedAt},
		{Path: "updatedAt", Value: dispute.UpdatedAt},
	})
	if err != nil {
		if isNotFound(err) {
			return errors.NotFound("Dispute", err)
		}
		return errors.Internal("Failed to update dispute", err)
	}
	return nil
}

func (r *firestoreDisputeRepository) AddEvidence(ctx context.Context, id string, evidence entity.DisputeEvidence) error {
	ref := r.client.Collection(disputesCollection).Doc(id)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return errors.NotFound("Dispute", err)
			}
			return errors.Internal("Failed to get dispute", err)
		}

		status, err := doc.DataAt("status")
		if err != nil || status != entity.DisputeStatusOpen {
			return errors.BadRequest("Evidence can only be added to open disputes", nil)
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "evidence", Value: firestore.ArrayUnion(evidence)},
			{Path: "updatedAt", Value: evidence.UploadedAt},
		})
	})
}

func (r *firestoreDisputeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.client.Collection(disputesCollection).Doc(id).Delete(ctx); err != nil {
		return errors.Internal("Failed to delete dispute", err)
	}
	return nil
}

func (r *firestoreDisputeRepository) List(ctx context.Context, status string, limit, offset int) ([]*entity.Dispute, int64, error) {
	query := r.client.Collection(disputesCollection).Query
	if status != "" {
		query = query.Where("status", "==", status)
	}

	disputes, err := collect[entity.Dispute](query.Documents(ctx))
	if err != nil {
		return nil, 0, errors.Internal("Failed to list disputes", err)
	}

	sortNewestFirst(disputes, func(d *entity.Dispute) time.Time { return d.CreatedAt })
	return paginate(disputes, limit, offset), int64(len(disputes)), nil
}
