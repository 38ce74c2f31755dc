package repository

import (
	"context"

	"skipped/internal/domain/entity"
)

type DisputeRepository interface {
	Create(ctx context.Context, dispute *entity.Dispute) error
	GetByID(ctx context.Context, id string) (*entity.Dispute, error)
	// Update writes status and resolution fields; evidence is only changed through AddEvidence.
	Update(ctx context.Context, dispute *entity.Dispute) error
	// AddEvidence appends to an open dispute without rewriting existing evidence.
	AddEvidence(ctx context.Context, id string, evidence entity.DisputeEvidence) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, status string, limit, offset int) ([]*entity.Dispute, int64, error)
}
