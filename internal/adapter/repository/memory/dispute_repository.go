package memory

import (
	"context"
	"time"

	"skipped/internal/domain/entity"
	"skipped/pkg/errors"
)

type DisputeRepository struct {
	s *Store
}

func copyDispute(d *entity.Dispute) *entity.Dispute {
	c := *d
	c.Evidence = append([]entity.DisputeEvidence(nil), d.Evidence...)
	return &c
}

func (r *DisputeRepository) Create(ctx context.Context, dispute *entity.Dispute) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.disputes[dispute.ID] = copyDispute(dispute)
	return nil
}

func (r *DisputeRepository) GetByID(ctx context.Context, id string) (*entity.Dispute, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.disputes[id]
	if !ok {
		return nil, errors.NotFound("Dispute", nil)
	}
	return copyDispute(d), nil
}

func (r *DisputeRepository) Update(ctx context.Context, dispute *entity.Dispute) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.disputes[dispute.ID]
	if !ok {
		return errors.NotFound("Dispute", nil)
	}
	updated := copyDispute(dispute)
	updated.Evidence = stored.Evidence
	r.s.disputes[dispute.ID] = updated
	return nil
}

func (r *DisputeRepository) AddEvidence(ctx context.Context, id string, evidence entity.DisputeEvidence) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.disputes[id]
	if !ok {
		return errors.NotFound("Dispute", nil)
	}
	if d.Status != entity.DisputeStatusOpen {
		return errors.BadRequest("Evidence can only be added to open disputes", nil)
	}
	d.Evidence = append(d.Evidence, evidence)
	d.UpdatedAt = evidence.UploadedAt
	return nil
}

func (r *DisputeRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.disputes, id)
	return nil
}

func (r *DisputeRepository) List(ctx context.Context, status string, limit, offset int) ([]*entity.Dispute, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var matched []*entity.Dispute
	for _, d := range r.s.disputes {
		if status != "" && d.Status != status {
			continue
		}
		matched = append(matched, copyDispute(d))
	}

	sortNewestFirst(matched,
		func(d *entity.Dispute) time.Time { return d.CreatedAt },
		func(d *entity.Dispute) string { return d.ID })

	return paginate(matched, limit, offset), int64(len(matched)), nil
}
