package memory

import (
	"context"

	"skipped/internal/domain/entity"
	"skipped/pkg/errors"
)

type FileMetadataRepository struct {
	s *Store
}

func (r *FileMetadataRepository) Create(ctx context.Context, metadata *entity.FileMetadata) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *metadata
	r.s.files[metadata.ID] = &c
	return nil
}

func (r *FileMetadataRepository) GetByID(ctx context.Context, id string) (*entity.FileMetadata, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.files[id]
	if !ok {
		return nil, errors.NotFound("File", nil)
	}
	c := *m
	return &c, nil
}

func (r *FileMetadataRepository) GetByEntityID(ctx context.Context, entityType, entityID string) ([]*entity.FileMetadata, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var files []*entity.FileMetadata
	for _, m := range r.s.files {
		if m.EntityType == entityType && m.EntityID == entityID {
			c := *m
			files = append(files, &c)
		}
	}
	return files, nil
}

func (r *FileMetadataRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.files[id]; !ok {
		return errors.NotFound("File", nil)
	}
	delete(r.s.files, id)
	return nil
}
