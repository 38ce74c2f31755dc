package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/pkg/errors"
)

const fileMetadataColumns = `id, url, object_name, entity_type, entity_id, uploaded_by, filename, file_type, file_size,
	is_public, created_at`

type fileMetadataRepository struct {
	db *sql.DB
}

func NewFileMetadataRepository(db *sql.DB) repository.FileMetadataRepository {
	return &fileMetadataRepository{db: db}
}

func scanFileMetadata(row scanner) (*entity.FileMetadata, error) {
	var m entity.FileMetadata
	err := row.Scan(&m.ID, &m.URL, &m.ObjectName, &m.EntityType, &m.EntityID, &m.UploadedBy, &m.Filename,
		&m.FileType, &m.FileSize, &m.IsPublic, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *fileMetadataRepository) Create(ctx context.Context, m *entity.FileMetadata) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO file_metadata (`+fileMetadataColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.URL, m.ObjectName, m.EntityType, m.EntityID, m.UploadedBy, m.Filename, m.FileType, m.FileSize,
		m.IsPublic, m.CreatedAt)
	if err != nil {
		return errors.Internal("Failed to create file metadata", err)
	}
	return nil
}

func (r *fileMetadataRepository) GetByID(ctx context.Context, id string) (*entity.FileMetadata, error) {
	m, err := scanFileMetadata(r.db.QueryRowContext(ctx, `SELECT `+fileMetadataColumns+` FROM file_metadata WHERE id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("File", err)
	}
	if err != nil {
		return nil, errors.Internal("Failed to get file metadata", err)
	}
	return m, nil
}

func (r *fileMetadataRepository) GetByEntityID(ctx context.Context, entityType, entityID string) ([]*entity.FileMetadata, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+fileMetadataColumns+` FROM file_metadata
		WHERE entity_type = $1 AND entity_id = $2 ORDER BY created_at DESC, id`, entityType, entityID)
	if err != nil {
		return nil, errors.Internal("Failed to list file metadata", err)
	}
	defer rows.Close()

	files := []*entity.FileMetadata{}
	for rows.Next() {
		m, err := scanFileMetadata(rows)
		if err != nil {
			return nil, errors.Internal("Failed to read file metadata", err)
		}
		files = append(files, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("Failed to list file metadata", err)
	}
	return files, nil
}

func (r *fileMetadataRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM file_metadata WHERE id = $1`, id)
	if err != nil {
		return errors.Internal("Failed to delete file metadata", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("File", nil)
	}
	return nil
}
