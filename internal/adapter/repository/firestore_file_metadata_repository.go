package repository

import (
	"context"

	"cloud.google.com/go/firestore"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/pkg/errors"
)

type firestoreFileMetadataRepository struct {
	client *firestore.Client
}

func NewFirestoreFileMetadataRepository(client *firestore.Client) repository.FileMetadataRepository {
	return &firestoreFileMetadataRepository{
		client: client,
	}
}

func (r *firestoreFileMetadataRepository) Create(ctx context.Context, metadata *entity.FileMetadata) error {
	_, err := r.client.Collection(fileMetadataCollection).Doc(metadata.ID).Set(ctx, metadata)
	if err != nil {
		return errors.Internal("Failed to create file metadata", err)
	}
	return nil
}

func (r *firestoreFileMetadataRepository) GetByID(ctx context.Context, id string) (*entity.FileMetadata, error) {
	doc, err := r.client.Collection(fileMetadataCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("File metadata", err)
		}
		return nil, errors.Internal("Failed to get file metadata", err)
	}

	var metadata entity.FileMetadata
	if err := doc.DataTo(&metadata); err != nil {
		return nil, errors.Internal("Failed to parse file metadata", err)
	}

	return &metadata, nil
}

func (r *firestoreFileMetadataRepository) GetByEntityID(ctx context.Context, entityType, entityID string) ([]*entity.FileMetadata, error) {
	query := r.client.Collection(fileMetadataCollection).
		Where("entityType", "==", entityType).
		Where("entityId", "==", entityID).
		OrderBy("createdAt", firestore.Desc)

	metadataList, err := collect[entity.FileMetadata](query.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to iterate file metadata", err)
	}
	return metadataList, nil
}

func (r *firestoreFileMetadataRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection(fileMetadataCollection).Doc(id).Delete(ctx)
	if err != nil {
		if isNotFound(err) {
			return errors.NotFound("File metadata", err)
		}
		return errors.Internal("Failed to delete file metadata", err)
	}
	return nil
}
