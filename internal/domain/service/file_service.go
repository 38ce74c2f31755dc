package service

import (
	"context"
	"io"
)

type UploadedFile struct {
	URL        string
	ObjectName string
}

type FileUploadService interface {
	UploadFile(ctx context.Context, file io.Reader, fileType, folder string) (*UploadedFile, error)
	DeleteFile(ctx context.Context, objectName string) error
	Close() error
}
