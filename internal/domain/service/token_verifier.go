package service

import (
	"context"

	"skipped/internal/domain/entity"
)

// TokenVerifier turns a bearer token into the caller it was issued to.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*entity.Principal, error)
}
