package service

import (
	"context"

	"disbroad/internal/domain"
)

type FileService interface {
	Create(ctx context.Context, creator domain.UserID, name, contentType string, size int64) (*domain.File, error)
	Get(ctx context.Context, id domain.FileID) (*domain.File, error)
	ListByCreator(ctx context.Context, creator domain.UserID) ([]*domain.File, error)
}
