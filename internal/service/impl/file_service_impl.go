package impl

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"disbroad/internal/domain"
	"disbroad/internal/store"
)

type FileServiceImpl struct {
	Files *store.FileStore
}

func NewFileServiceImpl(s *store.Store) *FileServiceImpl {
	return &FileServiceImpl{Files: s.Files()}
}

func (s *FileServiceImpl) Create(ctx context.Context, creator domain.UserID, name, contentType string, size int64) (*domain.File, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyFileName
	}
	file := &domain.File{
		ID:          domain.FileID(uuid.New()),
		Creator:     creator,
		Name:        name,
		ContentType: contentType,
		Size:        size,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Files.Create(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

func (s *FileServiceImpl) Get(ctx context.Context, id domain.FileID) (*domain.File, error) {
	file, err := s.Files.Get(ctx, uuid.UUID(id))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrFileNotFound
		}
		return nil, err
	}
	return file, nil
}

func (s *FileServiceImpl) ListByCreator(ctx context.Context, creator domain.UserID) ([]*domain.File, error) {
	return s.Files.ListByCreator(ctx, uuid.UUID(creator))
}
