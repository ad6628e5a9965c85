package store

import (
	"context"

	"disbroad/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FileStore struct{ db *gorm.DB }

func (s *Store) Files() *FileStore { return &FileStore{db: s.DB} }

func (f *FileStore) Create(ctx context.Context, file *domain.File) error {
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	return f.db.WithContext(ctx).Create(file).Error
}

func (f *FileStore) Get(ctx context.Context, id uuid.UUID) (*domain.File, error) {
	var file domain.File
	if err := f.db.WithContext(ctx).First(&file, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &file, nil
}

func (f *FileStore) ListByCreator(ctx context.Context, creator uuid.UUID) ([]*domain.File, error) {
	var files []*domain.File
	if err := f.db.WithContext(ctx).Where("creator = ?", creator).Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}
