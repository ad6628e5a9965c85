package store

import (
	"context"

	"disbroad/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VerificationStore struct{ db *gorm.DB }

func (s *Store) Verifications() *VerificationStore { return &VerificationStore{db: s.DB} }

func (v *VerificationStore) Create(ctx context.Context, code *domain.VerificationCode) error {
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	return v.db.WithContext(ctx).Create(code).Error
}

func (v *VerificationStore) GetByCode(ctx context.Context, code string) (*domain.VerificationCode, error) {
	var out domain.VerificationCode
	if err := v.db.WithContext(ctx).First(&out, "code = ?", code).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &out, nil
}

// MarkConsumed flips the one-time flag; a second consume finds zero rows.
func (v *VerificationStore) MarkConsumed(ctx context.Context, id uuid.UUID) error {
	tx := v.db.WithContext(ctx).
		Model(&domain.VerificationCode{}).
		Where("id = ? AND NOT consumed", id).
		Update("consumed", true)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
