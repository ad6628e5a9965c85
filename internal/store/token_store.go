package store

import (
	"context"
	"time"

	"disbroad/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenStore struct{ db *gorm.DB }

func (s *Store) Tokens() *TokenStore { return &TokenStore{s.DB} }

func (ts *TokenStore) Create(ctx context.Context, t *domain.Token) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return ts.db.WithContext(ctx).Create(t).Error
}

func (ts *TokenStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Token, error) {
	var t domain.Token
	if err := ts.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &t, nil
}

// ListByUser returns the user's tokens with their device rows joined in.
func (ts *TokenStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Token, error) {
	var tokens []*domain.Token
	err := ts.db.WithContext(ctx).
		Preload("Device").
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (ts *TokenStore) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return ts.db.WithContext(ctx).
		Model(&domain.Token{}).
		Where("id = ?", id).
		Update("last_used", at).Error
}

func (ts *TokenStore) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	tx := ts.db.WithContext(ctx).
		Model(&domain.Token{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (ts *TokenStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	tx := ts.db.WithContext(ctx).
		Model(&domain.Token{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", at)
	return tx.RowsAffected, tx.Error
}
