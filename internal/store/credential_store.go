package store

import (
	"context"
	"time"

	"disbroad/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CredentialStore struct{ db *gorm.DB }

func (s *Store) Credentials() *CredentialStore { return &CredentialStore{s.DB} }

// Replace removes any existing credential row for the user and inserts the
// new one. Callers must run it inside WithTx so a failure leaves the old
// password intact instead of leaving the user with none.
func (cs *CredentialStore) Replace(ctx context.Context, c *domain.PasswordCredential) error {
	now := time.Now().UTC()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	if err := cs.db.WithContext(ctx).
		Where("user_id = ?", c.UserID).
		Delete(&domain.PasswordCredential{}).Error; err != nil {
		return err
	}
	return cs.db.WithContext(ctx).Create(c).Error
}

func (cs *CredentialStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.PasswordCredential, error) {
	var out domain.PasswordCredential
	if err := cs.db.WithContext(ctx).First(&out, "user_id = ?", userID).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &out, nil
}
