package store

import (
	"context"

	"disbroad/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeleteUserData removes the user and everything keyed to them (tokens,
// devices, password credential, verification codes and file records) in one
// transaction, returning counts of affected rows per resource.
func (s *Store) DeleteUserData(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	deleted := map[string]int64{}

	err := s.WithTx(ctx, func(tx *Store) error {
		db := tx.DB.WithContext(ctx)

		exists, err := tx.Users().IDExists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrRecordNotFound
		}
		deleted["users"] = 1

		purge := func(label string, query *gorm.DB, model any) error {
			res := query.Delete(model)
			if res.Error != nil {
				return res.Error
			}
			deleted[label] = res.RowsAffected
			return nil
		}

		if err := purge("tokens", db.Where("user_id = ?", userID), &domain.Token{}); err != nil {
			return err
		}
		if err := purge("devices", db.Where("user_id = ?", userID), &domain.Device{}); err != nil {
			return err
		}
		if err := purge("passwordCredentials", db.Where("user_id = ?", userID), &domain.PasswordCredential{}); err != nil {
			return err
		}
		if err := purge("verificationCodes", db.Where("user_id = ?", userID), &domain.VerificationCode{}); err != nil {
			return err
		}
		if err := purge("files", db.Where("creator = ?", userID), &domain.File{}); err != nil {
			return err
		}

		return db.Where("id = ?", userID).Delete(&domain.User{}).Error
	})

	if err != nil {
		return nil, err
	}
	return deleted, nil
}
