package store

import (
	"context"
	"time"

	"disbroad/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStore struct{ db *gorm.DB }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

func (u *UserStore) Create(ctx context.Context, usr *domain.User) error {
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	// The unique index on email is the authority; the EmailExists pre-check
	// only catches the common case, not a racing insert.
	return translateDuplicate(u.db.WithContext(ctx).Create(usr).Error)
}

// GetByID fetches the full row in one round trip. Callers project the
// columns they need in memory.
func (u *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (u *UserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := u.db.WithContext(ctx).Model(&domain.User{}).
		Where("email = ?", email).
		Count(&n).Error
	return n > 0, err
}

// IDExists is a cheap probe for callers that only need to know the row is
// there, without paying for the full fetch.
func (u *UserStore) IDExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Count(&n).Error
	return n > 0, err
}

// TagTaken reports whether the (username, tag) pair is already in use.
func (u *UserStore) TagTaken(ctx context.Context, username string, tag int) (bool, error) {
	var n int64
	err := u.db.WithContext(ctx).Model(&domain.User{}).
		Where("username = ? AND tag = ?", username, tag).
		Count(&n).Error
	return n > 0, err
}

// List returns a page of users, newest first. Offset pagination is fine for
// admin tooling; results may shift under concurrent inserts.
func (u *UserStore) List(ctx context.Context, page, pageSize int) ([]*domain.User, error) {
	var users []*domain.User
	err := u.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(page * pageSize).
		Limit(pageSize).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateColumns applies an explicit column set to one user row.
func (u *UserStore) UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	tx := u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(cols)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (u *UserStore) SetVerified(ctx context.Context, id uuid.UUID) error {
	return u.UpdateColumns(ctx, id, map[string]any{"is_verified": true})
}

func (u *UserStore) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	return u.UpdateColumns(ctx, id, map[string]any{"is_banned": banned})
}

func (u *UserStore) SetPresence(ctx context.Context, id uuid.UUID, online bool, at time.Time) error {
	return u.UpdateColumns(ctx, id, map[string]any{"is_online": online, "last_online": at})
}
