package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Store-level sentinels; services translate them into the appropriate
// domain errors.
var (
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateKey surfaces a unique-index violation. It relies on
	// TranslateError being enabled on the gorm session.
	ErrDuplicateKey = errors.New("duplicate key")
)

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{DB: db} }

func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{DB: tx})
	})
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}

func translateDuplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	return err
}
