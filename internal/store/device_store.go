package store

import (
	"context"

	"disbroad/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeviceStore struct{ db *gorm.DB }

func (s *Store) Devices() *DeviceStore { return &DeviceStore{db: s.DB} }

func (d *DeviceStore) Create(ctx context.Context, device *domain.Device) error {
	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	return d.db.WithContext(ctx).Create(device).Error
}

func (d *DeviceStore) Get(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	var dev domain.Device
	if err := d.db.WithContext(ctx).First(&dev, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &dev, nil
}

// FindByFingerprint matches an existing device for the user by its hardware
// identity (name + MAC). A miss means the token mint should create one.
func (d *DeviceStore) FindByFingerprint(ctx context.Context, userID uuid.UUID, name, mac string) (*domain.Device, error) {
	var dev domain.Device
	err := d.db.WithContext(ctx).
		First(&dev, "user_id = ? AND name = ? AND mac = ?", userID, name, mac).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &dev, nil
}
