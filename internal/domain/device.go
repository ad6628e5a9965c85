package domain

import "time"

// Device is client metadata captured when a token is minted from a
// previously-unseen device.
type Device struct {
	ID         DeviceID  `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	UserID     UserID    `gorm:"type:uuid;index" db:"user_id" json:"userId"`
	Name       string    `gorm:"type:text;not null" db:"name" json:"name"`
	IP         string    `gorm:"type:inet" db:"ip" json:"ip"`
	MAC        string    `gorm:"type:macaddr" db:"mac" json:"mac"`
	Language   string    `gorm:"type:text" db:"language" json:"language"`
	OS         string    `gorm:"type:text" db:"os" json:"os"`
	ScreenSize string    `gorm:"type:text" db:"screen_size" json:"screenSize"`
	Country    string    `gorm:"type:text" db:"country" json:"country"`
	CreatedAt  time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (Device) TableName() string { return "devices" }
