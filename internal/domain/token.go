package domain

import "time"

// Token is an issued credential linking a user and a device. Its ID doubles
// as the jti claim of the access JWT. Multiple live tokens per user are
// normal (multi-device sessions).
type Token struct {
	ID        TokenID    `gorm:"type:uuid;primaryKey" db:"id"`
	UserID    UserID     `gorm:"type:uuid;index" db:"user_id"`
	DeviceID  DeviceID   `gorm:"type:uuid" db:"device_id"`
	Device    *Device    `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
	ExpiresAt time.Time  `gorm:"not null" db:"expires_at"`
	LastUsed  time.Time  `gorm:"not null" db:"last_used"`
	RevokedAt *time.Time `db:"revoked_at"`
	CreatedAt time.Time  `gorm:"not null" db:"created_at"`
}

func (Token) TableName() string { return "tokens" }
