package domain

import "time"

// StatusType is the user presence enum. Values are persisted; do not reorder.
type StatusType int16

const (
	StatusOnline StatusType = iota
	StatusOffline
	StatusAway
	StatusDnd
	StatusPlaying
	StatusWatching
	StatusListening
)

func (s StatusType) Valid() bool { return s >= StatusOnline && s <= StatusListening }

type User struct {
	ID            UserID     `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Email         string     `gorm:"type:citext;uniqueIndex:ux_users_email" db:"email" json:"email"`
	Username      string     `gorm:"type:citext;uniqueIndex:ux_users_username_tag" db:"username" json:"username"`
	Tag           int        `gorm:"not null;uniqueIndex:ux_users_username_tag" db:"tag" json:"tag"`
	Icon          *FileID    `gorm:"type:uuid" db:"icon" json:"icon"`
	Bio           *string    `gorm:"type:text" db:"bio" json:"bio"`
	StatusType    StatusType `gorm:"not null;default:1" db:"status_type" json:"statusType"`
	StatusMessage *string    `gorm:"type:text" db:"status_message" json:"statusMessage"`
	LastOnline    time.Time  `gorm:"not null" db:"last_online" json:"lastOnline"`
	IsOnline      bool       `gorm:"not null;default:false" db:"is_online" json:"isOnline"`
	IsBanned      bool       `gorm:"not null;default:false" db:"is_banned" json:"isBanned"`
	IsVerified    bool       `gorm:"not null;default:false" db:"is_verified" json:"isVerified"`
	CreatedAt     time.Time  `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

type VerificationCode struct {
	ID        CredentialID `gorm:"type:uuid;primaryKey" db:"id"`
	UserID    UserID       `gorm:"type:uuid;index" db:"user_id"`
	Code      string       `gorm:"type:text;uniqueIndex" db:"code"`
	ExpiresAt time.Time    `gorm:"not null" db:"expires_at"`
	Consumed  bool         `gorm:"not null;default:false" db:"consumed"`
	CreatedAt time.Time    `gorm:"not null" db:"created_at"`
}

func (VerificationCode) TableName() string { return "verification_codes" }
