package domain

import "time"

// File is an uploaded object record. Content storage lives elsewhere; this
// row only tracks ownership and metadata.
type File struct {
	ID          FileID    `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Creator     UserID    `gorm:"type:uuid;index" db:"creator" json:"creator"`
	Name        string    `gorm:"type:text;not null" db:"name" json:"name"`
	ContentType string    `gorm:"type:text" db:"content_type" json:"contentType"`
	Size        int64     `gorm:"not null;default:0" db:"size" json:"size"`
	CreatedAt   time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
}

func (File) TableName() string { return "files" }
