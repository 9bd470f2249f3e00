package models

import (
	"time"

	"gorm.io/gorm"
)

// Session tracks an issued refresh token for revocation and audit.
// Only a SHA-256 hash of the token is stored.
type Session struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `json:"-" gorm:"foreignKey:UserID"`
	TokenHash string         `gorm:"size:64;not null;uniqueIndex" json:"-"`
	IPAddress string         `gorm:"size:45" json:"ip_address"`
	UserAgent string         `json:"user_agent"`
	ExpiresAt time.Time      `gorm:"not null" json:"expires_at"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
}
