package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at"`
	Name           string         `gorm:"not null" json:"name"`
	Pseudo         string         `gorm:"unique;not null" json:"pseudo"`
	Email          string         `gorm:"unique;not null" json:"email"`
	Password       string         `gorm:"not null" json:"-"` // Don't expose password in JSON
	ProfilePicture string         `json:"profile_picture"`
	Role           string         `gorm:"size:20;not null;default:'user'" json:"role"`
	LastLogin      *time.Time     `json:"last_login"`
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	IsVerified     bool           `gorm:"default:false" json:"is_verified"`
	Sessions       []Session      `json:"-" gorm:"foreignKey:UserID"`
	Reports        []Report       `json:"-" gorm:"foreignKey:UserID"`
}
