package models

import (
	"time"
)

// Activity types recorded in the audit log.
const (
	ActivityLogin           = "LOGIN"
	ActivityLogout          = "LOGOUT"
	ActivityRegister        = "REGISTER"
	ActivityReportSubmitted = "REPORT_SUBMITTED"
	ActivityProfileUpdated  = "PROFILE_UPDATED"
	ActivityStatusChanged   = "STATUS_CHANGED"
	ActivityFileCommitError = "FILE_COMMIT_ERROR"
)

// ActivityLog is append-only: rows are never updated or deleted.
type ActivityLog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      *uint     `gorm:"index" json:"user_id"`
	User        *User     `json:"-" gorm:"foreignKey:UserID"`
	Activity    string    `json:"activity" gorm:"not null;type:varchar(50)"` // "LOGIN", "REPORT_SUBMITTED", etc.
	Description string    `json:"description"`
	IPAddress   string    `gorm:"size:45" json:"ip_address"`
	UserAgent   string    `json:"user_agent"`
}
