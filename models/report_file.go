package models

import (
	"time"
)

// ReportFile is an attachment uploaded with a report. Rows are removed with
// their parent report via the cascade constraint.
type ReportFile struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	ReportID     uint      `gorm:"not null;index" json:"report_id"`
	FileName     string    `gorm:"not null" json:"file_name"` // stored name (uuid + extension)
	OriginalName string    `gorm:"not null" json:"original_name"`
	FilePath     string    `gorm:"not null" json:"file_path"`
	FileSize     int64     `gorm:"not null" json:"file_size"`
	MimeType     string    `gorm:"size:100" json:"mime_type"`
}
