package models

import (
	"time"

	"gorm.io/gorm"
)

// Report statuses. No transition rules are enforced; an admin may set any of
// these values.
const (
	ReportStatusPending   = "pending"
	ReportStatusInReview  = "in_review"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

const (
	ReportPriorityLow      = "low"
	ReportPriorityMedium   = "medium"
	ReportPriorityHigh     = "high"
	ReportPriorityCritical = "critical"
)

type Report struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	// Immutable once issued, format XS-<base36 timestamp>-<base36 random>.
	ReferenceNumber string `gorm:"unique;not null" json:"reference_number"`

	// Nullable: anonymous submissions are allowed.
	UserID *uint `gorm:"index" json:"user_id"`
	User   *User `json:"-" gorm:"foreignKey:UserID"`

	ReporterName  string `gorm:"not null" json:"reporter_name"`
	ReporterEmail string `gorm:"not null" json:"reporter_email"`
	ReporterPhone string `json:"reporter_phone"`
	Organization  string `json:"organization"`

	IncidentType    string    `gorm:"size:50;not null" json:"incident_type"`
	IncidentDate    time.Time `gorm:"not null" json:"incident_date"`
	Location        string    `json:"location"`
	Description     string    `gorm:"type:text;not null" json:"description"`
	ImpactLevel     string    `gorm:"size:20" json:"impact_level"`
	AffectedSystems string    `gorm:"type:text" json:"affected_systems"`

	PreviousIncidents  bool   `gorm:"default:false" json:"previous_incidents"`
	SecurityMeasures   string `gorm:"type:text" json:"security_measures"`
	AdditionalComments string `gorm:"type:text" json:"additional_comments"`

	IPAddress string `gorm:"size:45" json:"ip_address"`
	UserAgent string `json:"user_agent"`

	Status     string `gorm:"size:20;not null;default:'pending'" json:"status"`  // pending, in_review, resolved, dismissed
	Priority   string `gorm:"size:20;not null;default:'medium'" json:"priority"` // low, medium, high, critical
	AssignedTo string `json:"assigned_to"`

	Files []ReportFile `json:"files" gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
}
