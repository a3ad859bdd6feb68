package models

import (
	"time"
)

// Downtime is one reported production-line stoppage. Rows are never
// physically removed; IsDeleted hides them from every read path except
// an explicit restore.
type Downtime struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	LineID          uint             `gorm:"not null;index" json:"line_id"`
	Line            ProductionLine   `gorm:"foreignKey:LineID" json:"line,omitempty"`
	CategoryID      uint             `gorm:"not null;index" json:"category_id"`
	Category        DowntimeCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	ShiftID         *uint            `gorm:"index" json:"shift_id"`
	Shift           *Shift           `gorm:"foreignKey:ShiftID" json:"shift,omitempty"`
	StartTime       time.Time        `gorm:"not null;index" json:"start_time"`
	EndTime         time.Time        `gorm:"not null" json:"end_time"`
	DurationMinutes int              `gorm:"not null" json:"duration_minutes"`
	CrewSize        int              `gorm:"not null" json:"crew_size"`
	ReasonNotes     string           `gorm:"size:1000" json:"reason_notes"`
	EnteredBy       string           `gorm:"not null;size:100" json:"entered_by"`
	EnteredDate     time.Time        `json:"entered_date"`
	CreatedBy       string           `gorm:"size:100" json:"created_by"`
	CreatedDate     time.Time        `json:"created_date"`
	ModifiedBy      *string          `gorm:"size:100" json:"modified_by,omitempty"`
	ModifiedDate    *time.Time       `json:"modified_date,omitempty"`
	IsDeleted       bool             `gorm:"not null;default:false;index" json:"-"`
}
