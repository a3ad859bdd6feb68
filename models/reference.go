package models

import (
	"time"
)

type Facility struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"uniqueIndex;not null;size:200" json:"name"`
	Code      string    `gorm:"size:20" json:"code"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
}

type ProductionLine struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	FacilityID uint      `gorm:"not null;index" json:"facility_id"`
	Facility   Facility  `gorm:"foreignKey:FacilityID" json:"facility,omitempty"`
	Name       string    `gorm:"not null;size:200" json:"name"`
	Code       string    `gorm:"size:20" json:"code"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
}

type DowntimeCategory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"uniqueIndex;not null;size:200" json:"name"`
	Code      string    `gorm:"size:20" json:"code"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
}

// Shift is a recurring time-of-day window. StartTime and EndTime hold
// clock times ("HH:MM" or "HH:MM:SS"), not dates. Overnight shifts wrap
// midnight, e.g. 22:00-06:00.
type Shift struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"not null;size:100" json:"name"`
	StartTime   string    `gorm:"not null;size:8" json:"start_time"`
	EndTime     string    `gorm:"not null;size:8" json:"end_time"`
	IsOvernight bool      `gorm:"not null;default:false" json:"is_overnight"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
}
