package store

import (
	"downtime/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ReferenceStore serves the read-mostly lookup tables: facilities,
// production lines, categories and shifts. Lookup failures degrade to
// empty slices and are logged.
type ReferenceStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewReferenceStore(db *gorm.DB, log zerolog.Logger) *ReferenceStore {
	return &ReferenceStore{db: db, log: log.With().Str("store", "reference").Logger()}
}

func (s *ReferenceStore) GetFacilities(activeOnly bool) []models.Facility {
	var facilities []models.Facility
	if err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		q := tx.Order("name")
		if activeOnly {
			q = q.Where("is_active = ?", true)
		}
		return q.Find(&facilities).Error
	}); err != nil {
		return []models.Facility{}
	}
	return facilities
}

func (s *ReferenceStore) GetLines(facilityID *uint, activeOnly bool) []models.ProductionLine {
	var lines []models.ProductionLine
	if err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		q := tx.Order("name")
		if facilityID != nil {
			q = q.Where("facility_id = ?", *facilityID)
		}
		if activeOnly {
			q = q.Where("is_active = ?", true)
		}
		return q.Find(&lines).Error
	}); err != nil {
		return []models.ProductionLine{}
	}
	return lines
}

func (s *ReferenceStore) GetCategories(activeOnly bool) []models.DowntimeCategory {
	var categories []models.DowntimeCategory
	if err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		q := tx.Order("name")
		if activeOnly {
			q = q.Where("is_active = ?", true)
		}
		return q.Find(&categories).Error
	}); err != nil {
		return []models.DowntimeCategory{}
	}
	return categories
}

// GetShifts keeps configuration order (by id); shift detection depends
// on it.
func (s *ReferenceStore) GetShifts(activeOnly bool) []models.Shift {
	var shifts []models.Shift
	if err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		q := tx.Order("id")
		if activeOnly {
			q = q.Where("is_active = ?", true)
		}
		return q.Find(&shifts).Error
	}); err != nil {
		return []models.Shift{}
	}
	return shifts
}
