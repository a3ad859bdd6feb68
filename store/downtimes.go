package store

import (
	"errors"
	"fmt"
	"math"
	"time"

	"downtime/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Messages returned for expected business-rule rejections. Handlers pass
// them through to the caller verbatim.
const (
	msgCrewSize        = "Crew size must be between 1 and 10"
	msgBadDatetime     = "Invalid datetime format"
	msgEndBeforeStart  = "End time must be after start time"
	msgDurationTooLong = "Downtime duration cannot exceed 24 hours"
	msgNotFound        = "Downtime entry not found"
	msgNoChanges       = "No changes detected"
)

// maxDurationMinutes caps a single downtime entry at 24 hours.
const maxDurationMinutes = 1440

// DowntimeStore owns the downtime record lifecycle: validated create,
// partial-field diff-tracked update, soft-delete/restore and the read
// paths. It never writes audit rows itself; the caller forwards the
// returned change diff to the audit logger.
type DowntimeStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewDowntimeStore(db *gorm.DB, log zerolog.Logger) *DowntimeStore {
	return &DowntimeStore{db: db, log: log.With().Str("store", "downtimes").Logger()}
}

// CreateParams carries the fields of a new downtime entry. StartTime and
// EndTime are timestamp strings so the store owns the format validation.
// ShiftID left nil is auto-detected from the start time.
type CreateParams struct {
	LineID      uint
	CategoryID  uint
	ShiftID     *uint
	StartTime   string
	EndTime     string
	CrewSize    int
	ReasonNotes string
	EnteredBy   string
}

// timestampLayouts are tried in order when parsing submitted times.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// durationMinutes derives the stored duration from a time pair, rounding
// to the nearest minute.
func durationMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Seconds() / 60))
}

func (p CreateParams) missingField() string {
	switch {
	case p.LineID == 0:
		return "line_id"
	case p.CategoryID == 0:
		return "category_id"
	case p.StartTime == "":
		return "start_time"
	case p.EndTime == "":
		return "end_time"
	case p.EnteredBy == "":
		return "entered_by"
	}
	return ""
}

// Create validates and persists a new downtime entry. The first failing
// rule wins: missing field, crew size, datetime format, duration bounds.
// Validation failures come back as (0, reason, false); they are expected
// rejections, not errors.
func (s *DowntimeStore) Create(p CreateParams) (uint, string, bool) {
	if name := p.missingField(); name != "" {
		return 0, "Missing required field: " + name, false
	}

	if p.CrewSize < 1 || p.CrewSize > 10 {
		return 0, msgCrewSize, false
	}

	start, err := parseTimestamp(p.StartTime)
	if err != nil {
		return 0, msgBadDatetime, false
	}
	end, err := parseTimestamp(p.EndTime)
	if err != nil {
		return 0, msgBadDatetime, false
	}

	duration := durationMinutes(start, end)
	if duration <= 0 {
		return 0, msgEndBeforeStart, false
	}
	if duration > maxDurationMinutes {
		return 0, msgDurationTooLong, false
	}

	shiftID := p.ShiftID
	if shiftID == nil {
		shiftID = s.DetectShift(start)
	}

	now := time.Now()
	entry := models.Downtime{
		LineID:          p.LineID,
		CategoryID:      p.CategoryID,
		ShiftID:         shiftID,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: duration,
		CrewSize:        p.CrewSize,
		ReasonNotes:     p.ReasonNotes,
		EnteredBy:       p.EnteredBy,
		EnteredDate:     now,
		CreatedBy:       p.EnteredBy,
		CreatedDate:     now,
		IsDeleted:       false,
	}

	err = runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		return tx.Create(&entry).Error
	})
	if err != nil {
		return 0, "Failed to create downtime entry", false
	}

	return entry.ID, fmt.Sprintf("Downtime entry created (%d minutes)", duration), true
}

// Update applies a partial-field patch to a non-deleted entry. Only fields
// whose new value differs from the current one are staged; times are
// compared by instant, not text. Changing either time bound recomputes the
// duration over the resulting pair and re-validates both thresholds,
// aborting the whole update on failure. An empty diff is a no-op success
// and leaves the modified stamp untouched.
func (s *DowntimeStore) Update(id uint, patch UpdatePatch, actingUser string) (ChangeSet, string, bool) {
	var current models.Downtime
	err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		return tx.Where("id = ? AND is_deleted = ?", id, false).First(&current).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, msgNotFound, false
	}
	if err != nil {
		return nil, "Failed to update downtime entry", false
	}

	changes := ChangeSet{}
	updates := map[string]any{}

	if patch.LineID.Set && patch.LineID.Value != current.LineID {
		updates["line_id"] = patch.LineID.Value
		changes["line_id"] = FieldChange{Old: current.LineID, New: patch.LineID.Value}
	}

	if patch.CategoryID.Set && patch.CategoryID.Value != current.CategoryID {
		updates["category_id"] = patch.CategoryID.Value
		changes["category_id"] = FieldChange{Old: current.CategoryID, New: patch.CategoryID.Value}
	}

	if patch.ShiftID.Set && !uintPtrEqual(patch.ShiftID.Value, current.ShiftID) {
		updates["shift_id"] = patch.ShiftID.Value
		changes["shift_id"] = FieldChange{Old: uintPtrValue(current.ShiftID), New: uintPtrValue(patch.ShiftID.Value)}
	}

	newStart, newEnd := current.StartTime, current.EndTime
	timesChanged := false

	if patch.StartTime.Set {
		t, err := parseTimestamp(patch.StartTime.Value)
		if err != nil {
			return nil, msgBadDatetime, false
		}
		if !t.Equal(current.StartTime) {
			newStart = t
			timesChanged = true
			updates["start_time"] = t
			changes["start_time"] = FieldChange{
				Old: current.StartTime.Format(time.RFC3339),
				New: t.Format(time.RFC3339),
			}
		}
	}

	if patch.EndTime.Set {
		t, err := parseTimestamp(patch.EndTime.Value)
		if err != nil {
			return nil, msgBadDatetime, false
		}
		if !t.Equal(current.EndTime) {
			newEnd = t
			timesChanged = true
			updates["end_time"] = t
			changes["end_time"] = FieldChange{
				Old: current.EndTime.Format(time.RFC3339),
				New: t.Format(time.RFC3339),
			}
		}
	}

	if timesChanged {
		duration := durationMinutes(newStart, newEnd)
		if duration <= 0 {
			return nil, msgEndBeforeStart, false
		}
		if duration > maxDurationMinutes {
			return nil, msgDurationTooLong, false
		}
		updates["duration_minutes"] = duration
		changes["duration_minutes"] = FieldChange{Old: current.DurationMinutes, New: duration}
	}

	if patch.CrewSize.Set && patch.CrewSize.Value != current.CrewSize {
		if patch.CrewSize.Value < 1 || patch.CrewSize.Value > 10 {
			return nil, msgCrewSize, false
		}
		updates["crew_size"] = patch.CrewSize.Value
		changes["crew_size"] = FieldChange{Old: current.CrewSize, New: patch.CrewSize.Value}
	}

	if patch.ReasonNotes.Set && patch.ReasonNotes.Value != current.ReasonNotes {
		updates["reason_notes"] = patch.ReasonNotes.Value
		changes["reason_notes"] = FieldChange{Old: current.ReasonNotes, New: patch.ReasonNotes.Value}
	}

	if len(changes) == 0 {
		return nil, msgNoChanges, true
	}

	updates["modified_by"] = actingUser
	updates["modified_date"] = time.Now()

	err = runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		return tx.Model(&models.Downtime{}).
			Where("id = ? AND is_deleted = ?", id, false).
			Updates(updates).Error
	})
	if err != nil {
		return nil, "Failed to update downtime entry", false
	}

	return changes, "Downtime entry updated successfully", true
}

// Delete soft-deletes an entry. Deleting an already-deleted entry is a
// no-op success. No cascading changes are made.
func (s *DowntimeStore) Delete(id uint, actingUser string) (string, bool) {
	return s.setDeleted(id, actingUser, true, "Downtime entry deleted", "Failed to delete entry")
}

// Restore makes a soft-deleted entry visible again with its original field
// values intact. Restoring a non-deleted entry is a no-op success.
func (s *DowntimeStore) Restore(id uint, actingUser string) (string, bool) {
	return s.setDeleted(id, actingUser, false, "Downtime entry restored", "Failed to restore entry")
}

func (s *DowntimeStore) setDeleted(id uint, actingUser string, deleted bool, okMsg, failMsg string) (string, bool) {
	var current models.Downtime
	err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		return tx.Select("id", "is_deleted").First(&current, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return msgNotFound, false
	}
	if err != nil {
		return failMsg, false
	}

	if current.IsDeleted == deleted {
		return okMsg, true
	}

	err = runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		return tx.Model(&models.Downtime{}).Where("id = ?", id).Updates(map[string]any{
			"is_deleted":    deleted,
			"modified_by":   actingUser,
			"modified_date": time.Now(),
		}).Error
	})
	if err != nil {
		return failMsg, false
	}
	return okMsg, true
}

// DowntimeDetail is a read-path row denormalized through line, facility,
// category and shift. Notes mirrors ReasonNotes for presentation-layer
// compatibility, including when it is empty.
type DowntimeDetail struct {
	ID              uint       `json:"downtime_id"`
	LineID          uint       `json:"line_id"`
	CategoryID      uint       `json:"category_id"`
	ShiftID         *uint      `json:"shift_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	CrewSize        int        `json:"crew_size"`
	ReasonNotes     string     `json:"reason_notes"`
	EnteredBy       string     `json:"entered_by"`
	EnteredDate     time.Time  `json:"entered_date"`
	ModifiedBy      *string    `json:"modified_by,omitempty"`
	ModifiedDate    *time.Time `json:"modified_date,omitempty"`
	FacilityID      uint       `json:"facility_id"`
	LineName        string     `json:"line_name"`
	FacilityName    string     `json:"facility_name"`
	CategoryName    string     `json:"category_name"`
	CategoryCode    string     `json:"category_code"`
	ShiftName       *string    `json:"shift_name"`
	Notes           string     `json:"notes"`
}

func (s *DowntimeStore) detailQuery() *gorm.DB {
	return s.db.Table("downtimes d").
		Select(`d.id, d.line_id, d.category_id, d.shift_id, d.start_time, d.end_time,
			d.duration_minutes, d.crew_size, d.reason_notes, d.entered_by, d.entered_date,
			d.modified_by, d.modified_date,
			pl.facility_id, pl.name AS line_name, f.name AS facility_name,
			c.name AS category_name, c.code AS category_code, sh.name AS shift_name`).
		Joins("JOIN production_lines pl ON pl.id = d.line_id").
		Joins("JOIN facilities f ON f.id = pl.facility_id").
		Joins("JOIN downtime_categories c ON c.id = d.category_id").
		Joins("LEFT JOIN shifts sh ON sh.id = d.shift_id").
		Where("d.is_deleted = ?", false)
}

func normalizeDetails(rows []DowntimeDetail) []DowntimeDetail {
	for i := range rows {
		rows[i].Notes = rows[i].ReasonNotes
	}
	return rows
}

// GetByID returns one non-deleted entry with its display fields, or nil
// when the id is unknown or soft-deleted.
func (s *DowntimeStore) GetByID(id uint) *DowntimeDetail {
	var rows []DowntimeDetail
	err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		return s.detailQuery().Where("d.id = ?", id).Limit(1).Scan(&rows).Error
	})
	if err != nil || len(rows) == 0 {
		return nil
	}
	rows = normalizeDetails(rows)
	return &rows[0]
}

// GetRecent returns entries from the trailing window of whole days, newest
// first, optionally filtered to one line.
func (s *DowntimeStore) GetRecent(days int, lineID *uint, limit int) []DowntimeDetail {
	since := time.Now().AddDate(0, 0, -days)

	var rows []DowntimeDetail
	err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		q := s.detailQuery().Where("d.start_time >= ?", since)
		if lineID != nil {
			q = q.Where("d.line_id = ?", *lineID)
		}
		return q.Order("d.start_time DESC").Limit(limit).Scan(&rows).Error
	})
	if err != nil {
		return []DowntimeDetail{}
	}
	return normalizeDetails(rows)
}

// GetByFacility returns recent entries for every line of one facility,
// newest first.
func (s *DowntimeStore) GetByFacility(facilityID uint, days, limit int) []DowntimeDetail {
	since := time.Now().AddDate(0, 0, -days)

	var rows []DowntimeDetail
	err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		return s.detailQuery().
			Where("pl.facility_id = ? AND d.start_time >= ?", facilityID, since).
			Order("d.start_time DESC").
			Limit(limit).
			Scan(&rows).Error
	})
	if err != nil {
		return []DowntimeDetail{}
	}
	return normalizeDetails(rows)
}

// GetByDateRange returns entries fully inside [start, end], newest first,
// optionally scoped to one facility and/or line.
func (s *DowntimeStore) GetByDateRange(start, end time.Time, facilityID, lineID *uint) []DowntimeDetail {
	var rows []DowntimeDetail
	err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		q := s.detailQuery().Where("d.start_time >= ? AND d.end_time <= ?", start, end)
		if facilityID != nil {
			q = q.Where("pl.facility_id = ?", *facilityID)
		}
		if lineID != nil {
			q = q.Where("d.line_id = ?", *lineID)
		}
		return q.Order("d.start_time DESC").Scan(&rows).Error
	})
	if err != nil {
		return []DowntimeDetail{}
	}
	return normalizeDetails(rows)
}

func uintPtrEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// uintPtrValue flattens a nullable id for the change diff; nil stays nil.
func uintPtrValue(p *uint) any {
	if p == nil {
		return nil
	}
	return *p
}
