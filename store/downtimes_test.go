package store

import (
	"testing"
	"time"

	"downtime/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComputesDuration(t *testing.T) {
	s, db := newTestDowntimeStore(t)

	id, msg, ok := s.Create(validParams())
	require.True(t, ok)
	assert.Equal(t, "Downtime entry created (45 minutes)", msg)

	var entry models.Downtime
	require.NoError(t, db.First(&entry, id).Error)
	assert.Equal(t, 45, entry.DurationMinutes)
	assert.Equal(t, "jsmith", entry.EnteredBy)
	assert.Equal(t, "jsmith", entry.CreatedBy)
	assert.False(t, entry.IsDeleted)
	assert.Nil(t, entry.ModifiedBy)
	assert.Equal(t, entry.EnteredDate, entry.CreatedDate)
}

func TestCreateRoundsDurationToNearestMinute(t *testing.T) {
	s, db := newTestDowntimeStore(t)

	p := validParams()
	p.StartTime = "2024-01-01T08:00:00"
	p.EndTime = "2024-01-01T08:45:30"
	id := mustCreate(t, s, p)

	var entry models.Downtime
	require.NoError(t, db.First(&entry, id).Error)
	assert.Equal(t, 46, entry.DurationMinutes)
}

func TestCreateMissingRequiredFields(t *testing.T) {
	s, _ := newTestDowntimeStore(t)

	cases := []struct {
		name   string
		mutate func(*CreateParams)
		want   string
	}{
		{"line", func(p *CreateParams) { p.LineID = 0 }, "Missing required field: line_id"},
		{"category", func(p *CreateParams) { p.CategoryID = 0 }, "Missing required field: category_id"},
		{"start", func(p *CreateParams) { p.StartTime = "" }, "Missing required field: start_time"},
		{"end", func(p *CreateParams) { p.EndTime = "" }, "Missing required field: end_time"},
		{"enteredBy", func(p *CreateParams) { p.EnteredBy = "" }, "Missing required field: entered_by"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			id, msg, ok := s.Create(p)
			assert.False(t, ok)
			assert.Equal(t, tc.want, msg)
			assert.Zero(t, id)
		})
	}
}

func TestCreateValidationOrderFirstFailureWins(t *testing.T) {
	s, _ := newTestDowntimeStore(t)

	// Missing field outranks a bad crew size.
	p := validParams()
	p.LineID = 0
	p.CrewSize = 99
	_, msg, ok := s.Create(p)
	assert.False(t, ok)
	assert.Equal(t, "Missing required field: line_id", msg)

	// A bad crew size outranks an unparseable timestamp.
	p = validParams()
	p.CrewSize = 99
	p.StartTime = "not-a-time"
	_, msg, ok = s.Create(p)
	assert.False(t, ok)
	assert.Equal(t, "Crew size must be between 1 and 10", msg)

	// An unparseable timestamp outranks the duration bounds.
	p = validParams()
	p.StartTime = "not-a-time"
	p.EndTime = "2023-01-01T00:00"
	_, msg, ok = s.Create(p)
	assert.False(t, ok)
	assert.Equal(t, "Invalid datetime format", msg)
}

func TestCreateCrewSizeBounds(t *testing.T) {
	s, _ := newTestDowntimeStore(t)

	for _, crew := range []int{0, -1, 11} {
		p := validParams()
		p.CrewSize = crew
		_, msg, ok := s.Create(p)
		assert.False(t, ok, "crew size %d should be rejected", crew)
		assert.Equal(t, "Crew size must be between 1 and 10", msg)
	}

	for _, crew := range []int{1, 10} {
		p := validParams()
		p.CrewSize = crew
		_, msg, ok := s.Create(p)
		assert.True(t, ok, "crew size %d should be accepted: %s", crew, msg)
	}
}

func TestCreateRejectsEndBeforeStart(t *testing.T) {
	s, _ := newTestDowntimeStore(t)

	p := validParams()
	p.EndTime = p.StartTime // zero duration
	_, msg, ok := s.Create(p)
	assert.False(t, ok)
	assert.Equal(t, "End time must be after start time", msg)

	p = validParams()
	p.StartTime = "2024-01-01T09:00"
	p.EndTime = "2024-01-01T08:00"
	_, msg, ok = s.Create(p)
	assert.False(t, ok)
	assert.Equal(t, "End time must be after start time", msg)
}

func TestCreateRejectsOverTwentyFourHours(t *testing.T) {
	s, _ := newTestDowntimeStore(t)

	p := validParams()
	p.StartTime = "2024-01-01T08:00"
	p.EndTime = "2024-01-02T08:01"
	_, msg, ok := s.Create(p)
	assert.False(t, ok)
	assert.Equal(t, "Downtime duration cannot exceed 24 hours", msg)

	// Exactly 24 hours is allowed.
	p.EndTime = "2024-01-02T08:00"
	_, _, ok = s.Create(p)
	assert.True(t, ok)
}

func TestCreateInvalidDatetime(t *testing.T) {
	s, _ := newTestDowntimeStore(t)

	p := validParams()
	p.EndTime = "01/02/2024 8am"
	_, msg, ok := s.Create(p)
	assert.False(t, ok)
	assert.Equal(t, "Invalid datetime format", msg)
}

func TestCreateAutoDetectsShift(t *testing.T) {
	s, db := newTestDowntimeStore(t)
	seedStandardShifts(t, db)

	p := validParams()
	p.StartTime = "2024-01-01T23:30"
	p.EndTime = "2024-01-02T00:15"
	id := mustCreate(t, s, p)

	var entry models.Downtime
	require.NoError(t, db.First(&entry, id).Error)
	require.NotNil(t, entry.ShiftID)
	assert.Equal(t, uint(3), *entry.ShiftID, "23:30 belongs to the overnight shift")

	// An explicit shift id suppresses detection.
	p.ShiftID = uintPtr(1)
	id = mustCreate(t, s, p)
	var explicit models.Downtime
	require.NoError(t, db.First(&explicit, id).Error)
	require.NotNil(t, explicit.ShiftID)
	assert.Equal(t, uint(1), *explicit.ShiftID)
}

func TestUpdateNoChangesIsNoOpSuccess(t *testing.T) {
	s, db := newTestDowntimeStore(t)
	id := mustCreate(t, s, validParams())

	diff, msg, ok := s.Update(id, UpdatePatch{
		LineID:      Some(uint(1)),
		StartTime:   Some("2024-01-01T08:00"),
		ReasonNotes: Some("conveyor jam"),
	}, "editor")

	assert.True(t, ok)
	assert.Equal(t, "No changes detected", msg)
	assert.Empty(t, diff)

	var entry models.Downtime
	require.NoError(t, db.First(&entry, id).Error)
	assert.Nil(t, entry.ModifiedBy)
	assert.Nil(t, entry.ModifiedDate)
}

func TestUpdateNotesOnlyKeepsDuration(t *testing.T) {
	s, db := newTestDowntimeStore(t)
	id := mustCreate(t, s, validParams())

	diff, _, ok := s.Update(id, UpdatePatch{ReasonNotes: Some("bearing failure")}, "editor")
	require.True(t, ok)
	assert.Len(t, diff, 1)
	assert.Contains(t, diff, "reason_notes")

	var entry models.Downtime
	require.NoError(t, db.First(&entry, id).Error)
	assert.Equal(t, 45, entry.DurationMinutes)
	assert.Equal(t, "bearing failure", entry.ReasonNotes)
	require.NotNil(t, entry.ModifiedBy)
	assert.Equal(t, "editor", *entry.ModifiedBy)
}

func TestUpdateRetimeRecomputesDuration(t *testing.T) {
	s, db := newTestDowntimeStore(t)
	id := mustCreate(t, s, validParams())

	diff, msg, ok := s.Update(id, UpdatePatch{EndTime: Some("2024-01-01T09:30")}, "editor")
	require.True(t, ok)
	assert.Equal(t, "Downtime entry updated successfully", msg)
	assert.Contains(t, diff, "end_time")
	require.Contains(t, diff, "duration_minutes")
	assert.Equal(t, 45, diff["duration_minutes"].Old)
	assert.Equal(t, 90, diff["duration_minutes"].New)

	var entry models.Downtime
	require.NoError(t, db.First(&entry, id).Error)
	assert.Equal(t, 90, entry.DurationMinutes)
}

func TestUpdateRejectsOutOfBoundsRetimeAtomically(t *testing.T) {
	s, db := newTestDowntimeStore(t)
	id := mustCreate(t, s, validParams())

	// Pulling the start back two days would make the duration exceed 24h;
	// the whole update must abort, including the notes change.
	diff, msg, ok := s.Update(id, UpdatePatch{
		StartTime:   Some("2023-12-30T08:00"),
		ReasonNotes: Some("should not persist"),
	}, "editor")
	assert.False(t, ok)
	assert.Equal(t, "Downtime duration cannot exceed 24 hours", msg)
	assert.Nil(t, diff)

	var entry models.Downtime
	require.NoError(t, db.First(&entry, id).Error)
	assert.Equal(t, 45, entry.DurationMinutes)
	assert.Equal(t, "conveyor jam", entry.ReasonNotes)
	assert.Nil(t, entry.ModifiedBy)

	// Same for an inverted pair.
	_, msg, ok = s.Update(id, UpdatePatch{StartTime: Some("2024-01-01T10:00")}, "editor")
	assert.False(t, ok)
	assert.Equal(t, "End time must be after start time", msg)
}

func TestUpdateUnknownOrDeletedEntry(t *testing.T) {
	s, _ := newTestDowntimeStore(t)

	_, msg, ok := s.Update(9999, UpdatePatch{ReasonNotes: Some("x")}, "editor")
	assert.False(t, ok)
	assert.Equal(t, "Downtime entry not found", msg)

	id := mustCreate(t, s, validParams())
	_, ok = s.Delete(id, "editor")
	require.True(t, ok)

	_, msg, ok = s.Update(id, UpdatePatch{ReasonNotes: Some("x")}, "editor")
	assert.False(t, ok)
	assert.Equal(t, "Downtime entry not found", msg)
}

func TestUpdateCrewSizeValidatedWhenStaged(t *testing.T) {
	s, _ := newTestDowntimeStore(t)
	id := mustCreate(t, s, validParams())

	_, msg, ok := s.Update(id, UpdatePatch{CrewSize: Some(11)}, "editor")
	assert.False(t, ok)
	assert.Equal(t, "Crew size must be between 1 and 10", msg)

	diff, _, ok := s.Update(id, UpdatePatch{CrewSize: Some(10)}, "editor")
	require.True(t, ok)
	assert.Equal(t, 3, diff["crew_size"].Old)
	assert.Equal(t, 10, diff["crew_size"].New)
}

// Concurrent edits have no version check: the last writer wins, and each
// diff reflects the state that writer read. Documented behavior, not a
// defect.
func TestUpdateLastWriterWins(t *testing.T) {
	s, db := newTestDowntimeStore(t)
	id := mustCreate(t, s, validParams())

	_, _, ok := s.Update(id, UpdatePatch{CrewSize: Some(5)}, "first")
	require.True(t, ok)
	_, _, ok = s.Update(id, UpdatePatch{CrewSize: Some(8)}, "second")
	require.True(t, ok)

	var entry models.Downtime
	require.NoError(t, db.First(&entry, id).Error)
	assert.Equal(t, 8, entry.CrewSize)
	require.NotNil(t, entry.ModifiedBy)
	assert.Equal(t, "second", *entry.ModifiedBy)
}

func TestDeleteRestoreRoundTrip(t *testing.T) {
	s, _ := newTestDowntimeStore(t)
	id := mustCreate(t, s, validParams())
	require.NotNil(t, s.GetByID(id))

	msg, ok := s.Delete(id, "supervisor")
	require.True(t, ok)
	assert.Equal(t, "Downtime entry deleted", msg)
	assert.Nil(t, s.GetByID(id), "deleted entries are hidden from reads")

	// Deleting again is an idempotent success.
	_, ok = s.Delete(id, "supervisor")
	assert.True(t, ok)

	msg, ok = s.Restore(id, "supervisor")
	require.True(t, ok)
	assert.Equal(t, "Downtime entry restored", msg)

	restored := s.GetByID(id)
	require.NotNil(t, restored)
	assert.Equal(t, 45, restored.DurationMinutes)
	assert.Equal(t, "conveyor jam", restored.ReasonNotes)

	// Restoring a visible entry is a no-op success.
	_, ok = s.Restore(id, "supervisor")
	assert.True(t, ok)
}

func TestDeleteUnknownEntry(t *testing.T) {
	s, _ := newTestDowntimeStore(t)

	msg, ok := s.Delete(42, "supervisor")
	assert.False(t, ok)
	assert.Equal(t, "Downtime entry not found", msg)
}

// The full lifecycle: create 45 minutes, retime to 90, delete, restore.
func TestLifecycleScenario(t *testing.T) {
	s, _ := newTestDowntimeStore(t)

	id, msg, ok := s.Create(validParams())
	require.True(t, ok)
	assert.Equal(t, "Downtime entry created (45 minutes)", msg)

	diff, _, ok := s.Update(id, UpdatePatch{EndTime: Some("2024-01-01T09:30")}, "editor")
	require.True(t, ok)
	assert.Contains(t, diff, "end_time")
	assert.Equal(t, 45, diff["duration_minutes"].Old)
	assert.Equal(t, 90, diff["duration_minutes"].New)

	_, ok = s.Delete(id, "supervisor")
	require.True(t, ok)
	assert.Nil(t, s.GetByID(id))

	_, ok = s.Restore(id, "supervisor")
	require.True(t, ok)
	entry := s.GetByID(id)
	require.NotNil(t, entry)
	assert.Equal(t, 90, entry.DurationMinutes)
}

func TestReadPathsJoinAndAliasNotes(t *testing.T) {
	s, _ := newTestDowntimeStore(t)

	p := validParams()
	p.StartTime = isoAgo(2 * time.Hour)
	p.EndTime = isoAgo(1 * time.Hour)
	id := mustCreate(t, s, p)

	entry := s.GetByID(id)
	require.NotNil(t, entry)
	assert.Equal(t, "Line A", entry.LineName)
	assert.Equal(t, "North Plant", entry.FacilityName)
	assert.Equal(t, "Mechanical", entry.CategoryName)
	assert.Equal(t, "MECH", entry.CategoryCode)
	assert.Equal(t, uint(1), entry.FacilityID)
	assert.Equal(t, "conveyor jam", entry.Notes, "notes mirrors reason_notes")

	// The alias holds even when the source field is empty.
	p.ReasonNotes = ""
	p.StartTime = isoAgo(4 * time.Hour)
	p.EndTime = isoAgo(3 * time.Hour)
	id = mustCreate(t, s, p)
	entry = s.GetByID(id)
	require.NotNil(t, entry)
	assert.Equal(t, "", entry.Notes)
	assert.Equal(t, entry.ReasonNotes, entry.Notes)
}

func TestGetRecentFiltersAndOrders(t *testing.T) {
	s, _ := newTestDowntimeStore(t)

	older := validParams()
	older.StartTime = isoAgo(48 * time.Hour)
	older.EndTime = isoAgo(47 * time.Hour)
	mustCreate(t, s, older)

	newer := validParams()
	newer.LineID = 2
	newer.StartTime = isoAgo(2 * time.Hour)
	newer.EndTime = isoAgo(1 * time.Hour)
	mustCreate(t, s, newer)

	rows := s.GetRecent(7, nil, 100)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].StartTime.After(rows[1].StartTime), "newest first")

	rows = s.GetRecent(1, nil, 100)
	require.Len(t, rows, 1)
	assert.Equal(t, uint(2), rows[0].LineID)

	lineID := uintPtr(2)
	rows = s.GetRecent(7, lineID, 100)
	require.Len(t, rows, 1)
	assert.Equal(t, uint(2), rows[0].LineID)

	rows = s.GetRecent(7, nil, 1)
	assert.Len(t, rows, 1)
}

func TestGetByFacilityScopesThroughLine(t *testing.T) {
	s, _ := newTestDowntimeStore(t)

	north := validParams()
	north.StartTime = isoAgo(2 * time.Hour)
	north.EndTime = isoAgo(1 * time.Hour)
	mustCreate(t, s, north)

	south := validParams()
	south.LineID = 3 // belongs to South Plant
	south.StartTime = isoAgo(3 * time.Hour)
	south.EndTime = isoAgo(2 * time.Hour)
	mustCreate(t, s, south)

	rows := s.GetByFacility(2, 7, 100)
	require.Len(t, rows, 1)
	assert.Equal(t, "South Plant", rows[0].FacilityName)
	assert.Equal(t, "Line C", rows[0].LineName)
}

func TestGetByDateRange(t *testing.T) {
	s, _ := newTestDowntimeStore(t)

	p := validParams()
	mustCreate(t, s, p) // 2024-01-01 08:00-08:45

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := s.GetByDateRange(start, end, nil, nil)
	require.Len(t, rows, 1)

	// Entries only partially inside the window are excluded.
	rows = s.GetByDateRange(start, start.Add(30*time.Minute), nil, nil)
	assert.Empty(t, rows)

	facilityID := uintPtr(2)
	rows = s.GetByDateRange(start, end, facilityID, nil)
	assert.Empty(t, rows)
}
