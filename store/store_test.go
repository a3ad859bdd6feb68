package store

import (
	"testing"
	"time"

	"downtime/database"
	"downtime/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestDowntimeStore(t *testing.T) (*DowntimeStore, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	seedReferenceData(t, db)
	return NewDowntimeStore(db, zerolog.Nop()), db
}

// seedReferenceData inserts two facilities, three lines and three
// categories. Shifts are seeded per test; detection order matters there.
func seedReferenceData(t *testing.T, db *gorm.DB) {
	t.Helper()

	facilities := []models.Facility{
		{ID: 1, Name: "North Plant", Code: "NP", IsActive: true},
		{ID: 2, Name: "South Plant", Code: "SP", IsActive: true},
	}
	require.NoError(t, db.Create(&facilities).Error)

	lines := []models.ProductionLine{
		{ID: 1, FacilityID: 1, Name: "Line A", Code: "LA", IsActive: true},
		{ID: 2, FacilityID: 1, Name: "Line B", Code: "LB", IsActive: true},
		{ID: 3, FacilityID: 2, Name: "Line C", Code: "LC", IsActive: true},
	}
	require.NoError(t, db.Create(&lines).Error)

	categories := []models.DowntimeCategory{
		{ID: 1, Name: "Mechanical", Code: "MECH", IsActive: true},
		{ID: 2, Name: "Electrical", Code: "ELEC", IsActive: true},
		{ID: 3, Name: "Changeover", Code: "CHG", IsActive: true},
	}
	require.NoError(t, db.Create(&categories).Error)
}

func seedStandardShifts(t *testing.T, db *gorm.DB) {
	t.Helper()

	shifts := []models.Shift{
		{ID: 1, Name: "Day", StartTime: "06:00", EndTime: "14:00", IsActive: true},
		{ID: 2, Name: "Evening", StartTime: "14:00", EndTime: "22:00", IsActive: true},
		{ID: 3, Name: "Night", StartTime: "22:00", EndTime: "06:00", IsOvernight: true, IsActive: true},
	}
	require.NoError(t, db.Create(&shifts).Error)
}

// mustCreate inserts a valid entry and returns its id.
func mustCreate(t *testing.T, s *DowntimeStore, p CreateParams) uint {
	t.Helper()
	id, msg, ok := s.Create(p)
	require.True(t, ok, "create failed: %s", msg)
	require.NotZero(t, id)
	return id
}

func validParams() CreateParams {
	return CreateParams{
		LineID:      1,
		CategoryID:  1,
		StartTime:   "2024-01-01T08:00",
		EndTime:     "2024-01-01T08:45",
		CrewSize:    3,
		ReasonNotes: "conveyor jam",
		EnteredBy:   "jsmith",
	}
}

func uintPtr(v uint) *uint { return &v }

func isoAgo(d time.Duration) string {
	return time.Now().Add(-d).UTC().Format(time.RFC3339)
}
