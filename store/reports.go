package store

import (
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ReportStore is the read-only reporting and aggregation engine. Every
// query tolerates an empty result set, returning zeroed aggregates or
// empty slices, and degrades the same way on infrastructure failure.
type ReportStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewReportStore(db *gorm.DB, log zerolog.Logger) *ReportStore {
	return &ReportStore{db: db, log: log.With().Str("store", "reports").Logger()}
}

// Grouping dimensions accepted by GetSummary. Anything else falls back to
// category; the fallback is defined behavior, not an error.
const (
	GroupByCategory = "category"
	GroupByFacility = "facility"
	GroupByLine     = "line"
)

// SummaryRow is one group's downtime statistics. FacilityName is only
// populated when grouping by line, to disambiguate same-named lines.
type SummaryRow struct {
	Grouping     string  `json:"grouping"`
	FacilityName string  `json:"facility_name,omitempty"`
	EventCount   int     `json:"event_count"`
	TotalMinutes int     `json:"total_minutes"`
	AvgMinutes   float64 `json:"avg_minutes"`
	MinMinutes   int     `json:"min_minutes"`
	MaxMinutes   int     `json:"max_minutes"`
}

// GetSummary aggregates non-deleted entries fully inside [start, end] by
// the requested dimension, ordered by total minutes descending.
func (s *ReportStore) GetSummary(start, end time.Time, groupBy string) []SummaryRow {
	const aggregates = `COUNT(*) AS event_count,
		SUM(d.duration_minutes) AS total_minutes,
		AVG(d.duration_minutes) AS avg_minutes,
		MIN(d.duration_minutes) AS min_minutes,
		MAX(d.duration_minutes) AS max_minutes`

	var rows []SummaryRow
	err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		q := tx.Table("downtimes d").
			Where("d.start_time >= ? AND d.end_time <= ? AND d.is_deleted = ?", start, end, false)

		switch groupBy {
		case GroupByFacility:
			q = q.Select("f.name AS grouping, " + aggregates).
				Joins("JOIN production_lines pl ON pl.id = d.line_id").
				Joins("JOIN facilities f ON f.id = pl.facility_id").
				Group("f.name")
		case GroupByLine:
			q = q.Select("pl.name AS grouping, f.name AS facility_name, " + aggregates).
				Joins("JOIN production_lines pl ON pl.id = d.line_id").
				Joins("JOIN facilities f ON f.id = pl.facility_id").
				Group("pl.name, f.name")
		default:
			q = q.Select("c.name AS grouping, " + aggregates).
				Joins("JOIN downtime_categories c ON c.id = d.category_id").
				Group("c.name")
		}

		return q.Order("total_minutes DESC").Scan(&rows).Error
	})
	if err != nil || rows == nil {
		return []SummaryRow{}
	}
	return rows
}

// IssueRow is one category's standing in a top-issue ranking.
type IssueRow struct {
	CategoryName    string `json:"category_name"`
	OccurrenceCount int    `json:"occurrence_count"`
	TotalMinutes    int    `json:"total_minutes"`
}

// TopIssues holds two independently-ranked category lists over the same
// window. The rankings may disagree in both order and membership.
type TopIssues struct {
	ByFrequency []IssueRow `json:"by_frequency"`
	ByDuration  []IssueRow `json:"by_duration"`
}

// GetTopIssues ranks categories over the trailing window of whole days,
// once by occurrence count and once by total minutes.
func (s *ReportStore) GetTopIssues(days, limit int) TopIssues {
	since := time.Now().AddDate(0, 0, -days)

	rank := func(order string) []IssueRow {
		var rows []IssueRow
		err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
			return tx.Table("downtimes d").
				Select(`c.name AS category_name,
					COUNT(*) AS occurrence_count,
					SUM(d.duration_minutes) AS total_minutes`).
				Joins("JOIN downtime_categories c ON c.id = d.category_id").
				Where("d.start_time >= ? AND d.is_deleted = ?", since, false).
				Group("c.name").
				Order(order).
				Limit(limit).
				Scan(&rows).Error
		})
		if err != nil || rows == nil {
			return []IssueRow{}
		}
		return rows
	}

	return TopIssues{
		ByFrequency: rank("occurrence_count DESC"),
		ByDuration:  rank("total_minutes DESC"),
	}
}

// DailyPoint is one day of the dashboard time series.
type DailyPoint struct {
	Date       string `json:"date"`
	EventCount int    `json:"event_count"`
	MinutesSum int    `json:"minutes_sum"`
}

// Statistics are the dashboard totals plus a daily series for charting.
// Empty result sets yield zeroes, never nulls.
type Statistics struct {
	TotalEvents  int          `json:"total_events"`
	TotalMinutes int          `json:"total_minutes"`
	AvgMinutes   float64      `json:"avg_minutes"`
	Daily        []DailyPoint `json:"daily_data"`
}

// GetStatistics aggregates the trailing window of whole days, optionally
// scoped to one facility.
func (s *ReportStore) GetStatistics(facilityID *uint, days int) Statistics {
	since := time.Now().AddDate(0, 0, -days)

	scoped := func() *gorm.DB {
		q := s.db.Table("downtimes d").
			Joins("JOIN production_lines pl ON pl.id = d.line_id").
			Where("d.start_time >= ? AND d.is_deleted = ?", since, false)
		if facilityID != nil {
			q = q.Where("pl.facility_id = ?", *facilityID)
		}
		return q
	}

	// Scan target without the Daily slice, which is not a column.
	var totals struct {
		TotalEvents  int
		TotalMinutes int
		AvgMinutes   float64
	}
	err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		return scoped().
			Select(`COUNT(*) AS total_events,
				COALESCE(SUM(d.duration_minutes), 0) AS total_minutes,
				COALESCE(AVG(d.duration_minutes), 0) AS avg_minutes`).
			Scan(&totals).Error
	})
	if err != nil {
		totals.TotalEvents, totals.TotalMinutes, totals.AvgMinutes = 0, 0, 0
	}
	stats := Statistics{
		TotalEvents:  totals.TotalEvents,
		TotalMinutes: totals.TotalMinutes,
		AvgMinutes:   totals.AvgMinutes,
	}

	bucket := s.dateBucket()
	var daily []DailyPoint
	err = runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		return scoped().
			Select(bucket + ` AS date, COUNT(*) AS event_count, SUM(d.duration_minutes) AS minutes_sum`).
			Group(bucket).
			Order("date").
			Scan(&daily).Error
	})
	if err != nil || daily == nil {
		daily = []DailyPoint{}
	}
	stats.Daily = daily

	return stats
}

// dateBucket returns the dialect-specific SQL fragment that truncates the
// start time to its calendar date.
func (s *ReportStore) dateBucket() string {
	switch s.db.Dialector.Name() {
	case "sqlite":
		return "date(d.start_time)"
	case "postgres":
		return "CAST(d.start_time AS DATE)"
	default:
		return "DATE(d.start_time)"
	}
}
