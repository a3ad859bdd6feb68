package store

import (
	"fmt"
	"time"

	"downtime/models"

	"gorm.io/gorm"
)

// DetectShift returns the id of the first active shift whose time-of-day
// window contains t, in the order shifts were configured. Overnight shifts
// wrap midnight, so 22:00-06:00 contains both 23:30 and 05:00. Returns nil
// when no active shift matches. Overlapping shift configurations are not
// resolved here; first match wins.
func (s *DowntimeStore) DetectShift(t time.Time) *uint {
	var shifts []models.Shift
	err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		return tx.Where("is_active = ?", true).Order("id").Find(&shifts).Error
	})
	if err != nil {
		return nil
	}

	tod := t.Hour()*60 + t.Minute()
	for _, shift := range shifts {
		start, err := parseClock(shift.StartTime)
		if err != nil {
			s.log.Warn().Uint("shift_id", shift.ID).Str("start_time", shift.StartTime).Msg("malformed shift start time")
			continue
		}
		end, err := parseClock(shift.EndTime)
		if err != nil {
			s.log.Warn().Uint("shift_id", shift.ID).Str("end_time", shift.EndTime).Msg("malformed shift end time")
			continue
		}

		if shift.IsOvernight {
			if tod >= start || tod < end {
				return &shift.ID
			}
		} else if tod >= start && tod < end {
			return &shift.ID
		}
	}
	return nil
}

// parseClock converts a "HH:MM" or "HH:MM:SS" clock string into minutes
// since midnight.
func parseClock(s string) (int, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("unrecognized clock time %q", s)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}
