package store

import (
	"encoding/json"
	"time"

	"downtime/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Audit action types.
const (
	ActionInsert  = "INSERT"
	ActionUpdate  = "UPDATE"
	ActionDelete  = "DELETE"
	ActionRestore = "RESTORE"
)

// AuditStore persists immutable change history. It is fed by the caller
// after a successful create/update/delete/restore; the record store never
// writes audit rows itself.
type AuditStore struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewAuditStore(db *gorm.DB, log zerolog.Logger) *AuditStore {
	return &AuditStore{db: db, log: log.With().Str("store", "audit").Logger()}
}

// Record appends one history row. A nil or empty change set is stored as
// an empty diff, which is normal for delete and restore actions.
func (s *AuditStore) Record(tableName string, recordID uint, actionType, actingUser string, changes ChangeSet, note string) bool {
	var serialized string
	if len(changes) > 0 {
		data, err := json.Marshal(changes)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to serialize change diff")
			return false
		}
		serialized = string(data)
	}

	entry := models.AuditEntry{
		TableName:  tableName,
		RecordID:   recordID,
		ActionType: actionType,
		ActionBy:   actingUser,
		ActionDate: time.Now(),
		Changes:    serialized,
		Note:       note,
	}

	err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		return tx.Create(&entry).Error
	})
	return err == nil
}

// GetByRecord returns the history of one record, newest first.
func (s *AuditStore) GetByRecord(tableName string, recordID uint) []models.AuditEntry {
	var entries []models.AuditEntry
	err := runWithRetry(s.db, s.log, func(tx *gorm.DB) error {
		return tx.Where("table_name = ? AND record_id = ?", tableName, recordID).
			Order("action_date DESC, id DESC").
			Find(&entries).Error
	})
	if err != nil {
		return []models.AuditEntry{}
	}
	return entries
}
