package models

import (
	"time"
)

// AuditEntry is one immutable row of change history. Changes holds the
// JSON-serialized field diff produced by an update; it is empty for
// actions that carry no diff (delete, restore).
type AuditEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TableName  string    `gorm:"not null;size:100;index:idx_audit_record" json:"table_name"`
	RecordID   uint      `gorm:"not null;index:idx_audit_record" json:"record_id"`
	ActionType string    `gorm:"not null;size:20" json:"action_type"`
	ActionBy   string    `gorm:"not null;size:100" json:"action_by"`
	ActionDate time.Time `gorm:"not null" json:"action_date"`
	Changes    string    `gorm:"type:text" json:"changes,omitempty"`
	Note       string    `gorm:"size:500" json:"note,omitempty"`
}
