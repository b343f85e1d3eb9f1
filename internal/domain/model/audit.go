package model

import "time"

// AuditAction names a state-changing admin operation.
type AuditAction string

const (
	AuditToggle       AuditAction = "toggle"
	AuditVerification AuditAction = "verification"
	AuditCreate       AuditAction = "create"
	AuditUpdate       AuditAction = "update"
)

// AuditEntry records one successful mutation.
type AuditEntry struct {
	ID         string      `json:"id"          db:"id"`
	RequestID  string      `json:"request_id"  db:"request_id"`
	AdminID    string      `json:"admin_id"    db:"admin_id"`
	AdminEmail string      `json:"admin_email" db:"admin_email"`
	Action     AuditAction `json:"action"      db:"action"`
	Entity     EntityKind  `json:"entity"      db:"entity"`
	EntityID   string      `json:"entity_id"   db:"entity_id"`
	FromState  string      `json:"from_state"  db:"from_state"`
	ToState    string      `json:"to_state"    db:"to_state"`
	Remarks    string      `json:"remarks"     db:"remarks"`
	CreatedAt  time.Time   `json:"created_at"  db:"created_at"`
}

// AuditListOptions pages through the audit trail, newest first.
type AuditListOptions struct {
	Limit  int
	Offset int
	Entity EntityKind // empty for all
}
