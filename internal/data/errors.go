package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrAuditRequestIDRequired = errors.New("audit request_id is required")
	ErrAuditEntityIDRequired  = errors.New("audit entity_id is required")
)
