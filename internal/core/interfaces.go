// Package core declares the repository ports the service layer depends on.
// The data layer provides the implementations.
package core

import (
	"context"
	"time"

	"github.com/edukit/admin-dashboard/internal/domain/model"
)

// AuditRepository persists the admin audit trail.
type AuditRepository interface {
	Create(ctx context.Context, entry model.AuditEntry) (model.AuditEntry, error)
	List(ctx context.Context, opts model.AuditListOptions) ([]model.AuditEntry, error)
	Count(ctx context.Context, entity model.EntityKind) (int, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CacheRepository defines the caching operations used for short-lived
// dashboard data and cross-replica locks.
type CacheRepository interface {
	// Set stores a value with the given TTL. A TTL of 0 never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns nil when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete reports whether a key was removed.
	Delete(ctx context.Context, key string) (bool, error)
	// SetIfNotExists atomically sets a key only if it is absent.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Health(ctx context.Context) error
}
