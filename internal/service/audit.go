package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/edukit/admin-dashboard/config"
	"github.com/edukit/admin-dashboard/internal/core"
	"github.com/edukit/admin-dashboard/internal/domain/model"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
	obserrors "github.com/edukit/admin-dashboard/internal/observability/errors"
	"github.com/edukit/admin-dashboard/internal/observability/statsd"
	"github.com/edukit/admin-dashboard/internal/service/listing"
)

const auditPruneLockKey = "audit-pruner:lock"

// AuditServiceOptions groups dependencies for AuditService.
type AuditServiceOptions struct {
	Repo    core.AuditRepository // Required: audit repository
	Locks   core.CacheRepository // Optional: cross-replica prune lock
	LockTTL time.Duration        // Optional: prune lock lifetime
	Config  config.AuditConfig   // Required: audit configuration
	Now     func() time.Time     // Optional: clock
	Logger  *slog.Logger         // Optional: structured logger
	Metrics statsd.Sink          // Optional: metrics sink (StatsD-compatible)
}

// AuditService records admin mutations and prunes old entries.
type AuditService struct {
	repo    core.AuditRepository
	locks   core.CacheRepository
	lockTTL time.Duration
	config  config.AuditConfig
	now     func() time.Time
	logger  *slog.Logger
	metrics statsd.Sink
}

var _ listing.Recorder = (*AuditService)(nil)

// NewAuditService constructs a new AuditService.
func NewAuditService(opts AuditServiceOptions) (*AuditService, error) {
	if opts.Repo == nil {
		return nil, errors.New("AuditRepository is required")
	}
	cfg := opts.Config
	cfg.Sanitize()
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lockTTL := opts.LockTTL
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	return &AuditService{
		repo:    opts.Repo,
		locks:   opts.Locks,
		lockTTL: lockTTL,
		config:  cfg,
		now:     now,
		logger:  logger.With("component", "audit_service"),
		metrics: opts.Metrics,
	}, nil
}

// Record stores entry. Failures are logged and never reach the caller; the
// write survives cancellation of ctx so a finished mutation is still audited.
func (s *AuditService) Record(ctx context.Context, entry model.AuditEntry) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.WriteTimeout)
	defer cancel()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	_, err := s.repo.Create(wctx, entry)
	s.emit("audit.write", err)
	switch {
	case err == nil:
	case apperrors.IsConflict(err):
		s.logger.WarnContext(ctx, "duplicate audit submission ignored",
			"request_id", entry.RequestID, "entity", entry.Entity, "entity_id", entry.EntityID)
	default:
		s.logger.ErrorContext(ctx, "audit write failed",
			"request_id", entry.RequestID, "entity", entry.Entity, "entity_id", entry.EntityID, "error", err)
	}
}

// AuditPage is one page of the audit trail.
type AuditPage struct {
	Entries    []model.AuditEntry
	Page       int
	TotalPages int
	Entity     model.EntityKind
}

// List returns page (1-based) of the audit trail, newest first.
func (s *AuditService) List(ctx context.Context, page int, entity model.EntityKind) (AuditPage, error) {
	if page < 1 {
		return AuditPage{}, apperrors.ValidationField("page", "page must be at least 1")
	}
	if entity != "" && !entity.Valid() {
		return AuditPage{}, apperrors.ValidationField("entity", "unknown entity: "+string(entity))
	}
	size := s.config.PageSize

	total, err := s.repo.Count(ctx, entity)
	if err != nil {
		return AuditPage{}, err
	}
	entries, err := s.repo.List(ctx, model.AuditListOptions{
		Limit:  size,
		Offset: (page - 1) * size,
		Entity: entity,
	})
	if err != nil {
		return AuditPage{}, err
	}
	return AuditPage{
		Entries:    entries,
		Page:       page,
		TotalPages: model.NormalizeTotalPages((total + size - 1) / size),
		Entity:     entity,
	}, nil
}

// Prune deletes entries older than the retention window. When a lock store is
// configured only one replica prunes per lock period; the others report 0.
func (s *AuditService) Prune(ctx context.Context) (int64, error) {
	if s.locks != nil {
		acquired, err := s.locks.SetIfNotExists(ctx, auditPruneLockKey, []byte(s.now().UTC().Format(time.RFC3339)), s.lockTTL)
		if err != nil {
			return 0, fmt.Errorf("acquire prune lock: %w", err)
		}
		if !acquired {
			s.logger.DebugContext(ctx, "audit prune skipped; another replica holds the lock")
			return 0, nil
		}
	}

	cutoff := s.now().Add(-s.config.Retention)
	n, err := s.repo.DeleteBefore(ctx, cutoff)
	s.emit("audit.prune", err)
	if err != nil {
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.Gauge("audit.pruned", float64(n), nil)
	}
	return n, nil
}

// Run prunes at the configured interval until ctx is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *AuditService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting audit pruner",
		"interval", s.config.PruneInterval, "retention", s.config.Retention)

	ticker := time.NewTicker(s.config.PruneInterval)
	defer ticker.Stop()

	s.pruneOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "audit pruner stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			s.pruneOnce(ctx)
		}
	}
}

func (s *AuditService) pruneOnce(ctx context.Context) {
	n, err := s.Prune(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.ErrorContext(ctx, "audit prune failed", "error", err, "error_class", obserrors.Classify(err))
		return
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "pruned audit entries", "count", n)
	}
}

func (s *AuditService) emit(name string, err error) {
	if s.metrics == nil {
		return
	}
	tags := map[string]string{"result": "success"}
	if err != nil {
		tags["result"] = "error"
		tags["error_class"] = obserrors.Classify(err)
	}
	s.metrics.Count(name, 1, tags)
}
