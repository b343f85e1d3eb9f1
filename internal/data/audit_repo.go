package data

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edukit/admin-dashboard/internal/core"
	"github.com/edukit/admin-dashboard/internal/data/pgxutil"
	"github.com/edukit/admin-dashboard/internal/domain/model"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
)

// AuditRepo stores the admin audit trail in Postgres.
type AuditRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ core.AuditRepository = (*AuditRepo)(nil)

// NewAuditRepo creates a new AuditRepo with the given database connection.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewAuditRepoWithTime creates an AuditRepo with a pinned clock.
func NewAuditRepoWithTime(db *sql.DB, tp TimeProvider) *AuditRepo {
	return &AuditRepo{DB: db, timeProvider: tp}
}

const auditColumns = `id, request_id, admin_id, admin_email, action, entity, entity_id, from_state, to_state, remarks, created_at`

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// Create inserts entry. A repeated request_id maps to a Conflict error.
func (r *AuditRepo) Create(ctx context.Context, entry model.AuditEntry) (model.AuditEntry, error) {
	if strings.TrimSpace(entry.RequestID) == "" {
		return model.AuditEntry{}, ErrAuditRequestIDRequired
	}
	if strings.TrimSpace(entry.EntityID) == "" {
		return model.AuditEntry{}, ErrAuditEntityIDRequired
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.timeProvider.Now().UTC()
	}

	query := `
		INSERT INTO audit_log (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + auditColumns

	var out model.AuditEntry
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query,
			entry.ID, entry.RequestID, entry.AdminID, entry.AdminEmail, entry.Action,
			entry.Entity, entry.EntityID, entry.FromState, entry.ToState, entry.Remarks, entry.CreatedAt,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.AuditEntry])
		return err
	})
	if err != nil {
		return model.AuditEntry{}, apperrors.MapDBError(err)
	}
	return out, nil
}

// List returns entries newest first.
func (r *AuditRepo) List(ctx context.Context, opts model.AuditListOptions) ([]model.AuditEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	limit = min(limit, maxAuditLimit)
	offset := max(opts.Offset, 0)

	where, args := auditWhere(opts.Entity)
	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT %s FROM audit_log %s ORDER BY created_at DESC, id DESC LIMIT $%s OFFSET $%s`,
		auditColumns, where, strconv.Itoa(len(args)-1), strconv.Itoa(len(args)),
	)

	var entries []model.AuditEntry
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		entries, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.AuditEntry])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", apperrors.MapDBError(err))
	}
	return entries, nil
}

// Count returns the number of entries, optionally for one entity.
func (r *AuditRepo) Count(ctx context.Context, entity model.EntityKind) (int, error) {
	where, args := auditWhere(entity)
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM audit_log `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", apperrors.MapDBError(err))
	}
	return n, nil
}

// DeleteBefore prunes entries created before cutoff and reports how many were removed.
func (r *AuditRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune audit entries: %w", apperrors.MapDBError(err))
	}
	return res.RowsAffected()
}

func auditWhere(entity model.EntityKind) (string, []any) {
	if entity == "" {
		return "", nil
	}
	return "WHERE entity = $1", []any{string(entity)}
}
