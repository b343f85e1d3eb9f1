package data

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukit/admin-dashboard/internal/domain/model"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
	"github.com/edukit/admin-dashboard/internal/testutil"
)

func newAuditEntry(entity model.EntityKind, at time.Time) model.AuditEntry {
	return model.AuditEntry{
		RequestID:  uuid.NewString(),
		AdminID:    "admin-1",
		AdminEmail: "ops@example.com",
		Action:     model.AuditToggle,
		Entity:     entity,
		EntityID:   uuid.NewString(),
		FromState:  "active",
		ToState:    "blocked",
		CreatedAt:  at,
	}
}

func TestAuditRepo_CreateAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewAuditRepoWithTime(db, NewFixedTimeProvider(base))

	first, err := repo.Create(ctx, newAuditEntry(model.EntityLearners, base.Add(-time.Hour)))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := repo.Create(ctx, newAuditEntry(model.EntityCoupons, time.Time{}))
	require.NoError(t, err)
	assert.True(t, second.CreatedAt.Equal(base), "zero CreatedAt takes the repo clock")

	all, err := repo.List(ctx, model.AuditListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")
	assert.Equal(t, first.ID, all[1].ID)
	assert.Equal(t, model.EntityLearners, all[1].Entity)

	coupons, err := repo.List(ctx, model.AuditListOptions{Entity: model.EntityCoupons})
	require.NoError(t, err)
	require.Len(t, coupons, 1)
	assert.Equal(t, second.ID, coupons[0].ID)

	n, err := repo.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.Count(ctx, model.EntityLearners)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAuditRepo_DuplicateRequestIDIsConflict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := NewAuditRepo(db)

	entry := newAuditEntry(model.EntityCourses, time.Now().UTC())
	_, err := repo.Create(ctx, entry)
	require.NoError(t, err)

	entry.ID = ""
	_, err = repo.Create(ctx, entry)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, "request_id", apperrors.GetField(err))
}

func TestAuditRepo_CreateRequiresIdentifiers(t *testing.T) {
	repo := NewAuditRepo(nil)

	_, err := repo.Create(context.Background(), model.AuditEntry{EntityID: "x"})
	require.ErrorIs(t, err, ErrAuditRequestIDRequired)

	_, err = repo.Create(context.Background(), model.AuditEntry{RequestID: "r"})
	require.ErrorIs(t, err, ErrAuditEntityIDRequired)
}

func TestAuditRepo_DeleteBefore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	repo := NewAuditRepoWithTime(db, NewFixedTimeProvider(now))

	for _, age := range []time.Duration{100 * 24 * time.Hour, 95 * 24 * time.Hour, time.Hour} {
		_, err := repo.Create(ctx, newAuditEntry(model.EntityBusinesses, now.Add(-age)))
		require.NoError(t, err)
	}

	removed, err := repo.DeleteBefore(ctx, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	left, err := repo.List(ctx, model.AuditListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestAuditRepo_ListClampsPaging(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := NewAuditRepo(db)

	for range 3 {
		_, err := repo.Create(ctx, newAuditEntry(model.EntityInstructors, time.Now().UTC()))
		require.NoError(t, err)
	}

	page, err := repo.List(ctx, model.AuditListOptions{Limit: 2, Offset: -5})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := repo.List(ctx, model.AuditListOptions{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}
