package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/edukit/admin-dashboard/internal/domain/auth"
	"github.com/edukit/admin-dashboard/internal/domain/model"
	"github.com/edukit/admin-dashboard/internal/mocks"
)

func staticCounter(totals map[model.EntityKind]int, failing ...model.EntityKind) Counter {
	return CounterFunc(func(_ context.Context, kind model.EntityKind) (int, error) {
		for _, f := range failing {
			if f == kind {
				return 0, errors.New(string(kind) + " unavailable")
			}
		}
		return totals[kind], nil
	})
}

func TestDashboardService_LoadReturnsTilePerEntity(t *testing.T) {
	svc := NewDashboardService(DashboardServiceOptions{})

	tiles := svc.Load(context.Background(), "", staticCounter(map[model.EntityKind]int{
		model.EntityLearners: 120,
		model.EntityCourses:  8,
	}))

	require.Len(t, tiles, len(model.AllEntities()))
	for i, kind := range model.AllEntities() {
		assert.Equal(t, kind, tiles[i].Entity)
		assert.NoError(t, tiles[i].Err)
	}
	assert.Equal(t, 120, tiles[0].Total)
	assert.Equal(t, 8, tiles[5].Total)
}

func TestDashboardService_OneFailureLeavesOtherTiles(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc := NewDashboardService(DashboardServiceOptions{Cache: cache, TTL: time.Minute})

	cache.EXPECT().Get(gomock.Any(), "dashboard:s1").Return(nil, nil)
	// Partial results are never cached, so no Set is expected.

	tiles := svc.Load(context.Background(), "s1", staticCounter(
		map[model.EntityKind]int{model.EntityLearners: 3},
		model.EntityCoupons,
	))

	for _, tile := range tiles {
		if tile.Entity == model.EntityCoupons {
			assert.Error(t, tile.Err)
			continue
		}
		assert.NoError(t, tile.Err)
	}
	assert.Equal(t, 3, tiles[0].Total)
}

func TestDashboardService_CachesCompleteResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc := NewDashboardService(DashboardServiceOptions{Cache: cache, TTL: time.Minute})

	var stored []byte
	gomock.InOrder(
		cache.EXPECT().Get(gomock.Any(), "dashboard:s1").Return(nil, nil),
		cache.EXPECT().Set(gomock.Any(), "dashboard:s1", gomock.Any(), time.Minute).
			DoAndReturn(func(_ context.Context, _ string, v []byte, _ time.Duration) error {
				stored = v
				return nil
			}),
	)
	tiles := svc.Load(context.Background(), "s1", staticCounter(map[model.EntityKind]int{model.EntityLearners: 4}))
	require.NotNil(t, stored)

	var decoded []Tile
	require.NoError(t, json.Unmarshal(stored, &decoded))
	assert.Equal(t, tiles, decoded)

	cache.EXPECT().Get(gomock.Any(), "dashboard:s1").Return(stored, nil)
	calls := 0
	cached := svc.Load(context.Background(), "s1", CounterFunc(func(context.Context, model.EntityKind) (int, error) {
		calls++
		return 0, nil
	}))
	assert.Zero(t, calls)
	assert.Equal(t, 4, cached[0].Total)
}

func TestDashboardService_Invalidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc := NewDashboardService(DashboardServiceOptions{Cache: cache, TTL: time.Minute})

	cache.EXPECT().Delete(gomock.Any(), "dashboard:s1").Return(true, nil)
	svc.Invalidate(context.Background(), "s1")

	// Empty scope is a no-op.
	svc.Invalidate(context.Background(), "")
}

func TestPlatformCounter(t *testing.T) {
	p := newFakePlatformAPI()
	p.failing["instructors"] = http.StatusBadGateway
	f := newFakePlatformFactory(t, p)
	sess, err := f.NewSession(domainauth.Tokens{AccessToken: "tok-1"})
	require.NoError(t, err)
	counter := PlatformCounter(f.NewClient(sess, platformHooksNoop()))

	n, err := counter.Count(context.Background(), model.EntityLearners)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = counter.Count(context.Background(), model.EntityBusinesses)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = counter.Count(context.Background(), model.EntityInstructors)
	require.Error(t, err)

	_, err = counter.Count(context.Background(), "staff")
	require.Error(t, err)
}
