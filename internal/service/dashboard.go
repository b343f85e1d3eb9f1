package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edukit/admin-dashboard/internal/adapters/platformapi"
	"github.com/edukit/admin-dashboard/internal/core"
	"github.com/edukit/admin-dashboard/internal/domain/model"
)

// Tile is one entity's total on the dashboard. Err is set when the count
// could not be loaded; other tiles are unaffected.
type Tile struct {
	Entity model.EntityKind `json:"entity"`
	Total  int              `json:"total"`
	Err    error            `json:"-"`
}

// Counter reports how many rows of kind exist.
type Counter interface {
	Count(ctx context.Context, kind model.EntityKind) (int, error)
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(ctx context.Context, kind model.EntityKind) (int, error)

// Count calls f.
func (f CounterFunc) Count(ctx context.Context, kind model.EntityKind) (int, error) {
	return f(ctx, kind)
}

// DashboardServiceOptions groups dependencies for DashboardService.
type DashboardServiceOptions struct {
	Cache  core.CacheRepository // Optional: per-admin totals cache
	TTL    time.Duration        // Optional: cache lifetime; 0 disables caching
	Logger *slog.Logger         // Optional
}

// DashboardService loads entity totals concurrently.
type DashboardService struct {
	cache  core.CacheRepository
	ttl    time.Duration
	logger *slog.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(opts DashboardServiceOptions) *DashboardService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{cache: opts.Cache, ttl: opts.TTL, logger: logger.With("component", "dashboard_service")}
}

// Load returns a tile per entity in model.AllEntities order. cacheKey scopes
// cached totals, normally to the admin session; an empty key skips the cache.
func (s *DashboardService) Load(ctx context.Context, cacheKey string, counter Counter) []Tile {
	if tiles, ok := s.cached(ctx, cacheKey); ok {
		return tiles
	}

	kinds := model.AllEntities()
	tiles := make([]Tile, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			n, err := counter.Count(gctx, kind)
			tiles[i] = Tile{Entity: kind, Total: n, Err: err}
			// Failures stay on their tile so one entity cannot blank the page.
			return nil
		})
	}
	_ = g.Wait()

	failed := false
	for _, t := range tiles {
		if t.Err != nil {
			failed = true
			s.logger.WarnContext(ctx, "dashboard count failed", "entity", t.Entity, "error", t.Err)
		}
	}
	if !failed {
		s.store(ctx, cacheKey, tiles)
	}
	return tiles
}

// Invalidate drops cached totals for cacheKey, e.g. after a mutation.
func (s *DashboardService) Invalidate(ctx context.Context, cacheKey string) {
	if s.cache == nil || cacheKey == "" {
		return
	}
	if _, err := s.cache.Delete(ctx, dashboardKey(cacheKey)); err != nil {
		s.logger.WarnContext(ctx, "dashboard cache invalidate failed", "error", err)
	}
}

func (s *DashboardService) cached(ctx context.Context, cacheKey string) ([]Tile, bool) {
	if s.cache == nil || s.ttl <= 0 || cacheKey == "" {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, dashboardKey(cacheKey))
	if err != nil {
		s.logger.WarnContext(ctx, "dashboard cache read failed", "error", err)
		return nil, false
	}
	if raw == nil {
		return nil, false
	}
	var tiles []Tile
	if err := json.Unmarshal(raw, &tiles); err != nil {
		return nil, false
	}
	return tiles, true
}

func (s *DashboardService) store(ctx context.Context, cacheKey string, tiles []Tile) {
	if s.cache == nil || s.ttl <= 0 || cacheKey == "" {
		return
	}
	raw, err := json.Marshal(tiles)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardKey(cacheKey), raw, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "dashboard cache write failed", "error", err)
	}
}

func dashboardKey(scope string) string { return "dashboard:" + scope }

// PlatformCounter counts rows by requesting one-row pages: with a limit of 1
// the platform's page count equals the row count.
func PlatformCounter(c *platformapi.Client) Counter {
	return CounterFunc(func(ctx context.Context, kind model.EntityKind) (int, error) {
		q := model.ListQuery{Page: 1, Limit: 1, Status: model.StatusAll}
		switch kind {
		case model.EntityLearners:
			return total[model.Learner](ctx, c, kind, q)
		case model.EntityInstructors:
			return total[model.Instructor](ctx, c, kind, q)
		case model.EntityBusinesses:
			return total[model.Business](ctx, c, kind, q)
		case model.EntityCategories:
			return total[model.Category](ctx, c, kind, q)
		case model.EntityCoupons:
			return total[model.Coupon](ctx, c, kind, q)
		case model.EntityCourses:
			return total[model.Course](ctx, c, kind, q)
		default:
			return 0, errors.New("unknown entity " + string(kind))
		}
	})
}

func total[R model.Row](ctx context.Context, c *platformapi.Client, kind model.EntityKind, q model.ListQuery) (int, error) {
	res, err := platformapi.List[R](ctx, c, kind, q)
	if err != nil {
		return 0, err
	}
	if len(res.Rows) == 0 {
		return 0, nil
	}
	return res.TotalPages, nil
}
