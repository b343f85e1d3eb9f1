// Package listing holds the per-admin state behind every list screen: the
// paginated, searched and filtered rows of one entity, the debounced search
// box feeding it, and the mutators that patch rows after a state change.
package listing

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/edukit/admin-dashboard/internal/domain/model"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
	"github.com/edukit/admin-dashboard/internal/observability/metrics"
	"github.com/edukit/admin-dashboard/internal/observability/statsd"
)

// FetchFunc loads one page of rows for q.
type FetchFunc[R model.Row] func(ctx context.Context, q model.ListQuery) (model.ListResult[R], error)

// Options configures a Controller.
type Options struct {
	Entity  model.EntityKind // Used for logs and metrics
	Limit   int              // Optional: page size, defaults to model.DefaultPageSize
	Logger  *slog.Logger     // Optional: structured logger
	Metrics statsd.Sink      // Optional: metrics sink
	Now     func() time.Time // Optional: clock for staleness checks
}

// State is a point-in-time copy of a controller's observable fields.
type State[R model.Row] struct {
	Rows               []R
	Page               int
	TotalPages         int
	Limit              int
	Search             string
	Status             model.StatusFilter
	VerificationStatus model.VerificationStatus
	Loading            bool
	Err                error
	Loaded             bool
	LoadedAt           time.Time
}

// Query rebuilds the query the state was fetched with.
func (s State[R]) Query() model.ListQuery {
	return model.ListQuery{
		Page:               s.Page,
		Limit:              s.Limit,
		Search:             s.Search,
		Status:             s.Status,
		VerificationStatus: s.VerificationStatus,
	}
}

// Controller owns the rows of one list screen.
//
// Every change to the query issues exactly one asynchronous fetch tagged with
// a monotonically increasing sequence number. A completion is applied only
// when its sequence is still the latest issued; older results are dropped and
// their requests cancelled.
type Controller[R model.Row] struct {
	fetch   FetchFunc[R]
	entity  model.EntityKind
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time

	base     context.Context
	shutdown context.CancelFunc

	mu         sync.Mutex
	query      model.ListQuery
	rows       []R
	totalPages int
	loading    bool
	err        error
	loaded     bool
	loadedAt   time.Time
	seq        uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewController creates a controller positioned on page 1 with no filters.
// Nothing is fetched until the first Refresh or setter call.
func NewController[R model.Row](fetch FetchFunc[R], opts Options) (*Controller[R], error) {
	if fetch == nil {
		return nil, errors.New("fetch function is required")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = model.DefaultPageSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	base, shutdown := context.WithCancel(context.Background())
	done := make(chan struct{})
	close(done)

	return &Controller[R]{
		fetch:      fetch,
		entity:     opts.Entity,
		logger:     logger.With("component", "list_controller", "entity", string(opts.Entity)),
		metrics:    opts.Metrics,
		now:        now,
		base:       base,
		shutdown:   shutdown,
		query:      model.ListQuery{Page: 1, Limit: limit, Status: model.StatusAll},
		totalPages: 1,
		done:       done,
	}, nil
}

// Snapshot returns a copy of the current state. Rows are copied.
func (c *Controller[R]) Snapshot() State[R] {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := make([]R, len(c.rows))
	copy(rows, c.rows)
	return State[R]{
		Rows:               rows,
		Page:               c.query.Page,
		TotalPages:         c.totalPages,
		Limit:              c.query.Limit,
		Search:             c.query.Search,
		Status:             c.query.Status,
		VerificationStatus: c.query.VerificationStatus,
		Loading:            c.loading,
		Err:                c.err,
		Loaded:             c.loaded,
		LoadedAt:           c.loadedAt,
	}
}

// SetPage moves to page n, keeping filters.
func (c *Controller[R]) SetPage(n int) error {
	if n < 1 {
		return apperrors.ValidationField("page", "page must be at least 1")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query.Page = n
	c.issueLocked()
	return nil
}

// SetSearch changes the search text and returns to page 1.
// Setting the current text again does nothing.
func (c *Controller[R]) SetSearch(text string) {
	text = strings.TrimSpace(text)
	c.mu.Lock()
	defer c.mu.Unlock()
	if text == c.query.Search {
		return
	}
	c.query.Search = text
	c.query.Page = 1
	c.issueLocked()
}

// SetStatusFilter changes the account status filter and returns to page 1.
func (c *Controller[R]) SetStatusFilter(f model.StatusFilter) error {
	if f == "" {
		f = model.StatusAll
	}
	if !f.Valid() {
		return apperrors.ValidationField("status", "unknown status filter: "+string(f))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if f == c.query.Status {
		return nil
	}
	c.query.Status = f
	c.query.Page = 1
	c.issueLocked()
	return nil
}

// SetVerificationFilter changes the verification filter and returns to page 1.
// VerificationNone clears the filter.
func (c *Controller[R]) SetVerificationFilter(v model.VerificationStatus) error {
	if v != model.VerificationNone && !v.Valid() {
		return apperrors.ValidationField("verificationStatus", "unknown verification status: "+string(v))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if v == c.query.VerificationStatus {
		return nil
	}
	c.query.VerificationStatus = v
	c.query.Page = 1
	c.issueLocked()
	return nil
}

// Apply replaces the whole query at once, issuing a single fetch when anything
// changed. A filter change resets the page to 1 regardless of q.Page.
// It reports whether a fetch was issued.
func (c *Controller[R]) Apply(q model.ListQuery) (bool, error) {
	q.Search = strings.TrimSpace(q.Search)
	if q.Status == "" {
		q.Status = model.StatusAll
	}
	if q.Page == 0 {
		q.Page = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	q.Limit = c.query.Limit
	if err := q.Validate(); err != nil {
		return false, err
	}

	cur := c.query
	filtersChanged := q.Search != cur.Search || q.Status != cur.Status || q.VerificationStatus != cur.VerificationStatus
	if filtersChanged {
		q.Page = 1
	}
	if !filtersChanged && q.Page == cur.Page && (c.loaded || c.loading) {
		return false, nil
	}
	c.query = q
	c.issueLocked()
	return true, nil
}

// Refresh refetches the current query.
func (c *Controller[R]) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issueLocked()
}

// RefreshIfStale refetches when the rows are older than maxAge, or were never
// loaded. A non-positive maxAge only triggers the first load.
func (c *Controller[R]) RefreshIfStale(maxAge time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return false
	}
	if c.loaded && (maxAge <= 0 || c.now().Sub(c.loadedAt) < maxAge) {
		return false
	}
	c.issueLocked()
	return true
}

// ApplyLocalPatch replaces the row with the given id by update(row).
// It reports whether a row matched. No request is made.
func (c *Controller[R]) ApplyLocalPatch(id string, update func(R) R) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, row := range c.rows {
		if row.RowID() == id {
			c.rows[i] = update(row)
			return true
		}
	}
	return false
}

// Row returns the currently displayed row with the given id.
func (c *Controller[R]) Row(id string) (R, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, row := range c.rows {
		if row.RowID() == id {
			return row, true
		}
	}
	var zero R
	return zero, false
}

// Wait blocks until the latest issued fetch has settled or ctx ends.
func (c *Controller[R]) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		if !c.loading {
			c.mu.Unlock()
			return nil
		}
		done := c.done
		c.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels any outstanding fetch. Later fetches fail immediately.
func (c *Controller[R]) Close() {
	c.shutdown()
}

func (c *Controller[R]) issueLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	q := c.query
	ctx, cancel := context.WithCancel(c.base)
	done := make(chan struct{})

	c.cancel = cancel
	c.done = done
	c.loading = true

	go c.run(ctx, cancel, seq, q, done)
}

func (c *Controller[R]) run(ctx context.Context, cancel context.CancelFunc, seq uint64, q model.ListQuery, done chan struct{}) {
	defer close(done)
	defer cancel()

	res, err := c.fetch(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.logger.Debug("discarding stale list response", "query", q.Key(), "seq", seq, "latest", c.seq)
		metrics.EmitStaleDiscard(c.metrics, string(c.entity))
		return
	}

	c.loading = false
	c.cancel = nil
	if err != nil {
		c.err = err
		c.logger.Warn("list fetch failed", "query", q.Key(), "error", err)
		return
	}

	c.rows = res.Rows
	c.totalPages = model.NormalizeTotalPages(res.TotalPages)
	c.err = nil
	c.loaded = true
	c.loadedAt = c.now()

	// The page can fall off the end when rows disappear server-side.
	if c.query.Page > c.totalPages && len(c.rows) == 0 {
		c.query.Page = c.totalPages
		c.issueLocked()
	}
}

// Entity returns the kind of rows the controller lists.
func (c *Controller[R]) Entity() model.EntityKind { return c.entity }

// RowByID is Row without the concrete type, for callers that only know model.Row.
func (c *Controller[R]) RowByID(id string) (model.Row, bool) {
	row, ok := c.Row(id)
	if !ok {
		return nil, false
	}
	return row, true
}

// PatchRow is ApplyLocalPatch for callers that only know model.Row.
// Updates returning a different concrete type leave the row unchanged.
func (c *Controller[R]) PatchRow(id string, update func(model.Row) model.Row) bool {
	return c.ApplyLocalPatch(id, func(r R) R {
		if out, ok := update(r).(R); ok {
			return out
		}
		return r
	})
}

// View is Snapshot with rows widened to model.Row.
func (c *Controller[R]) View() State[model.Row] {
	s := c.Snapshot()
	rows := make([]model.Row, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = r
	}
	return State[model.Row]{
		Rows:               rows,
		Page:               s.Page,
		TotalPages:         s.TotalPages,
		Limit:              s.Limit,
		Search:             s.Search,
		Status:             s.Status,
		VerificationStatus: s.VerificationStatus,
		Loading:            s.Loading,
		Err:                s.Err,
		Loaded:             s.Loaded,
		LoadedAt:           s.LoadedAt,
	}
}
