package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/edukit/admin-dashboard/internal/adapters/platformapi"
	domainauth "github.com/edukit/admin-dashboard/internal/domain/auth"
	"github.com/edukit/admin-dashboard/internal/domain/model"
	"github.com/edukit/admin-dashboard/internal/observability/statsd"
	"github.com/edukit/admin-dashboard/internal/service/listing"
)

// DefaultWorkspaceIdleTTL evicts idle workspaces when no TTL is configured.
const DefaultWorkspaceIdleTTL = 30 * time.Minute

// List is the entity-agnostic face of a list controller.
type List interface {
	listing.Patchable
	listing.Searchable
	Apply(q model.ListQuery) (bool, error)
	SetPage(n int) error
	SetStatusFilter(f model.StatusFilter) error
	SetVerificationFilter(v model.VerificationStatus) error
	Refresh()
	RefreshIfStale(maxAge time.Duration) bool
	Wait(ctx context.Context) error
	View() listing.State[model.Row]
	Close()
}

// ClientFactory builds platform clients bound to an admin's tokens.
type ClientFactory interface {
	NewSession(tokens domainauth.Tokens) (*platformapi.Session, error)
	NewClient(sess *platformapi.Session, hooks platformapi.Hooks) *platformapi.Client
}

// TokenKeeper persists token changes made by a workspace's client.
type TokenKeeper interface {
	PersistTokens(ctx context.Context, sessionID string, tokens domainauth.Tokens) error
	Expire(ctx context.Context, sessionID string) error
}

// WorkspacesOptions groups dependencies for Workspaces.
type WorkspacesOptions struct {
	Clients         ClientFactory    // Required: platform client factory
	Tokens          TokenKeeper      // Required: session token persistence
	Recorder        listing.Recorder // Optional: audit sink for mutations
	Clock           listing.Clock    // Optional: debounce clock
	SearchDebounce  time.Duration    // Optional: debounce delay
	PageSize        int              // Optional: rows per page
	IdleTTL         time.Duration    // Optional: eviction threshold
	RefreshInterval time.Duration    // Optional: refetch lists older than this on view; 0 disables
	Now             func() time.Time // Optional: clock for idle tracking
	Logger          *slog.Logger     // Optional
	Metrics         statsd.Sink      // Optional
}

// Workspaces holds the list state of every signed-in admin, keyed by session ID.
type Workspaces struct {
	opts   WorkspacesOptions
	logger *slog.Logger

	mu    sync.Mutex
	items map[string]*Workspace
}

// NewWorkspaces constructs an empty workspace registry.
func NewWorkspaces(opts WorkspacesOptions) (*Workspaces, error) {
	if opts.Clients == nil {
		return nil, errors.New("client factory is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("token keeper is required")
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultWorkspaceIdleTTL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = model.DefaultPageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Clock == nil {
		opts.Clock = listing.SystemClock
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts.Logger = logger
	return &Workspaces{
		opts:   opts,
		logger: logger.With("component", "workspaces"),
		items:  make(map[string]*Workspace),
	}, nil
}

// For returns the workspace of sess, creating it on first use.
func (w *Workspaces) For(sess *domainauth.Session) (*Workspace, error) {
	if sess == nil || sess.ID == "" {
		return nil, errors.New("session is required")
	}
	now := w.opts.Now()

	w.mu.Lock()
	defer w.mu.Unlock()
	if ws, ok := w.items[sess.ID]; ok {
		ws.touch(now)
		return ws, nil
	}

	ws, err := w.build(sess)
	if err != nil {
		return nil, err
	}
	ws.touch(now)
	w.items[sess.ID] = ws
	w.logger.Debug("workspace created", "session_id", sess.ID)
	return ws, nil
}

// Release drops the workspace of sessionID, cancelling its in-flight fetches
// and pending searches.
func (w *Workspaces) Release(sessionID string) {
	w.mu.Lock()
	ws, ok := w.items[sessionID]
	delete(w.items, sessionID)
	w.mu.Unlock()
	if ok {
		ws.close()
		w.logger.Debug("workspace released", "session_id", sessionID)
	}
}

// Len reports how many workspaces are live.
func (w *Workspaces) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}

// Sweep releases workspaces idle for longer than the configured TTL and
// reports how many were released.
func (w *Workspaces) Sweep() int {
	cutoff := w.opts.Now().Add(-w.opts.IdleTTL)

	w.mu.Lock()
	var idle []*Workspace
	for id, ws := range w.items {
		if ws.lastUsed().Before(cutoff) {
			idle = append(idle, ws)
			delete(w.items, id)
		}
	}
	w.mu.Unlock()

	for _, ws := range idle {
		ws.close()
	}
	return len(idle)
}

// Run sweeps idle workspaces until ctx is cancelled.
// Returns nil on graceful shutdown.
func (w *Workspaces) Run(ctx context.Context) error {
	interval := max(w.opts.IdleTTL/2, time.Second)
	w.logger.InfoContext(ctx, "starting workspace sweeper", "idle_ttl", w.opts.IdleTTL, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "workspace sweeper stopping", "reason", ctx.Err())
			w.closeAll()
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if n := w.Sweep(); n > 0 {
				w.logger.InfoContext(ctx, "evicted idle workspaces", "count", n)
			}
		}
	}
}

func (w *Workspaces) closeAll() {
	w.mu.Lock()
	items := w.items
	w.items = make(map[string]*Workspace)
	w.mu.Unlock()
	for _, ws := range items {
		ws.close()
	}
}

func (w *Workspaces) build(sess *domainauth.Session) (*Workspace, error) {
	platformSession, err := w.opts.Clients.NewSession(sess.Tokens)
	if err != nil {
		return nil, fmt.Errorf("restore platform session: %w", err)
	}

	sessionID := sess.ID
	logger := w.opts.Logger.With("session_id", sessionID)
	hooks := platformapi.Hooks{
		OnRefreshed: func(ctx context.Context, tokens domainauth.Tokens) {
			if perr := w.opts.Tokens.PersistTokens(ctx, sessionID, tokens); perr != nil {
				logger.WarnContext(ctx, "persist refreshed tokens failed", "error", perr)
			}
		},
		OnCleared: func(ctx context.Context) {
			if eerr := w.opts.Tokens.Expire(ctx, sessionID); eerr != nil {
				logger.WarnContext(ctx, "expire session after failed refresh", "error", eerr)
			}
		},
	}
	client := w.opts.Clients.NewClient(platformSession, hooks)

	ws := &Workspace{
		SessionID: sessionID,
		client:    client,
		lists:     make(map[model.EntityKind]List, len(model.AllEntities())),
		searches:  make(map[model.EntityKind]*listing.SearchBox, len(model.AllEntities())),
		refresh:   w.opts.RefreshInterval,
	}

	for _, kind := range model.AllEntities() {
		list, lerr := newList(client, kind, listing.Options{
			Entity:  kind,
			Limit:   w.opts.PageSize,
			Logger:  logger,
			Metrics: w.opts.Metrics,
			Now:     w.opts.Now,
		})
		if lerr != nil {
			ws.close()
			return nil, lerr
		}
		ws.lists[kind] = list
		ws.searches[kind] = listing.NewSearchBox(list, w.opts.Clock, w.opts.SearchDebounce)
	}

	mutator, err := listing.NewMutator(listing.MutatorOptions{
		Gateway:  client,
		Recorder: w.opts.Recorder,
		Actor:    listing.Actor{AdminID: sess.AdminID, Email: sess.Email},
		Logger:   logger,
		Metrics:  w.opts.Metrics,
	})
	if err != nil {
		ws.close()
		return nil, err
	}
	ws.mutator = mutator
	return ws, nil
}

func newList(c *platformapi.Client, kind model.EntityKind, opts listing.Options) (List, error) {
	switch kind {
	case model.EntityLearners:
		return listing.NewController(fetcher[model.Learner](c, kind), opts)
	case model.EntityInstructors:
		return listing.NewController(fetcher[model.Instructor](c, kind), opts)
	case model.EntityBusinesses:
		return listing.NewController(fetcher[model.Business](c, kind), opts)
	case model.EntityCategories:
		return listing.NewController(fetcher[model.Category](c, kind), opts)
	case model.EntityCoupons:
		return listing.NewController(fetcher[model.Coupon](c, kind), opts)
	case model.EntityCourses:
		return listing.NewController(fetcher[model.Course](c, kind), opts)
	default:
		return nil, fmt.Errorf("unknown entity %q", kind)
	}
}

func fetcher[R model.Row](c *platformapi.Client, kind model.EntityKind) listing.FetchFunc[R] {
	return func(ctx context.Context, q model.ListQuery) (model.ListResult[R], error) {
		return platformapi.List[R](ctx, c, kind, q)
	}
}

// Workspace is one admin's list state: a controller and search box per entity
// plus the mutator that patches their rows.
type Workspace struct {
	SessionID string

	client   *platformapi.Client
	lists    map[model.EntityKind]List
	searches map[model.EntityKind]*listing.SearchBox
	mutator  *listing.Mutator
	refresh  time.Duration

	mu   sync.Mutex
	used time.Time
}

// List returns the controller for kind. The first call for a kind triggers its
// first load; later calls refetch when the rows are older than the refresh interval.
func (ws *Workspace) List(kind model.EntityKind) (List, error) {
	list, ok := ws.lists[kind]
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", kind)
	}
	list.RefreshIfStale(ws.refresh)
	return list, nil
}

// Search returns the debounced search box of kind.
func (ws *Workspace) Search(kind model.EntityKind) (*listing.SearchBox, error) {
	box, ok := ws.searches[kind]
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", kind)
	}
	return box, nil
}

// Mutator returns the workspace's mutator.
func (ws *Workspace) Mutator() *listing.Mutator { return ws.mutator }

// Client returns the platform client authenticated as this workspace's admin.
func (ws *Workspace) Client() *platformapi.Client { return ws.client }

func (ws *Workspace) touch(now time.Time) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.used = now
}

func (ws *Workspace) lastUsed() time.Time {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.used
}

func (ws *Workspace) close() {
	for _, box := range ws.searches {
		box.Stop()
	}
	for _, list := range ws.lists {
		list.Close()
	}
}
