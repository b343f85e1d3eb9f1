package listing

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edukit/admin-dashboard/internal/domain/model"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
)

// Action names what a pending confirmation will do.
type Action string

const (
	ActionToggle     Action = "toggle"
	ActionTransition Action = "transition"
)

// Pending is a destructive action waiting for the admin to confirm or cancel.
type Pending struct {
	RequestID   string
	ID          string
	Entity      model.EntityKind
	Action      Action
	Target      model.VerificationStatus // transitions only
	Remarks     string                   // transitions only
	Label       string                   // row label shown in the dialog
	Destructive bool
	CreatedAt   time.Time
}

// Confirmations holds at most one pending action per entity screen.
type Confirmations struct {
	mu      sync.Mutex
	now     func() time.Time
	pending map[model.EntityKind]Pending
}

// NewConfirmations creates an empty set. A nil now uses time.Now.
func NewConfirmations(now func() time.Time) *Confirmations {
	if now == nil {
		now = time.Now
	}
	return &Confirmations{now: now, pending: make(map[model.EntityKind]Pending)}
}

// Hold stores p, replacing any earlier pending action on the same screen.
// A request id is assigned when p has none.
func (c *Confirmations) Hold(p Pending) Pending {
	if p.RequestID == "" {
		p.RequestID = uuid.NewString()
	}
	p.CreatedAt = c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[p.Entity] = p
	return p
}

// Get returns the pending action for entity, if any.
func (c *Confirmations) Get(entity model.EntityKind) (Pending, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[entity]
	return p, ok
}

// Take removes and returns the pending action matching requestID.
// An empty id is a Validation error. A missing or different pending action is
// a Conflict, which is how a second submit of the same confirmation is rejected.
// A mismatch leaves the pending action in place.
func (c *Confirmations) Take(entity model.EntityKind, requestID string) (Pending, error) {
	if requestID == "" {
		return Pending{}, apperrors.ValidationField("request_id", "This confirmation is missing its request id.")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[entity]
	if !ok || p.RequestID != requestID {
		return Pending{}, apperrors.Conflict("This action is no longer pending.")
	}
	delete(c.pending, entity)
	return p, nil
}

// Cancel drops the pending action for entity and reports whether one existed.
func (c *Confirmations) Cancel(entity model.EntityKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[entity]
	delete(c.pending, entity)
	return ok
}
