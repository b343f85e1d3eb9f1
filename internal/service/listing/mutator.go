package listing

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/edukit/admin-dashboard/internal/domain/model"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
	"github.com/edukit/admin-dashboard/internal/observability/metrics"
	"github.com/edukit/admin-dashboard/internal/observability/statsd"
)

// Gateway performs state changes on the platform.
// ToggleStatus returns the server's copy of the toggled row, or nil when the
// response did not carry one.
type Gateway interface {
	ToggleStatus(ctx context.Context, kind model.EntityKind, id string) (model.Row, error)
	SetVerification(ctx context.Context, change model.VerificationChange) error
}

// Recorder receives successful mutations for the audit trail.
// Implementations must not fail the caller.
type Recorder interface {
	Record(ctx context.Context, entry model.AuditEntry)
}

// Patchable is the part of a list controller a mutator needs.
type Patchable interface {
	Entity() model.EntityKind
	RowByID(id string) (model.Row, bool)
	PatchRow(id string, update func(model.Row) model.Row) bool
}

// Actor identifies the admin performing mutations.
type Actor struct {
	AdminID string
	Email   string
}

// MutatorOptions groups dependencies for Mutator.
type MutatorOptions struct {
	Gateway       Gateway        // Required
	Confirmations *Confirmations // Optional: created when nil
	Recorder      Recorder       // Optional: audit sink
	Actor         Actor
	Logger        *slog.Logger // Optional
	Metrics       statsd.Sink  // Optional
}

// Mutator changes row state on the platform and patches the displayed row on success.
// Failures are returned and leave rows untouched.
type Mutator struct {
	gateway  Gateway
	confirm  *Confirmations
	recorder Recorder
	actor    Actor
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewMutator constructs a Mutator.
func NewMutator(opts MutatorOptions) (*Mutator, error) {
	if opts.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	confirm := opts.Confirmations
	if confirm == nil {
		confirm = NewConfirmations(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Mutator{
		gateway:  opts.Gateway,
		confirm:  confirm,
		recorder: opts.Recorder,
		actor:    opts.Actor,
		logger:   logger.With("component", "mutator"),
		metrics:  opts.Metrics,
	}, nil
}

// Confirmations returns the pending-confirmation set.
func (m *Mutator) Confirmations() *Confirmations { return m.confirm }

// Outcome is the result of a mutation request: either the patched row, or a
// pending confirmation when the action is destructive.
type Outcome struct {
	Row     model.Row
	Pending *Pending
}

// Toggle flips the active flag of row id now, without asking for confirmation.
func (m *Mutator) Toggle(ctx context.Context, target Patchable, id, requestID string) (model.Row, error) {
	kind := target.Entity()
	row, err := m.activatable(target, id)
	if err != nil {
		return nil, err
	}

	confirmed, err := m.gateway.ToggleStatus(ctx, kind, id)
	metrics.EmitMutation(m.metrics, metrics.Mutation{Entity: string(kind), Action: string(model.AuditToggle), Err: err})
	if err != nil {
		m.logger.WarnContext(ctx, "toggle failed", "entity", kind, "id", id, "error", err)
		return nil, err
	}

	from := row.Active()
	to := !from
	if act, ok := confirmed.(model.Activatable); ok {
		to = act.Active()
	}
	// The row may have been refetched while the request was in flight.
	patched := confirmed
	target.PatchRow(id, func(current model.Row) model.Row {
		if confirmed != nil {
			return confirmed
		}
		patched = model.WithActive(current, to)
		return patched
	})
	if patched == nil {
		patched = model.WithActive(row, to)
	}

	m.record(ctx, model.AuditEntry{
		RequestID: requestID,
		Action:    model.AuditToggle,
		Entity:    kind,
		EntityID:  id,
		FromState: model.AccountState(from),
		ToState:   model.AccountState(to),
	})
	return patched, nil
}

// TransitionRequest moves a course to a new verification state.
type TransitionRequest struct {
	ID        string
	To        model.VerificationStatus
	Remarks   string
	RequestID string
}

// Transition applies a verification change now. Remarks are required for
// destructive targets and the move must be allowed from the row's current
// state; both are checked before any request is sent.
func (m *Mutator) Transition(ctx context.Context, target Patchable, req TransitionRequest) (model.Row, error) {
	course, change, err := m.prepareTransition(target, req)
	if err != nil {
		return nil, err
	}

	err = m.gateway.SetVerification(ctx, change)
	metrics.EmitMutation(m.metrics, metrics.Mutation{Entity: string(model.EntityCourses), Action: string(model.AuditVerification), Err: err})
	if err != nil {
		m.logger.WarnContext(ctx, "verification change failed", "course_id", change.CourseID, "to", change.Status, "error", err)
		return nil, err
	}

	from := course.VerificationStatus
	apply := func(c model.Course) model.Course {
		c.VerificationStatus = change.Status
		c.Remarks = change.Remarks
		return c
	}
	patched := apply(course)
	target.PatchRow(course.ID, func(current model.Row) model.Row {
		if c, ok := current.(model.Course); ok {
			patched = apply(c)
			return patched
		}
		return current
	})

	m.record(ctx, model.AuditEntry{
		RequestID: req.RequestID,
		Action:    model.AuditVerification,
		Entity:    model.EntityCourses,
		EntityID:  course.ID,
		FromState: string(from),
		ToState:   string(change.Status),
		Remarks:   change.Remarks,
	})
	return patched, nil
}

// RequestToggle toggles immediately when activating and holds a pending
// confirmation when deactivating.
func (m *Mutator) RequestToggle(ctx context.Context, target Patchable, id string) (Outcome, error) {
	row, err := m.activatable(target, id)
	if err != nil {
		return Outcome{}, err
	}
	if row.Active() {
		p := m.confirm.Hold(Pending{
			ID:          id,
			Entity:      target.Entity(),
			Action:      ActionToggle,
			Label:       model.Label(row),
			Destructive: true,
		})
		return Outcome{Pending: &p}, nil
	}
	patched, err := m.Toggle(ctx, target, id, uuid.NewString())
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Row: patched}, nil
}

// RequestTransition validates req, then applies it immediately unless the
// target state is destructive, in which case it is held for confirmation.
func (m *Mutator) RequestTransition(ctx context.Context, target Patchable, req TransitionRequest) (Outcome, error) {
	course, change, err := m.prepareTransition(target, req)
	if err != nil {
		return Outcome{}, err
	}
	if change.Status.Destructive() {
		p := m.confirm.Hold(Pending{
			ID:          course.ID,
			Entity:      target.Entity(),
			Action:      ActionTransition,
			Target:      change.Status,
			Remarks:     change.Remarks,
			Label:       course.Title,
			Destructive: true,
		})
		return Outcome{Pending: &p}, nil
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	patched, err := m.Transition(ctx, target, req)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Row: patched}, nil
}

// Confirm executes the pending action identified by requestID.
// The pending action is consumed even when the platform call fails.
func (m *Mutator) Confirm(ctx context.Context, target Patchable, requestID string) (model.Row, error) {
	p, err := m.confirm.Take(target.Entity(), requestID)
	if err != nil {
		return nil, err
	}
	switch p.Action {
	case ActionToggle:
		return m.Toggle(ctx, target, p.ID, p.RequestID)
	case ActionTransition:
		return m.Transition(ctx, target, TransitionRequest{
			ID: p.ID, To: p.Target, Remarks: p.Remarks, RequestID: p.RequestID,
		})
	default:
		return nil, apperrors.Internalf("unknown pending action %q", p.Action)
	}
}

// Cancel drops the pending action on target's screen.
func (m *Mutator) Cancel(target Patchable) bool {
	return m.confirm.Cancel(target.Entity())
}

func (m *Mutator) activatable(target Patchable, id string) (model.Activatable, error) {
	kind := target.Entity()
	if !kind.Toggleable() {
		return nil, apperrors.Validationf("%s do not have an active status", kind)
	}
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.ValidationField("id", "id is required")
	}
	row, ok := target.RowByID(id)
	if !ok {
		return nil, apperrors.NotFound("This row is no longer on screen. Refresh and try again.")
	}
	act, ok := row.(model.Activatable)
	if !ok {
		return nil, apperrors.Validationf("%s do not have an active status", kind)
	}
	return act, nil
}

func (m *Mutator) prepareTransition(target Patchable, req TransitionRequest) (model.Course, model.VerificationChange, error) {
	change := model.VerificationChange{CourseID: req.ID, Status: req.To, Remarks: req.Remarks}
	if target.Entity() != model.EntityCourses {
		return model.Course{}, change, apperrors.Validationf("%s do not have a verification status", target.Entity())
	}
	if err := change.Validate(); err != nil {
		return model.Course{}, change, err
	}
	row, ok := target.RowByID(change.CourseID)
	if !ok {
		return model.Course{}, change, apperrors.NotFound("This course is no longer on screen. Refresh and try again.")
	}
	course, ok := row.(model.Course)
	if !ok {
		return model.Course{}, change, apperrors.Internalf("unexpected row type %T", row)
	}
	if err := change.ValidateFrom(course.VerificationStatus); err != nil {
		return model.Course{}, change, err
	}
	return course, change, nil
}

func (m *Mutator) record(ctx context.Context, entry model.AuditEntry) {
	if m.recorder == nil {
		return
	}
	if entry.RequestID == "" {
		entry.RequestID = uuid.NewString()
	}
	entry.AdminID = m.actor.AdminID
	entry.AdminEmail = m.actor.Email
	m.recorder.Record(ctx, entry)
}
