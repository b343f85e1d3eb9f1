package listing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukit/admin-dashboard/internal/domain/model"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
)

type fakeGateway struct {
	mu        sync.Mutex
	toggles   []string
	changes   []model.VerificationChange
	toggleErr error
	changeErr error
	// toggled is the row the platform answers a toggle with.
	toggled model.Row
	// inFlight runs while a request is outstanding.
	inFlight func()
}

func (g *fakeGateway) ToggleStatus(_ context.Context, _ model.EntityKind, id string) (model.Row, error) {
	g.mu.Lock()
	g.toggles = append(g.toggles, id)
	hook, row, err := g.inFlight, g.toggled, g.toggleErr
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	return row, err
}

func (g *fakeGateway) SetVerification(_ context.Context, change model.VerificationChange) error {
	g.mu.Lock()
	g.changes = append(g.changes, change)
	hook, err := g.inFlight, g.changeErr
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

type fakeRecorder struct {
	entries []model.AuditEntry
}

func (r *fakeRecorder) Record(_ context.Context, e model.AuditEntry) {
	r.entries = append(r.entries, e)
}

type rowTable struct {
	entity model.EntityKind
	rows   []model.Row
}

func (t *rowTable) Entity() model.EntityKind { return t.entity }

func (t *rowTable) RowByID(id string) (model.Row, bool) {
	for _, r := range t.rows {
		if r.RowID() == id {
			return r, true
		}
	}
	return nil, false
}

func (t *rowTable) PatchRow(id string, update func(model.Row) model.Row) bool {
	for i, r := range t.rows {
		if r.RowID() == id {
			t.rows[i] = update(r)
			return true
		}
	}
	return false
}

func newTestMutator(t *testing.T, gw *fakeGateway, rec *fakeRecorder) *Mutator {
	t.Helper()
	m, err := NewMutator(MutatorOptions{
		Gateway:  gw,
		Recorder: rec,
		Actor:    Actor{AdminID: "adm-1", Email: "ops@example.com"},
	})
	require.NoError(t, err)
	return m
}

func learnerTable() *rowTable {
	return &rowTable{entity: model.EntityLearners, rows: []model.Row{
		model.Learner{ID: "1", Name: "Ada", IsActive: true},
		model.Learner{ID: "2", Name: "Brian", IsActive: false},
		model.Learner{ID: "3", Name: "Cleo", IsActive: true},
	}}
}

func courseTable(status model.VerificationStatus) *rowTable {
	return &rowTable{entity: model.EntityCourses, rows: []model.Row{
		model.Course{ID: "c1", Title: "Go in Practice", VerificationStatus: status},
		model.Course{ID: "c2", Title: "Other", VerificationStatus: model.VerificationNotVerified},
	}}
}

func TestNewMutator_RequiresGateway(t *testing.T) {
	_, err := NewMutator(MutatorOptions{})
	require.Error(t, err)
}

func TestMutator_TogglePatchesExactlyOneRow(t *testing.T) {
	gw, rec := &fakeGateway{}, &fakeRecorder{}
	m := newTestMutator(t, gw, rec)
	table := learnerTable()

	row, err := m.Toggle(context.Background(), table, "1", "req-1")
	require.NoError(t, err)

	assert.False(t, row.(model.Learner).IsActive)
	assert.False(t, table.rows[0].(model.Learner).IsActive)
	assert.False(t, table.rows[1].(model.Learner).IsActive, "untouched")
	assert.True(t, table.rows[2].(model.Learner).IsActive, "untouched")
	assert.Equal(t, []string{"1"}, gw.toggles)

	require.Len(t, rec.entries, 1)
	e := rec.entries[0]
	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, model.AuditToggle, e.Action)
	assert.Equal(t, model.EntityLearners, e.Entity)
	assert.Equal(t, "active", e.FromState)
	assert.Equal(t, "blocked", e.ToState)
	assert.Equal(t, "adm-1", e.AdminID)
	assert.Equal(t, "ops@example.com", e.AdminEmail)
}

func TestMutator_TogglePatchesWithServerRow(t *testing.T) {
	server := model.Learner{ID: "1", Name: "Ada Lovelace", Email: "ada@example.com", IsActive: false}
	gw, rec := &fakeGateway{toggled: server}, &fakeRecorder{}
	m := newTestMutator(t, gw, rec)
	table := learnerTable()

	row, err := m.Toggle(context.Background(), table, "1", "")
	require.NoError(t, err)

	assert.Equal(t, server, row)
	assert.Equal(t, server, table.rows[0])
	assert.Equal(t, model.Learner{ID: "2", Name: "Brian", IsActive: false}, table.rows[1])
	require.Len(t, rec.entries, 1)
	assert.Equal(t, "blocked", rec.entries[0].ToState)
}

func TestMutator_ToggleKeepsRowRefetchedInFlight(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestMutator(t, gw, nil)
	table := learnerTable()
	gw.inFlight = func() {
		table.rows[1] = model.Learner{ID: "2", Name: "Brian Refetched", IsActive: false}
	}

	row, err := m.Toggle(context.Background(), table, "2", "")
	require.NoError(t, err)

	want := model.Learner{ID: "2", Name: "Brian Refetched", IsActive: true}
	assert.Equal(t, want, row)
	assert.Equal(t, want, table.rows[1])
}

func TestMutator_TransitionKeepsRowRefetchedInFlight(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestMutator(t, gw, nil)
	table := courseTable(model.VerificationUnderReview)
	gw.inFlight = func() {
		table.rows[0] = model.Course{ID: "c1", Title: "Go in Practice, 2nd ed.", VerificationStatus: model.VerificationUnderReview}
	}

	row, err := m.Transition(context.Background(), table, TransitionRequest{ID: "c1", To: model.VerificationVerified})
	require.NoError(t, err)

	want := model.Course{ID: "c1", Title: "Go in Practice, 2nd ed.", VerificationStatus: model.VerificationVerified}
	assert.Equal(t, want, row)
	assert.Equal(t, want, table.rows[0])
}

func TestMutator_ToggleFailureDoesNotPatch(t *testing.T) {
	gw := &fakeGateway{toggleErr: apperrors.FromStatus(409, "Learner has active enrollments")}
	rec := &fakeRecorder{}
	m := newTestMutator(t, gw, rec)
	table := learnerTable()

	_, err := m.Toggle(context.Background(), table, "1", "")
	require.Error(t, err)
	assert.Equal(t, "Learner has active enrollments", apperrors.UserMessage(err))
	assert.True(t, table.rows[0].(model.Learner).IsActive)
	assert.Empty(t, rec.entries)
}

func TestMutator_ToggleRejectsBeforeNetwork(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestMutator(t, gw, nil)

	_, err := m.Toggle(context.Background(), learnerTable(), "missing", "")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = m.Toggle(context.Background(), learnerTable(), " ", "")
	assert.True(t, apperrors.IsValidation(err))

	_, err = m.Toggle(context.Background(), courseTable(model.VerificationVerified), "c1", "")
	assert.True(t, apperrors.IsValidation(err))

	assert.Empty(t, gw.toggles)
}

func TestMutator_RequestToggle_DeactivateNeedsConfirmation(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestMutator(t, gw, &fakeRecorder{})
	table := learnerTable()

	out, err := m.RequestToggle(context.Background(), table, "1")
	require.NoError(t, err)
	require.NotNil(t, out.Pending)
	assert.Nil(t, out.Row)
	assert.True(t, out.Pending.Destructive)
	assert.Equal(t, "Ada", out.Pending.Label)
	assert.NotEmpty(t, out.Pending.RequestID)
	assert.Empty(t, gw.toggles, "nothing happens until confirmed")

	row, err := m.Confirm(context.Background(), table, out.Pending.RequestID)
	require.NoError(t, err)
	assert.False(t, row.(model.Learner).IsActive)
	assert.Equal(t, []string{"1"}, gw.toggles)

	_, err = m.Confirm(context.Background(), table, out.Pending.RequestID)
	assert.True(t, apperrors.IsConflict(err), "a second confirm is rejected")
	assert.Len(t, gw.toggles, 1)
}

func TestMutator_RequestToggle_ActivateRunsImmediately(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestMutator(t, gw, nil)
	table := learnerTable()

	out, err := m.RequestToggle(context.Background(), table, "2")
	require.NoError(t, err)
	assert.Nil(t, out.Pending)
	require.NotNil(t, out.Row)
	assert.True(t, out.Row.(model.Learner).IsActive)
	assert.Equal(t, []string{"2"}, gw.toggles)
}

func TestMutator_CancelDropsPending(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestMutator(t, gw, nil)
	table := learnerTable()

	out, err := m.RequestToggle(context.Background(), table, "3")
	require.NoError(t, err)
	require.NotNil(t, out.Pending)

	assert.True(t, m.Cancel(table))
	assert.False(t, m.Cancel(table))
	_, err = m.Confirm(context.Background(), table, out.Pending.RequestID)
	assert.True(t, apperrors.IsConflict(err))
	assert.Empty(t, gw.toggles)
}

func TestMutator_TransitionRequiresRemarksForDestructiveTargets(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestMutator(t, gw, nil)

	_, err := m.Transition(context.Background(), courseTable(model.VerificationUnderReview), TransitionRequest{
		ID: "c1", To: model.VerificationRejected, Remarks: "   ",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "remarks", apperrors.GetField(err))
	assert.Empty(t, gw.changes)
}

func TestMutator_TransitionChecksGraph(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestMutator(t, gw, nil)

	_, err := m.Transition(context.Background(), courseTable(model.VerificationNotVerified), TransitionRequest{
		ID: "c1", To: model.VerificationVerified,
	})
	assert.True(t, apperrors.IsValidation(err))

	_, err = m.Transition(context.Background(), learnerTable(), TransitionRequest{ID: "1", To: model.VerificationVerified})
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, gw.changes)
}

func TestMutator_TransitionPatchesCourse(t *testing.T) {
	gw, rec := &fakeGateway{}, &fakeRecorder{}
	m := newTestMutator(t, gw, rec)
	table := courseTable(model.VerificationUnderReview)

	row, err := m.Transition(context.Background(), table, TransitionRequest{
		ID: "c1", To: model.VerificationRejected, Remarks: " missing captions ",
	})
	require.NoError(t, err)

	course := row.(model.Course)
	assert.Equal(t, model.VerificationRejected, course.VerificationStatus)
	assert.Equal(t, "missing captions", course.Remarks)
	assert.Equal(t, course, table.rows[0])
	assert.Equal(t, model.VerificationNotVerified, table.rows[1].(model.Course).VerificationStatus)

	require.Len(t, gw.changes, 1)
	assert.Equal(t, model.VerificationChange{CourseID: "c1", Status: model.VerificationRejected, Remarks: "missing captions"}, gw.changes[0])

	require.Len(t, rec.entries, 1)
	assert.Equal(t, "under_review", rec.entries[0].FromState)
	assert.Equal(t, "rejected", rec.entries[0].ToState)
	assert.Equal(t, "missing captions", rec.entries[0].Remarks)
	assert.NotEmpty(t, rec.entries[0].RequestID)
}

func TestMutator_TransitionFailureDoesNotPatch(t *testing.T) {
	gw := &fakeGateway{changeErr: apperrors.Network(errors.New("reset"))}
	m := newTestMutator(t, gw, nil)
	table := courseTable(model.VerificationUnderReview)

	_, err := m.Transition(context.Background(), table, TransitionRequest{ID: "c1", To: model.VerificationVerified})
	require.Error(t, err)
	assert.Equal(t, apperrors.GenericRetryMessage, apperrors.UserMessage(err))
	assert.Equal(t, model.VerificationUnderReview, table.rows[0].(model.Course).VerificationStatus)
}

func TestMutator_RequestTransition(t *testing.T) {
	gw := &fakeGateway{}
	m := newTestMutator(t, gw, nil)

	t.Run("restorative runs immediately", func(t *testing.T) {
		table := courseTable(model.VerificationBlocked)
		out, err := m.RequestTransition(context.Background(), table, TransitionRequest{ID: "c1", To: model.VerificationVerified})
		require.NoError(t, err)
		assert.Nil(t, out.Pending)
		assert.Equal(t, model.VerificationVerified, out.Row.(model.Course).VerificationStatus)
	})

	t.Run("destructive waits for confirmation", func(t *testing.T) {
		table := courseTable(model.VerificationVerified)
		before := len(gw.changes)

		out, err := m.RequestTransition(context.Background(), table, TransitionRequest{
			ID: "c1", To: model.VerificationBlocked, Remarks: "plagiarism report",
		})
		require.NoError(t, err)
		require.NotNil(t, out.Pending)
		assert.Equal(t, ActionTransition, out.Pending.Action)
		assert.Equal(t, model.VerificationBlocked, out.Pending.Target)
		assert.Len(t, gw.changes, before)

		row, err := m.Confirm(context.Background(), table, out.Pending.RequestID)
		require.NoError(t, err)
		assert.Equal(t, model.VerificationBlocked, row.(model.Course).VerificationStatus)
		assert.Equal(t, "plagiarism report", gw.changes[len(gw.changes)-1].Remarks)
	})

	t.Run("missing remarks fail before holding", func(t *testing.T) {
		table := courseTable(model.VerificationVerified)
		_, err := m.RequestTransition(context.Background(), table, TransitionRequest{ID: "c1", To: model.VerificationBlocked})
		assert.True(t, apperrors.IsValidation(err))
		_, held := m.Confirmations().Get(model.EntityCourses)
		assert.False(t, held)
	})
}

func TestController_ImplementsPatchable(t *testing.T) {
	f := staticFetcher(1, "a", "b")
	c := newTestController(t, f)
	c.Refresh()
	waitSettled(t, c)

	m := newTestMutator(t, &fakeGateway{}, nil)
	row, err := m.Toggle(context.Background(), c, "b", "")
	require.NoError(t, err)
	assert.False(t, row.(model.Learner).IsActive)

	s := c.Snapshot()
	assert.True(t, s.Rows[0].IsActive)
	assert.False(t, s.Rows[1].IsActive)
}
