package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/edukit/admin-dashboard/internal/domain/model"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
	"github.com/edukit/admin-dashboard/internal/service"
	"github.com/edukit/admin-dashboard/internal/service/listing"
)

// listContext is what every list handler resolves first.
type listContext struct {
	kind model.EntityKind
	ws   *service.Workspace
	list service.List
}

func (h *UIHandlers) resolveList(w http.ResponseWriter, r *http.Request) (listContext, bool) {
	kind, ok := h.entityFrom(w, r)
	if !ok {
		return listContext{}, false
	}
	ws, _, ok := h.workspace(w, r)
	if !ok {
		return listContext{}, false
	}
	list, err := ws.List(kind)
	if err != nil {
		h.respondError(w, r, err)
		return listContext{}, false
	}
	return listContext{kind: kind, ws: ws, list: list}, true
}

// settle waits for the list's latest fetch, bounded by the settle timeout.
// A timeout is not an error: the view then shows its loading state.
func (h *UIHandlers) settle(ctx context.Context, list service.List) {
	wctx, cancel := context.WithTimeout(ctx, h.settleTimeout())
	defer cancel()
	_ = list.Wait(wctx)
}

func (h *UIHandlers) listView(lc listContext) ListView {
	var draft string
	if box, err := lc.ws.Search(lc.kind); err == nil {
		draft = box.Draft()
	}
	var pending *listing.Pending
	if p, ok := lc.ws.Mutator().Confirmations().Get(lc.kind); ok {
		pending = &p
	}
	return newListView(lc.kind, lc.list.View(), draft, pending)
}

// renderListTable renders the table fragment. toastErr and okMsg become
// toasts; a lost session redirects to sign-in instead.
func (h *UIHandlers) renderListTable(w http.ResponseWriter, r *http.Request, lc listContext, toastErr error, okMsg string) {
	state := lc.list.View()
	if toastErr == nil && okMsg == "" && state.Err != nil {
		toastErr = state.Err
	}
	if toastErr != nil && sessionGone(toastErr) {
		h.Cookies.clear(w, r)
		redirectToSignIn(w, r)
		return
	}
	switch {
	case toastErr != nil:
		triggerToast(w, apperrors.UserMessage(toastErr), "error")
	case okMsg != "":
		triggerToast(w, okMsg, "success")
	}
	h.renderFragment(w, fragmentListTable, h.listView(lc))
}

// List renders an entity list page.
// GET /{entity}?page=&search=&status=&verification=.
func (h *UIHandlers) List(w http.ResponseWriter, r *http.Request) {
	lc, ok := h.resolveList(w, r)
	if !ok {
		return
	}

	var toastErr error
	q, err := queryFromRequest(lc.list.View().Query(), r.URL.Query())
	if err == nil {
		_, err = lc.list.Apply(q)
	}
	if err != nil {
		toastErr = err
	}
	if r.URL.Query().Has("search") {
		if box, berr := lc.ws.Search(lc.kind); berr == nil && box.Draft() != q.Search {
			box.SubmitText(q.Search)
		}
	}
	h.settle(r.Context(), lc.list)

	if IsHTMX(r) && HXTarget(r) == fragmentListTable {
		SetHXPushURL(w, r.URL.RequestURI())
		h.renderListTable(w, r, lc, toastErr, "")
		return
	}

	view := h.listView(lc)
	state := lc.list.View()
	if toastErr == nil {
		toastErr = state.Err
	}
	if toastErr != nil && sessionGone(toastErr) {
		h.Cookies.clear(w, r)
		redirectToSignIn(w, r)
		return
	}
	b := NewTemplateData(r, PageMeta{Title: lc.kind.Title(), PageTitle: lc.kind.Title(), CurrentPage: PageList}).
		With("List", view)
	if toastErr != nil {
		b.WithError(apperrors.UserMessage(toastErr))
		triggerToast(w, apperrors.UserMessage(toastErr), "error")
	}
	h.renderPage(w, r, b.Build())
}

// Search feeds one keystroke to the debounced search box. A keystroke
// superseded by a later one answers 204 so htmx keeps the current table.
// POST /{entity}/search.
func (h *UIHandlers) Search(w http.ResponseWriter, r *http.Request) {
	lc, ok := h.resolveList(w, r)
	if !ok {
		return
	}
	box, err := lc.ws.Search(lc.kind)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	committed := false
	select {
	case committed = <-box.Input(r.FormValue("search")):
	case <-r.Context().Done():
	}
	if !committed {
		HTMX(w).NoSwap()
		return
	}
	h.settle(r.Context(), lc.list)
	h.renderListTable(w, r, lc, nil, "")
}

// SearchSubmit commits the search text immediately, as Enter does.
// POST /{entity}/search/submit.
func (h *UIHandlers) SearchSubmit(w http.ResponseWriter, r *http.Request) {
	lc, ok := h.resolveList(w, r)
	if !ok {
		return
	}
	box, err := lc.ws.Search(lc.kind)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	box.SubmitText(r.FormValue("search"))
	h.settle(r.Context(), lc.list)
	h.renderListTable(w, r, lc, nil, "")
}

// Toggle flips a row's active flag. Deactivation waits for confirmation.
// POST /{entity}/{id}/toggle.
func (h *UIHandlers) Toggle(w http.ResponseWriter, r *http.Request) {
	lc, ok := h.resolveList(w, r)
	if !ok {
		return
	}
	out, err := lc.ws.Mutator().RequestToggle(r.Context(), lc.list, r.PathValue("id"))
	if err != nil {
		h.renderListTable(w, r, lc, err, "")
		return
	}
	if out.Pending != nil {
		h.renderListTable(w, r, lc, nil, "")
		return
	}
	h.renderListTable(w, r, lc, nil, model.Label(out.Row)+" is now active.")
}

// Verification moves a course to a new verification state. Rejecting and
// blocking wait for confirmation.
// POST /courses/{id}/verification.
func (h *UIHandlers) Verification(w http.ResponseWriter, r *http.Request) {
	lc, ok := h.resolveList(w, r)
	if !ok {
		return
	}
	to, err := model.ParseVerificationStatus(r.FormValue("status"))
	if err == nil && to == model.VerificationNone {
		err = apperrors.ValidationField("status", "choose a verification status")
	}
	if err != nil {
		h.renderListTable(w, r, lc, err, "")
		return
	}
	out, err := lc.ws.Mutator().RequestTransition(r.Context(), lc.list, listing.TransitionRequest{
		ID:      r.PathValue("id"),
		To:      to,
		Remarks: r.FormValue("remarks"),
	})
	if err != nil {
		h.renderListTable(w, r, lc, err, "")
		return
	}
	if out.Pending != nil {
		h.renderListTable(w, r, lc, nil, "")
		return
	}
	h.renderListTable(w, r, lc, nil, model.Label(out.Row)+" is now "+to.Label()+".")
}

// Confirm executes the pending destructive action.
// POST /{entity}/confirm.
func (h *UIHandlers) Confirm(w http.ResponseWriter, r *http.Request) {
	lc, ok := h.resolveList(w, r)
	if !ok {
		return
	}
	row, err := lc.ws.Mutator().Confirm(r.Context(), lc.list, strings.TrimSpace(r.FormValue("request_id")))
	if err != nil {
		h.renderListTable(w, r, lc, err, "")
		return
	}
	h.renderListTable(w, r, lc, nil, confirmMessage(row))
}

// Cancel drops the pending action.
// POST /{entity}/cancel.
func (h *UIHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	lc, ok := h.resolveList(w, r)
	if !ok {
		return
	}
	lc.ws.Mutator().Cancel(lc.list)
	h.renderListTable(w, r, lc, nil, "")
}

func confirmMessage(row model.Row) string {
	label := model.Label(row)
	switch r := row.(type) {
	case model.Course:
		return label + " is now " + r.VerificationStatus.Label() + "."
	case model.Activatable:
		if r.Active() {
			return label + " is now active."
		}
		return label + " is now blocked."
	default:
		return "Done."
	}
}
