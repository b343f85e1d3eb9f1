package httpx

import (
	"net/http"

	apperrors "github.com/edukit/admin-dashboard/internal/errors"
	"github.com/edukit/admin-dashboard/internal/service"
)

// TileView is one dashboard tile.
type TileView struct {
	Title string
	Path  string
	Total int
	Error string
}

// ShowDashboard renders entity totals. A failed count shows on its tile only.
// GET /dashboard.
func (h *UIHandlers) ShowDashboard(w http.ResponseWriter, r *http.Request) {
	ws, sess, ok := h.workspace(w, r)
	if !ok {
		return
	}
	tiles := h.Dashboard.Load(r.Context(), sess.ID, service.PlatformCounter(ws.Client()))

	views := make([]TileView, 0, len(tiles))
	for _, t := range tiles {
		if t.Err != nil && sessionGone(t.Err) {
			h.respondError(w, r, t.Err)
			return
		}
		v := TileView{Title: t.Entity.Title(), Path: "/" + string(t.Entity), Total: t.Total}
		if t.Err != nil {
			v.Error = apperrors.UserMessage(t.Err)
		}
		views = append(views, v)
	}

	data := NewTemplateData(r, PageMeta{Title: "Dashboard", PageTitle: "Dashboard", CurrentPage: PageDashboard}).
		With("Tiles", views).
		Build()
	h.renderPage(w, r, data)
}

// Index sends the root path to the dashboard.
// GET /.
func (h *UIHandlers) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
