package httpx

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/edukit/admin-dashboard/internal/domain/model"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
	"github.com/edukit/admin-dashboard/internal/service"
)

// ShowAudit renders the audit trail, newest first.
// GET /audit?page=&entity=.
func (h *UIHandlers) ShowAudit(w http.ResponseWriter, r *http.Request) {
	meta := PageMeta{Title: "Audit trail", PageTitle: "Audit trail", CurrentPage: PageAudit}
	q := r.URL.Query()

	page := 1
	var entity model.EntityKind
	var err error
	if raw := q.Get("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil {
			err = apperrors.ValidationField("page", "page must be a positive number")
		}
	}
	if raw := q.Get("entity"); err == nil && raw != "" {
		entity, err = model.ParseEntityKind(raw)
	}

	var result service.AuditPage
	if err == nil {
		result, err = h.Audit.List(r.Context(), page, entity)
	}

	b := NewTemplateData(r, meta).
		With("Entities", model.AllEntities()).
		With("Entity", entity)
	if err != nil {
		h.logger().WarnContext(r.Context(), "audit list failed", "error", err)
		b.WithError(apperrors.UserMessage(err))
		triggerToast(w, apperrors.UserMessage(err), "error")
	} else {
		filters := url.Values{}
		if entity != "" {
			filters.Set("entity", string(entity))
		}
		b.With("Entries", result.Entries).
			With("Page", result.Page).
			With("TotalPages", result.TotalPages).
			With("Pagination", buildPagination("/audit", filters, result.Page, result.TotalPages))
	}
	h.renderPage(w, r, b.Build())
}
