package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/edukit/admin-dashboard/internal/domain/auth"
	"github.com/edukit/admin-dashboard/internal/domain/model"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
	corefuncs "github.com/edukit/admin-dashboard/internal/http/templates/core"
	"github.com/edukit/admin-dashboard/internal/service"
)

// catalogForm describes one create/edit form for categories or coupons.
type catalogForm struct {
	kind   model.EntityKind
	page   string
	noun   string
	fields func(row model.Row) map[string]string
}

//nolint:gochecknoglobals // static form descriptions
var (
	categoryForm = catalogForm{
		kind: model.EntityCategories,
		page: PageCategoryForm,
		noun: "category",
		fields: func(row model.Row) map[string]string {
			c, _ := row.(model.Category)
			return map[string]string{"name": c.Name, "description": c.Description}
		},
	}
	couponForm = catalogForm{
		kind: model.EntityCoupons,
		page: PageCouponForm,
		noun: "coupon",
		fields: func(row model.Row) map[string]string {
			c, _ := row.(model.Coupon)
			out := map[string]string{"code": c.Code, "expiryDate": corefuncs.FormatDateInput(c.ExpiresAt)}
			if c.DiscountPercent > 0 {
				out["discount"] = strconv.Itoa(c.DiscountPercent)
			}
			return out
		},
	}
)

func (f catalogForm) meta(mode FormMode) PageMeta {
	title := "New " + f.noun
	if mode == FormModeEdit {
		title = "Edit " + f.noun
	}
	return PageMeta{Title: title, PageTitle: title, CurrentPage: f.page}
}

func (f catalogForm) action(id string) string {
	if id == "" {
		return "/" + string(f.kind) + "/new"
	}
	return "/" + string(f.kind) + "/" + id + "/edit"
}

// formData is the template data shared by both catalog forms.
func (f catalogForm) formData(id string, values map[string]string) map[string]any {
	mode := FormModeCreate
	if id != "" {
		mode = FormModeEdit
	}
	if values == nil {
		values = map[string]string{}
	}
	return map[string]any{
		"Mode":      string(mode),
		"ID":        id,
		"Action":    f.action(id),
		"BackURL":   "/" + string(f.kind),
		"Form":      values,
		"RequestID": uuid.NewString(),
	}
}

// CategoryForm renders the category create or edit form.
// GET /categories/new, GET /categories/{id}/edit.
func (h *UIHandlers) CategoryForm(w http.ResponseWriter, r *http.Request) {
	h.showCatalogForm(w, r, categoryForm)
}

// CouponForm renders the coupon create or edit form.
// GET /coupons/new, GET /coupons/{id}/edit.
func (h *UIHandlers) CouponForm(w http.ResponseWriter, r *http.Request) {
	h.showCatalogForm(w, r, couponForm)
}

func (h *UIHandlers) showCatalogForm(w http.ResponseWriter, r *http.Request, f catalogForm) {
	ws, _, ok := h.workspace(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	var values map[string]string
	if id != "" {
		row, found := h.lookupRow(r, ws, f.kind, id)
		if !found {
			h.NotFound(w, r)
			return
		}
		values = f.fields(row)
	}
	data := f.formData(id, values)
	mode := FormMode(data["Mode"].(string))
	b := NewTemplateData(r, f.meta(mode))
	for k, v := range data {
		b.With(k, v)
	}
	h.renderPage(w, r, b.Build())
}

// lookupRow finds id among the rows currently listed for kind.
func (h *UIHandlers) lookupRow(r *http.Request, ws *service.Workspace, kind model.EntityKind, id string) (model.Row, bool) {
	list, err := ws.List(kind)
	if err != nil {
		return nil, false
	}
	h.settle(r.Context(), list)
	return list.RowByID(id)
}

// SaveCategory creates or updates a category.
// POST /categories/new, POST /categories/{id}/edit.
func (h *UIHandlers) SaveCategory(w http.ResponseWriter, r *http.Request) {
	ws, sess, ok := h.workspace(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	values := map[string]string{
		"name":        r.FormValue("name"),
		"description": r.FormValue("description"),
	}
	req := model.CategoryRequest{ID: id, Name: values["name"], Description: values["description"]}
	savedID, err := ws.Client().SaveCategory(r.Context(), req)
	if err != nil {
		h.catalogSaveFailed(w, r, categoryForm, id, values, err)
		return
	}
	h.catalogSaved(w, r, catalogSave{
		form: categoryForm, ws: ws, sess: sess, id: id, savedID: savedID,
		label: strings.TrimSpace(req.Name),
	})
}

// SaveCoupon creates or updates a coupon.
// POST /coupons/new, POST /coupons/{id}/edit.
func (h *UIHandlers) SaveCoupon(w http.ResponseWriter, r *http.Request) {
	ws, sess, ok := h.workspace(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	values := map[string]string{
		"code":       r.FormValue("code"),
		"discount":   r.FormValue("discount"),
		"expiryDate": r.FormValue("expiryDate"),
	}
	var savedID string
	req, err := parseCouponForm(id, values)
	if err == nil {
		savedID, err = ws.Client().SaveCoupon(r.Context(), req)
	}
	if err != nil {
		h.catalogSaveFailed(w, r, couponForm, id, values, err)
		return
	}
	h.catalogSaved(w, r, catalogSave{
		form: couponForm, ws: ws, sess: sess, id: id, savedID: savedID,
		label: strings.ToUpper(strings.TrimSpace(req.Code)),
	})
}

func parseCouponForm(id string, values map[string]string) (model.CouponRequest, error) {
	req := model.CouponRequest{ID: id, Code: values["code"]}
	discount, err := strconv.Atoi(strings.TrimSpace(values["discount"]))
	if err != nil {
		return req, apperrors.ValidationField("discount", "discount must be a whole number")
	}
	req.DiscountPercent = discount
	expiry, err := time.Parse(corefuncs.DateInputLayout, strings.TrimSpace(values["expiryDate"]))
	if err != nil {
		return req, apperrors.ValidationField("expiryDate", "expiry date must be a date")
	}
	// The coupon stays valid through the whole expiry day.
	req.ExpiresAt = expiry.Add(24*time.Hour - time.Second)
	return req, nil
}

func (h *UIHandlers) catalogSaveFailed(
	w http.ResponseWriter,
	r *http.Request,
	f catalogForm,
	id string,
	values map[string]string,
	err error,
) {
	if sessionGone(err) {
		h.respondError(w, r, err)
		return
	}
	data := f.formData(id, values)
	if rid := strings.TrimSpace(r.FormValue("request_id")); rid != "" {
		data["RequestID"] = rid
	}
	mode := FormMode(data["Mode"].(string))
	h.RenderError(ErrorOpts{
		W:         w,
		R:         r,
		Err:       err,
		PageMeta:  f.meta(mode),
		Data:      data,
		ShowToast: !apperrors.IsValidation(err),
	})
}

type catalogSave struct {
	form    catalogForm
	ws      *service.Workspace
	sess    *domainauth.Session
	id      string
	savedID string
	label   string
}

func (h *UIHandlers) catalogSaved(w http.ResponseWriter, r *http.Request, s catalogSave) {
	action := model.AuditUpdate
	if s.id == "" {
		action = model.AuditCreate
	}
	entityID := s.savedID
	if entityID == "" {
		entityID = s.id
	}
	requestID := strings.TrimSpace(r.FormValue("request_id"))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	if h.Audit != nil {
		h.Audit.Record(r.Context(), model.AuditEntry{
			RequestID:  requestID,
			AdminID:    s.sess.AdminID,
			AdminEmail: s.sess.Email,
			Action:     action,
			Entity:     s.form.kind,
			EntityID:   entityID,
			ToState:    s.label,
		})
	}
	if action == model.AuditCreate && h.Dashboard != nil {
		h.Dashboard.Invalidate(r.Context(), s.sess.ID)
	}
	if list, err := s.ws.List(s.form.kind); err == nil {
		list.Refresh()
	}

	target := "/" + string(s.form.kind)
	if IsHTMX(r) {
		triggerToast(w, "Saved "+s.form.noun+" "+s.label+".", "success")
		HTMX(w).Redirect(target)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
