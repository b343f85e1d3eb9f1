package httpx

import (
	"net/url"
	"strconv"
	"time"

	"github.com/edukit/admin-dashboard/internal/domain/model"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
	corefuncs "github.com/edukit/admin-dashboard/internal/http/templates/core"
	"github.com/edukit/admin-dashboard/internal/service/listing"
)

// RowView is one table row, flattened for the template.
type RowView struct {
	ID           string
	Label        string
	Cells        []string
	Toggleable   bool
	Active       bool
	Verification model.VerificationStatus
	Remarks      string
	Next         []model.VerificationStatus
	EditURL      string
}

// ListView is everything the list templates need for one entity screen.
type ListView struct {
	Entity     model.EntityKind
	Title      string
	BasePath   string
	Columns    []string
	Rows       []RowView
	Page       int
	TotalPages int
	Pagination PaginationData

	Search       string
	Draft        string
	Status       model.StatusFilter
	Verification model.VerificationStatus

	StatusFilters        []model.StatusFilter
	VerificationStatuses []model.VerificationStatus

	Toggleable bool
	Verifiable bool
	Editable   bool
	NewURL     string

	Loading bool
	Loaded  bool
	Pending *listing.Pending
}

func newListView(kind model.EntityKind, s listing.State[model.Row], draft string, pending *listing.Pending) ListView {
	base := "/" + string(kind)
	v := ListView{
		Entity:       kind,
		Title:        kind.Title(),
		BasePath:     base,
		Columns:      columnsFor(kind),
		Page:         s.Page,
		TotalPages:   model.NormalizeTotalPages(s.TotalPages),
		Search:       s.Search,
		Draft:        draft,
		Status:       s.Status,
		Verification: s.VerificationStatus,
		Toggleable:   kind.Toggleable(),
		Verifiable:   kind == model.EntityCourses,
		Editable:     kind == model.EntityCategories || kind == model.EntityCoupons,
		Loading:      s.Loading,
		Loaded:       s.Loaded,
		Pending:      pending,
	}
	if v.Toggleable {
		v.StatusFilters = []model.StatusFilter{model.StatusAll, model.StatusActive, model.StatusBlocked}
	}
	if v.Verifiable {
		v.VerificationStatuses = model.AllVerificationStatuses()
	}
	if v.Editable {
		v.NewURL = base + "/new"
	}
	v.Pagination = buildPagination(base, listURLValues(s.Query()), v.Page, v.TotalPages)

	v.Rows = make([]RowView, 0, len(s.Rows))
	for _, row := range s.Rows {
		rv := rowView(kind, row)
		if v.Editable {
			rv.EditURL = base + "/" + url.PathEscape(rv.ID) + "/edit"
		}
		v.Rows = append(v.Rows, rv)
	}
	return v
}

// listURLValues encodes q the way list page URLs carry it.
func listURLValues(q model.ListQuery) url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Status != "" && q.Status != model.StatusAll {
		v.Set("status", string(q.Status))
	}
	if q.VerificationStatus != model.VerificationNone {
		v.Set("verification", string(q.VerificationStatus))
	}
	return v
}

// queryFromRequest overlays the list parameters present in vals onto cur.
// Absent parameters keep their current value so a page link does not drop
// the search typed into the box.
func queryFromRequest(cur model.ListQuery, vals url.Values) (model.ListQuery, error) {
	q := cur
	if raw := vals.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return cur, apperrors.ValidationField("page", "page must be a positive number")
		}
		q.Page = n
	}
	if vals.Has("search") {
		q.Search = vals.Get("search")
	}
	if vals.Has("status") {
		f, err := model.ParseStatusFilter(vals.Get("status"))
		if err != nil {
			return cur, err
		}
		q.Status = f
	}
	if vals.Has("verification") {
		v, err := model.ParseVerificationStatus(vals.Get("verification"))
		if err != nil {
			return cur, err
		}
		q.VerificationStatus = v
	}
	return q, nil
}

func columnsFor(kind model.EntityKind) []string {
	switch kind {
	case model.EntityLearners:
		return []string{"Name", "Email", "Phone", "Joined"}
	case model.EntityInstructors:
		return []string{"Name", "Email", "Designation", "Joined"}
	case model.EntityBusinesses:
		return []string{"Business", "Email", "Joined"}
	case model.EntityCategories:
		return []string{"Name", "Description"}
	case model.EntityCoupons:
		return []string{"Code", "Discount", "Expires"}
	case model.EntityCourses:
		return []string{"Title", "Instructor", "Category", "Created"}
	default:
		return nil
	}
}

func rowView(kind model.EntityKind, row model.Row) RowView {
	rv := RowView{ID: row.RowID(), Label: model.Label(row)}
	if act, ok := row.(model.Activatable); ok && kind.Toggleable() {
		rv.Toggleable = true
		rv.Active = act.Active()
	}
	switch r := row.(type) {
	case model.Learner:
		rv.Cells = []string{r.Name, r.Email, r.Phone, day(r.CreatedAt)}
	case model.Instructor:
		rv.Cells = []string{r.Name, r.Email, r.Designation, day(r.CreatedAt)}
	case model.Business:
		rv.Cells = []string{r.BusinessName, r.Email, day(r.CreatedAt)}
	case model.Category:
		rv.Cells = []string{r.Name, corefuncs.TruncateText(r.Description, 80)}
	case model.Coupon:
		rv.Cells = []string{r.Code, strconv.Itoa(r.DiscountPercent) + "%", day(r.ExpiresAt)}
	case model.Course:
		rv.Cells = []string{r.Title, r.InstructorName, r.Category, day(r.CreatedAt)}
		rv.Verification = r.VerificationStatus
		rv.Remarks = r.Remarks
		rv.Next = model.NextStatuses(r.VerificationStatus)
	}
	return rv
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("Jan 2, 2006")
}
