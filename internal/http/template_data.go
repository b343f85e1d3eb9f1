package httpx

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/edukit/admin-dashboard/internal/domain/model"
	"github.com/edukit/admin-dashboard/internal/domain/pagination"
)

// PageMeta names a page for the layout.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// NavItem is one entry of the side navigation.
type NavItem struct {
	Label  string
	Path   string
	Active bool
}

// basePageData constructs the common page data map with admin context.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	data := map[string]any{
		"Title":           meta.Title,
		"PageTitle":       meta.PageTitle,
		"CurrentPage":     meta.CurrentPage,
		"IsAuthenticated": false,
		"CSRFToken":       CSRFToken(r),
	}
	if s, ok := GetUserSessionFromContext(r.Context()); ok {
		data["IsAuthenticated"] = true
		data["Admin"] = s
		data["Nav"] = navItems(r.URL.Path)
	}
	return data
}

func navItems(path string) []NavItem {
	items := []NavItem{{Label: "Dashboard", Path: "/dashboard"}}
	for _, kind := range model.AllEntities() {
		items = append(items, NavItem{Label: kind.Title(), Path: "/" + string(kind)})
	}
	items = append(items, NavItem{Label: "Audit trail", Path: "/audit"})
	for i := range items {
		items[i].Active = path == items[i].Path || strings.HasPrefix(path, items[i].Path+"/")
	}
	return items
}

// PageLink is one slot of the page strip under a table.
type PageLink struct {
	Label    string
	URL      string
	Current  bool
	Ellipsis bool
}

// PaginationData is the page strip and prev/next links of a list view.
type PaginationData struct {
	Show    bool
	Links   []PageLink
	PrevURL string
	NextURL string
}

// buildPagination lays out the page strip for current of total, linking each
// page to basePath with q's filters preserved.
func buildPagination(basePath string, q url.Values, current, total int) PaginationData {
	total = model.NormalizeTotalPages(total)
	p := PaginationData{Show: pagination.ShouldRender(total)}
	if !p.Show {
		return p
	}
	for _, tok := range pagination.Range(current, total, pagination.DefaultSiblings) {
		if tok.Ellipsis {
			p.Links = append(p.Links, PageLink{Label: tok.String(), Ellipsis: true})
			continue
		}
		p.Links = append(p.Links, PageLink{
			Label:   tok.String(),
			URL:     buildPageURL(basePath, q, tok.Page),
			Current: tok.Page == current,
		})
	}
	if current > 1 {
		p.PrevURL = buildPageURL(basePath, q, current-1)
	}
	if current < total {
		p.NextURL = buildPageURL(basePath, q, current+1)
	}
	return p
}

// buildPageURL returns basePath with page set, preserving other non-empty query params.
func buildPageURL(basePath string, q url.Values, page int) string {
	qq := make(url.Values, len(q)+1)
	for k, v := range q {
		if strings.HasPrefix(k, "hx-") || strings.HasPrefix(k, "hx_") {
			continue
		}
		tmp := make([]string, 0, len(v))
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				tmp = append(tmp, s)
			}
		}
		if len(tmp) > 0 {
			qq[k] = tmp
		}
	}
	qq.Set("page", strconv.Itoa(page))
	return basePath + "?" + qq.Encode()
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{data: basePageData(r, meta)}
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
