package httpx

// CurrentPage constants identify pages for navigation and template lookup.
const (
	PageDashboard    = "dashboard"
	PageList         = "list"
	PageAudit        = "audit"
	PageCategoryForm = "category-form"
	PageCouponForm   = "coupon-form"
	PageSignIn       = "signin"
	PageNotFound     = "not-found"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
	StaticPathFromRoot   = "frontend/static"
)

// Fragment names rendered on their own for htmx swaps.
const (
	fragmentListTable = "list-table"
	fragmentForm      = "form-body"
)

// FormMode represents the mode of a form (create or edit).
type FormMode string

const (
	// FormModeEdit indicates the form is in edit mode.
	FormModeEdit FormMode = "edit"
	// FormModeCreate indicates the form is in create mode.
	FormModeCreate FormMode = "create"
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageDashboard:    "dashboard-content",
	PageList:         "list-content",
	PageAudit:        "audit-content",
	PageCategoryForm: "category-form-content",
	PageCouponForm:   "coupon-form-content",
	PageSignIn:       "signin-content",
	PageNotFound:     "not-found-content",
}

// ContentTemplateFor returns the template name rendering page's main area.
func ContentTemplateFor(page string) string {
	if name, ok := contentTemplates[page]; ok {
		return name
	}
	return "not-found-content"
}
