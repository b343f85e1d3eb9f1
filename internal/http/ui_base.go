package httpx

import (
	"context"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/edukit/admin-dashboard/internal/domain/auth"
	"github.com/edukit/admin-dashboard/internal/domain/model"
	"github.com/edukit/admin-dashboard/internal/service"
)

// AuthService is the part of the admin auth service the UI needs.
type AuthService interface {
	SessionReader
	SignIn(ctx context.Context, email, password string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// WorkspaceProvider hands out the per-admin list state.
type WorkspaceProvider interface {
	For(sess *domainauth.Session) (*service.Workspace, error)
}

// AuditTrail lists and records admin actions.
type AuditTrail interface {
	List(ctx context.Context, page int, entity model.EntityKind) (service.AuditPage, error)
	Record(ctx context.Context, entry model.AuditEntry)
}

// DashboardLoader loads entity totals.
type DashboardLoader interface {
	Load(ctx context.Context, cacheKey string, counter service.Counter) []service.Tile
	Invalidate(ctx context.Context, cacheKey string)
}

// Compile-time interface assertions to ensure concrete services satisfy their UI interfaces.
var (
	_ AuthService       = (*service.AuthService)(nil)
	_ WorkspaceProvider = (*service.Workspaces)(nil)
	_ AuditTrail        = (*service.AuditService)(nil)
	_ DashboardLoader   = (*service.DashboardService)(nil)
)

// DefaultSettleTimeout bounds how long a handler waits for a list fetch
// before rendering the loading state.
const DefaultSettleTimeout = 10 * time.Second

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T          *TemplateRenderer
	Auth       AuthService
	Workspaces WorkspaceProvider
	Audit      AuditTrail
	Dashboard  DashboardLoader
	Cookies    CookieConfig
	// SettleTimeout bounds waiting for list fetches; defaults to DefaultSettleTimeout.
	SettleTimeout time.Duration
	Now           func() time.Time
	Logger        *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *UIHandlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *UIHandlers) settleTimeout() time.Duration {
	if h.SettleTimeout > 0 {
		return h.SettleTimeout
	}
	return DefaultSettleTimeout
}

// renderPage renders a page with htmx partial support: full layout for
// normal navigation, content plus out-of-band title updates for htmx.
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, data map[string]any) {
	if !WantsPartial(r) {
		if err := h.T.RenderFull(w, r, data); err != nil {
			h.renderTemplateError(w, err, "full page render")
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})

	title, _ := data["Title"].(string)
	pageTitle, _ := data["PageTitle"].(string)
	current, _ := data["CurrentPage"].(string)

	var b strings.Builder
	b.WriteString(`<title>` + html.EscapeString(title) + `</title>`)
	b.WriteString(`<h1 id="header-title" class="header-title" hx-swap-oob="outerHTML">` +
		html.EscapeString(pageTitle) + `</h1>`)
	if _, err := w.Write([]byte(b.String())); err != nil {
		h.logger().Error("failed to write partial header", "error", err)
		return
	}
	if err := h.T.ExecuteTo(w, ContentTemplateFor(current), data); err != nil {
		h.logger().Error("partial content render failed", "error", err)
	}
}

// renderFragment renders one named template on its own.
func (h *UIHandlers) renderFragment(w http.ResponseWriter, name string, data any) {
	if err := h.T.RenderFragment(w, name, data); err != nil {
		h.renderTemplateError(w, err, "fragment "+name)
	}
}

func (h *UIHandlers) renderTemplateError(w http.ResponseWriter, err error, phase string) {
	h.logger().Error("template render failed", "phase", phase, "error", err)
	http.Error(w, "Unable to render page.", http.StatusInternalServerError)
}

// NotFound renders the not-found page.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, PageMeta{Title: "Not found", PageTitle: "Page not found", CurrentPage: PageNotFound}).Build()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	h.renderPage(w, r, data)
}

// triggerToast sends a standardized Hx-Trigger payload for toast notifications.
func triggerToast(w http.ResponseWriter, message, toastType string) {
	if w == nil || strings.TrimSpace(message) == "" {
		return
	}
	HTMX(w).Trigger("showToast", map[string]any{
		"message": message,
		"type":    strings.TrimSpace(toastType),
	})
}

// entityFrom resolves the {entity} path segment. Unknown kinds render 404.
func (h *UIHandlers) entityFrom(w http.ResponseWriter, r *http.Request) (model.EntityKind, bool) {
	kind, err := model.ParseEntityKind(r.PathValue("entity"))
	if err != nil {
		h.NotFound(w, r)
		return "", false
	}
	return kind, true
}

// workspace returns the signed-in admin's workspace.
func (h *UIHandlers) workspace(w http.ResponseWriter, r *http.Request) (*service.Workspace, *domainauth.Session, bool) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		redirectToSignIn(w, r)
		return nil, nil, false
	}
	ws, err := h.Workspaces.For(sess)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "workspace unavailable", "session_id", sess.ID, "error", err)
		h.respondError(w, r, err)
		return nil, nil, false
	}
	return ws, sess, true
}
