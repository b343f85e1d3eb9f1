package httpx

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	admindashboard "github.com/edukit/admin-dashboard"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth       AuthService
	Workspaces WorkspaceProvider
	Audit      AuditTrail
	Dashboard  DashboardLoader
	Cookies    CookieConfig
	// HealthChecks are probed by /healthz; empty means always healthy.
	HealthChecks  map[string]HealthCheck
	SettleTimeout time.Duration
	IsDev         bool         // Templates and static files come from disk
	Logger        *slog.Logger // Optional
	// TemplateFS overrides the template source, mainly for tests.
	TemplateFS fs.FS
}

// NewRouter builds the admin UI handler tree. Everything except sign-in,
// health and static files requires an admin session.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if services.Cookies.Name == "" {
		services.Cookies.Name = "session_id"
	}

	templateFS, err := templateSource(services)
	if err != nil {
		return nil, err
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		DevMode:    services.IsDev,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("template renderer: %w", err)
	}

	ui := &UIHandlers{
		T:             tr,
		Auth:          services.Auth,
		Workspaces:    services.Workspaces,
		Audit:         services.Audit,
		Dashboard:     services.Dashboard,
		Cookies:       services.Cookies,
		SettleTimeout: services.SettleTimeout,
		Logger:        logger,
	}

	mux := http.NewServeMux()
	health := healthHandler(services.HealthChecks)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	mux.Handle("GET /static/", staticHandler(services.IsDev, logger))

	mux.HandleFunc("GET /auth/signin", ui.SignInPage)
	mux.HandleFunc("POST /auth/signin", ui.SignIn)
	mux.HandleFunc("POST /auth/logout", ui.Logout)

	registerUIRoutes(mux, ui, RequireAuth(services.Auth, services.Cookies))

	var handler http.Handler = &notFoundHandler{mux: mux, ui: ui}
	handler = CSRF(services.Cookies)(handler)
	return handler, nil
}

func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, auth func(http.Handler) http.Handler) {
	protect := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, auth(fn))
	}

	protect("GET /{$}", h.Index)
	protect("GET /dashboard", h.ShowDashboard)
	protect("GET /audit", h.ShowAudit)

	protect("GET /categories/new", h.CategoryForm)
	protect("POST /categories/new", h.SaveCategory)
	protect("GET /categories/{id}/edit", h.CategoryForm)
	protect("POST /categories/{id}/edit", h.SaveCategory)
	protect("GET /coupons/new", h.CouponForm)
	protect("POST /coupons/new", h.SaveCoupon)
	protect("GET /coupons/{id}/edit", h.CouponForm)
	protect("POST /coupons/{id}/edit", h.SaveCoupon)

	protect("POST /courses/{id}/verification", h.Verification)

	protect("GET /{entity}", h.List)
	protect("POST /{entity}/search", h.Search)
	protect("POST /{entity}/search/submit", h.SearchSubmit)
	protect("POST /{entity}/{id}/toggle", h.Toggle)
	protect("POST /{entity}/confirm", h.Confirm)
	protect("POST /{entity}/cancel", h.Cancel)
}

func templateSource(services RouterServices) (fs.FS, error) {
	if services.TemplateFS != nil {
		return services.TemplateFS, nil
	}
	if services.IsDev {
		return os.DirFS(TemplatePathFromRoot), nil
	}
	sub, err := fs.Sub(admindashboard.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		return nil, fmt.Errorf("embedded templates: %w", err)
	}
	return sub, nil
}

// staticHandler serves /static/* from disk in dev and from the embedded FS otherwise.
func staticHandler(isDev bool, logger *slog.Logger) http.Handler {
	var fsys http.FileSystem = http.Dir(StaticPathFromRoot)
	if !isDev {
		sub, err := fs.Sub(admindashboard.StaticFS, StaticPathFromRoot)
		if err != nil {
			logger.Error("embedded static assets unavailable; serving from disk", "error", err)
		} else {
			fsys = http.FS(sub)
		}
	}
	files := http.StripPrefix("/static/", http.FileServer(fsys))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isDev {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}
		files.ServeHTTP(w, r)
	})
}

// notFoundHandler swaps the mux's plain-text 404 for the not-found page.
type notFoundHandler struct {
	mux *http.ServeMux
	ui  *UIHandlers
}

func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Matched routes render their own 404s.
	if _, pattern := h.mux.Handler(r); pattern != "" {
		h.mux.ServeHTTP(w, r)
		return
	}
	cw := newCaptureWriter()
	h.mux.ServeHTTP(cw, r)
	if cw.status == http.StatusNotFound && !strings.HasPrefix(r.URL.Path, "/static/") {
		h.ui.NotFound(w, r)
		return
	}
	cw.flushTo(w, h.ui.logger())
}

// captureWriter buffers an unmatched response so it can be replaced.
type captureWriter struct {
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter() *captureWriter {
	return &captureWriter{header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

func (c *captureWriter) flushTo(w http.ResponseWriter, logger *slog.Logger) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		logger.Warn("failed to write captured response", "error", err)
	}
}
