package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/edukit/admin-dashboard/config"
	httpx "github.com/edukit/admin-dashboard/internal/http"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB
	Logger   *slog.Logger
	// ErrCh receives listener failures; nil logs them instead.
	ErrCh chan<- error
}

// StartHTTPServer builds the admin UI and starts serving it in the background.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler, err := buildHTTPHandler(httpHandlerConfig{
		Logger:   logger,
		Services: routerServices(appCfg, cfg.Services, cfg.DB, logger),
	})
	if err != nil {
		return nil, err
	}
	return startServer(logger, handler, appCfg.HTTP, cfg.ErrCh), nil
}

func routerServices(cfg *config.AppConfig, svcs ServiceContainer, db *sql.DB, logger *slog.Logger) httpx.RouterServices {
	checks := map[string]httpx.HealthCheck{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if svcs.Cache != nil {
		checks["redis"] = svcs.Cache.Health
	}
	rs := httpx.RouterServices{
		Cookies: httpx.CookieConfig{
			Name:     cfg.Session.CookieName,
			Domain:   cfg.HTTP.CookieDomain,
			Insecure: cfg.IsDev,
		},
		HealthChecks: checks,
		IsDev:        cfg.IsDev,
		Logger:       logger,
	}
	// Typed nils must not reach the router's interface fields.
	if svcs.Auth != nil {
		rs.Auth = svcs.Auth
	}
	if svcs.Workspaces != nil {
		rs.Workspaces = svcs.Workspaces
	}
	if svcs.Audit != nil {
		rs.Audit = svcs.Audit
	}
	if svcs.Dashboard != nil {
		rs.Dashboard = svcs.Dashboard
	}
	return rs
}

type httpHandlerConfig struct {
	Logger   *slog.Logger
	Services httpx.RouterServices
}

// buildHTTPHandler wraps the router as Recover -> Logging -> Router.
func buildHTTPHandler(cfg httpHandlerConfig) (http.Handler, error) {
	router, err := httpx.NewRouter(cfg.Services)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}
	h := httpx.Logging(cfg.Logger)(router)
	h = httpx.Recover(cfg.Logger)(h)
	return h, nil
}

func startServer(logger *slog.Logger, handler http.Handler, cfg config.HTTPConfig, errCh chan<- error) *http.Server {
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if errCh == nil {
				logger.Error("HTTP server failed", "error", err)
				return
			}
			select {
			case errCh <- fmt.Errorf("http server: %w", err):
			default:
				logger.Error("HTTP server failed", "error", err)
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer drains in-flight requests within the configured timeout.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = shutdownWaitTimeout
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}
