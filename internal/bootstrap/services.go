package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edukit/admin-dashboard/config"
	"github.com/edukit/admin-dashboard/internal/adapters/platformapi"
	redisadapter "github.com/edukit/admin-dashboard/internal/adapters/redis"
	"github.com/edukit/admin-dashboard/internal/data"
	"github.com/edukit/admin-dashboard/internal/observability/statsd"
	"github.com/edukit/admin-dashboard/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Platform      *platformapi.Factory
	Auth          *service.AuthService
	Workspaces    *service.Workspaces
	Audit         *service.AuditService
	Dashboard     *service.DashboardService
	Cache         *data.RedisCacheRepo
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// buildObservability configures the metrics sink. A sink that cannot be
// dialled is replaced by a disabled one so metrics never block startup.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	statsdCfg := statsd.Config{
		Enabled:    cfg.Metrics.IsEnabled(),
		Address:    cfg.Metrics.StatsdAddress,
		Prefix:     cfg.Metrics.Prefix,
		Logger:     logger,
		GlobalTags: map[string]string{"service": cfg.Metrics.Service},
	}
	client, err := statsd.NewClient(statsdCfg)
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		statsdCfg.Enabled = false
		client, _ = statsd.NewClient(statsdCfg)
	}
	return ObservabilityContainer{
		MetricsSink:   client,
		MetricsConfig: cfg.Metrics,
	}
}

// NewPlatformFactory builds the platform client factory from configuration.
func NewPlatformFactory(cfg config.PlatformConfig, metrics statsd.Sink, logger *slog.Logger) (*platformapi.Factory, error) {
	factory, err := platformapi.NewFactory(platformapi.FactoryOptions{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Mapping: platformapi.Mapping{
			Rows:       cfg.RowsPath,
			TotalPages: cfg.TotalPagesPath,
			Token:      cfg.TokenPath,
			Message:    cfg.MessagePath,
		},
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("platform client: %w", err)
	}
	return factory, nil
}

func newAuthService(
	cfg *config.AppConfig,
	factory *platformapi.Factory,
	client redis.UniversalClient,
	logger *slog.Logger,
) (*service.AuthService, error) {
	sessions := redisadapter.NewSessionStore(redisadapter.SessionStoreOptions{
		Client: client,
		Prefix: cfg.Session.KeyPrefix,
	})
	return service.NewAuthService(service.AuthServiceOptions{
		Authenticator: platformapi.NewAuthenticator(factory),
		Sessions:      sessions,
		TTL:           cfg.Session.TTL,
		Logger:        logger,
	})
}

// NewServices wires the platform client, sessions, audit trail, dashboard and
// per-admin workspaces.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service config is required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database is required")
	}
	if deps.RedisClient == nil {
		return ServiceContainer{}, errors.New("redis client is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	obs := buildObservability(logger, cfg.Observability)
	factory, err := NewPlatformFactory(cfg.Platform, obs.MetricsSink, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	auth, err := newAuthService(cfg, factory, deps.RedisClient, logger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("auth service: %w", err)
	}

	cache := data.NewRedisCacheRepo(deps.RedisClient, cfg.Cache.KeyPrefix)
	audit, err := service.NewAuditService(service.AuditServiceOptions{
		Repo:    data.NewAuditRepo(deps.DB),
		Locks:   cache,
		LockTTL: cfg.Cache.LockTTL,
		Config:  cfg.Audit,
		Logger:  logger,
		Metrics: obs.MetricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("audit service: %w", err)
	}

	dashboard := service.NewDashboardService(service.DashboardServiceOptions{
		Cache:  cache,
		TTL:    cfg.List.DashboardCacheTTL,
		Logger: logger,
	})

	workspaces, err := service.NewWorkspaces(service.WorkspacesOptions{
		Clients:         factory,
		Tokens:          auth,
		Recorder:        audit,
		SearchDebounce:  cfg.List.SearchDebounce,
		PageSize:        cfg.Platform.PageSize,
		IdleTTL:         cfg.List.WorkspaceIdleTTL,
		RefreshInterval: cfg.List.RefreshInterval,
		Logger:          logger,
		Metrics:         obs.MetricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("workspaces: %w", err)
	}

	auth.OnLogout(workspaces.Release)
	auth.OnLogout(func(sessionID string) {
		dashboard.Invalidate(context.Background(), sessionID)
	})

	return ServiceContainer{
		Platform:      factory,
		Auth:          auth,
		Workspaces:    workspaces,
		Audit:         audit,
		Dashboard:     dashboard,
		Cache:         cache,
		Observability: obs,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// shutdownWaitTimeout is the maximum time to wait for a background service to stop.
const shutdownWaitTimeout = 15 * time.Second

type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

func startHTTPServerIfEnabled(deps *serviceStartupDeps) (*http.Server, error) {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil, nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		DB:       deps.cfg.DB,
		Logger:   deps.logger,
		ErrCh:    deps.errCh,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name, "error", errMsg)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))
	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}
		handles = append(handles, backgroundServiceHandle{mode: svc.mode, name: svc.name, done: done})
	}
	return handles
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil || deps.cfg == nil {
		return nil
	}
	svcs := deps.cfg.Services
	var out []backgroundService
	if svcs.Workspaces != nil {
		out = append(out, backgroundService{
			mode:  config.ServiceModeWorkspaceSweeper,
			name:  "workspace sweeper",
			start: svcs.Workspaces.Run,
		})
	}
	if svcs.Audit != nil {
		out = append(out, backgroundService{
			mode:  config.ServiceModeAuditPruner,
			name:  "audit pruner",
			start: svcs.Audit.Run,
		})
	}
	return out
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

func startServices(deps *serviceStartupDeps) (ServiceStartupResult, error) {
	server, err := startHTTPServerIfEnabled(deps)
	if err != nil {
		return ServiceStartupResult{}, err
	}
	return ServiceStartupResult{
		HTTPServer: server,
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}, nil
}

// RunServicesWithShutdown starts all enabled services and blocks until a
// shutdown signal arrives or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	result, err := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})
	if err != nil {
		return err
	}

	return waitForShutdown(shutdownConfig{
		ctx:             serviceCtx,
		cancel:          cancel,
		errCh:           errCh,
		httpServer:      result.HTTPServer,
		shutdownTimeout: cfg.Config.HTTP.ShutdownTimeout,
		logger:          logger,
		backgrounds:     result.Background,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

type shutdownConfig struct {
	ctx             context.Context
	cancel          context.CancelFunc
	errCh           <-chan error
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
	backgrounds     []backgroundServiceHandle
}

func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		// cfg.ctx is already cancelled here.
		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  cfg.httpServer,
			Timeout: cfg.shutdownTimeout,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}
	return nil
}

func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
