package bootstrap

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukit/admin-dashboard/config"
	"github.com/edukit/admin-dashboard/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestErrorChannelCapacity(t *testing.T) {
	tests := []struct {
		name  string
		modes []config.ServiceMode
		want  int
	}{
		{name: "no services enabled", want: 0},
		{name: "http only", modes: []config.ServiceMode{config.ServiceModeHTTP}, want: 1},
		{
			name:  "http and sweeper",
			modes: []config.ServiceMode{config.ServiceModeHTTP, config.ServiceModeWorkspaceSweeper},
			want:  2,
		},
		{name: "all services enabled", modes: config.ValidServiceModes(), want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enabled := make(map[config.ServiceMode]bool, len(tt.modes))
			for _, mode := range tt.modes {
				enabled[mode] = true
			}
			assert.Equal(t, tt.want, errorChannelCapacity(enabled))
			assert.Equal(t, tt.want+1, errorChannelBufferSize(enabled))
		})
	}
}

func TestNewServices_RequiresInfrastructure(t *testing.T) {
	cfg := &config.AppConfig{}

	_, err := NewServices(nil)
	require.Error(t, err)

	_, err = NewServices(&ServiceDeps{Config: cfg, Logger: discardLogger()})
	require.ErrorContains(t, err, "database is required")

	_, err = NewServices(&ServiceDeps{Config: cfg, DB: &sql.DB{}, Logger: discardLogger()})
	require.ErrorContains(t, err, "redis client is required")
}

func TestBuildBackgroundServices(t *testing.T) {
	ws, err := service.NewWorkspaces(service.WorkspacesOptions{
		Clients: nopClients{},
		Tokens:  nopTokens{},
		Logger:  discardLogger(),
	})
	require.NoError(t, err)

	deps := &serviceStartupDeps{cfg: &ServiceOrchestrationConfig{
		Services: ServiceContainer{Workspaces: ws},
	}}
	svcs := buildBackgroundServices(deps)
	require.Len(t, svcs, 1)
	assert.Equal(t, config.ServiceModeWorkspaceSweeper, svcs[0].mode)

	assert.Nil(t, buildBackgroundServices(nil))
}

func TestLaunchBackground_SkipsDisabledModes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{}, 1)
	svc := backgroundService{
		mode: config.ServiceModeAuditPruner,
		name: "audit pruner",
		start: func(ctx context.Context) error {
			started <- struct{}{}
			<-ctx.Done()
			return nil
		},
	}
	deps := &serviceStartupDeps{
		ctx:             ctx,
		logger:          discardLogger(),
		enabledServices: map[config.ServiceMode]bool{config.ServiceModeHTTP: true},
		errCh:           make(chan error, 1),
	}
	assert.Empty(t, startBackgroundServices(deps, []backgroundService{svc}))

	deps.enabledServices[config.ServiceModeAuditPruner] = true
	handles := startBackgroundServices(deps, []backgroundService{svc})
	require.Len(t, handles, 1)
	<-started
	cancel()
	<-handles[0].done
}

func TestLaunchBackground_ForwardsErrors(t *testing.T) {
	deps := &serviceStartupDeps{
		ctx:             context.Background(),
		logger:          discardLogger(),
		enabledServices: map[config.ServiceMode]bool{config.ServiceModeAuditPruner: true},
		errCh:           make(chan error, 1),
	}
	done := launchBackground(deps.ctx, deps, backgroundService{
		mode:  config.ServiceModeAuditPruner,
		name:  "audit pruner",
		start: func(context.Context) error { return assert.AnError },
	})
	<-done
	err := <-deps.errCh
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "audit pruner failed")
}

func TestRouterServices(t *testing.T) {
	cfg := &config.AppConfig{IsDev: true}
	cfg.Session.CookieName = "admin_sid"
	cfg.HTTP.CookieDomain = "admin.example.com"

	rs := routerServices(cfg, ServiceContainer{}, nil, discardLogger())
	assert.Equal(t, "admin_sid", rs.Cookies.Name)
	assert.Equal(t, "admin.example.com", rs.Cookies.Domain)
	assert.True(t, rs.Cookies.Insecure)
	assert.Empty(t, rs.HealthChecks)
	assert.Nil(t, rs.Auth)
	assert.Nil(t, rs.Workspaces)
}

func TestBuildHTTPHandler_ServesHealth(t *testing.T) {
	cfg := &config.AppConfig{}
	h, err := buildHTTPHandler(httpHandlerConfig{
		Logger:   discardLogger(),
		Services: routerServices(cfg, ServiceContainer{}, nil, discardLogger()),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestShutdownHTTPServer_NilServer(t *testing.T) {
	require.NoError(t, ShutdownHTTPServer(ShutdownConfig{}))
}
