package bootstrap

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukit/admin-dashboard/config"
	"github.com/edukit/admin-dashboard/internal/adapters/platformapi"
	domainauth "github.com/edukit/admin-dashboard/internal/domain/auth"
)

type nopClients struct{}

func (nopClients) NewSession(domainauth.Tokens) (*platformapi.Session, error) { return nil, nil }

func (nopClients) NewClient(*platformapi.Session, platformapi.Hooks) *platformapi.Client { return nil }

type nopTokens struct{}

func (nopTokens) PersistTokens(context.Context, string, domainauth.Tokens) error { return nil }

func (nopTokens) Expire(context.Context, string) error { return nil }

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}

func TestInitLogger_FiltersBelowLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := initLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestLoadConfig_AppliesGuardrails(t *testing.T) {
	t.Setenv("SERVICES", "http")
	t.Setenv("PLATFORM_BASE_URL", "https://api.example.com/")
	t.Setenv("PLATFORM_PAGE_SIZE", "500")
	t.Setenv("LOG_LEVEL", "verbose")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.Platform.BaseURL)
	assert.Equal(t, 100, cfg.Platform.PageSize)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
	assert.Equal(t, []string{"http"}, GetEnabledServices(&cfg))
}

func TestValidateServiceConfig(t *testing.T) {
	tests := []struct {
		name     string
		services string
		baseURL  string
		wantErr  string
	}{
		{name: "http with platform", services: "http,workspace-sweeper", baseURL: "https://api.example.com"},
		{name: "pruner only", services: "audit-pruner"},
		{name: "unknown service", services: "http,mailer", baseURL: "https://api.example.com", wantErr: "invalid service"},
		{name: "empty", services: "", wantErr: "at least one service"},
		{name: "sweeper without http", services: "workspace-sweeper", wantErr: "requires the http service"},
		{name: "http without platform", services: "http", wantErr: "PLATFORM_BASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.AppConfig{Services: tt.services}
			cfg.Platform.BaseURL = tt.baseURL
			err := ValidateServiceConfig(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}

	require.Error(t, ValidateServiceConfig(nil))
}

func TestGetEnabledServices_StableOrder(t *testing.T) {
	cfg := &config.AppConfig{Services: "audit-pruner, http ,workspace-sweeper"}
	assert.Equal(t, []string{"http", "workspace-sweeper", "audit-pruner"}, GetEnabledServices(cfg))

	assert.Empty(t, GetEnabledServices(&config.AppConfig{Services: "bogus"}))
	assert.Empty(t, GetEnabledServices(nil))
}
