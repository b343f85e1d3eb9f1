package config

import (
	"strings"
	"time"
)

// PlatformConfig points the dashboard at the learning platform's admin API.
type PlatformConfig struct {
	// BaseURL is the API root, e.g. "https://api.example.com".
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:5000"`

	// Timeout bounds one platform round trip.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`

	// PageSize is the number of rows requested per list page.
	PageSize int `env:"PAGE_SIZE" envDefault:"10"`

	// Response mapping overrides (JMESPath). Empty values use the defaults.
	RowsPath       string `env:"ROWS_PATH"`
	TotalPagesPath string `env:"TOTAL_PAGES_PATH"`
	TokenPath      string `env:"TOKEN_PATH"`
	MessagePath    string `env:"MESSAGE_PATH"`
}

// Sanitize applies guardrails to platform configuration values.
func (p *PlatformConfig) Sanitize() {
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if p.Timeout <= 0 {
		p.Timeout = 15 * time.Second
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// ListConfig controls list screen behaviour.
type ListConfig struct {
	// SearchDebounce is how long typing must pause before a search is sent.
	SearchDebounce time.Duration `env:"SEARCH_DEBOUNCE" envDefault:"500ms"`

	// RefreshInterval refetches a list on view when its rows are older than this.
	// Zero disables time-based refetching.
	RefreshInterval time.Duration `env:"LIST_REFRESH_INTERVAL" envDefault:"0s"`

	// WorkspaceIdleTTL evicts an admin's list state after this much inactivity.
	WorkspaceIdleTTL time.Duration `env:"WORKSPACE_IDLE_TTL" envDefault:"30m"`

	// DashboardCacheTTL caches dashboard totals per admin.
	DashboardCacheTTL time.Duration `env:"DASHBOARD_CACHE_TTL" envDefault:"30s"`
}

// Sanitize applies guardrails to list configuration values.
func (l *ListConfig) Sanitize() {
	if l.SearchDebounce < 0 {
		l.SearchDebounce = 0
	}
	if l.SearchDebounce > 5*time.Second {
		l.SearchDebounce = 5 * time.Second
	}
	if l.RefreshInterval < 0 {
		l.RefreshInterval = 0
	}
	if l.WorkspaceIdleTTL < time.Minute {
		l.WorkspaceIdleTTL = time.Minute
	}
	if l.DashboardCacheTTL < 0 {
		l.DashboardCacheTTL = 0
	}
}
