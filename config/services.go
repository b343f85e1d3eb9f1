package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the web console.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeWorkspaceSweeper evicts idle admin workspaces.
	ServiceModeWorkspaceSweeper ServiceMode = "workspace-sweeper"
	// ServiceModeAuditPruner deletes audit entries past retention.
	ServiceModeAuditPruner ServiceMode = "audit-pruner"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeWorkspaceSweeper,
		ServiceModeAuditPruner,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeWorkspaceSweeper, ServiceModeAuditPruner:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, workspace-sweeper, audit-pruner)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// AuditConfig contains audit trail configuration.
type AuditConfig struct {
	// Retention is how long audit entries are kept.
	Retention time.Duration `env:"AUDIT_RETENTION" envDefault:"2160h"` // 90 days

	// PruneInterval is the pruner tick interval.
	PruneInterval time.Duration `env:"AUDIT_PRUNE_INTERVAL" envDefault:"1h"`

	// WriteTimeout bounds one audit insert; audit writes never fail the admin's action.
	WriteTimeout time.Duration `env:"AUDIT_WRITE_TIMEOUT" envDefault:"3s"`

	// PageSize is the number of entries per audit page.
	PageSize int `env:"AUDIT_PAGE_SIZE" envDefault:"25"`
}

// Sanitize applies guardrails to audit configuration values.
func (a *AuditConfig) Sanitize() {
	if a.Retention < 24*time.Hour {
		a.Retention = 24 * time.Hour
	}
	if a.PruneInterval < time.Minute {
		a.PruneInterval = time.Minute
	}
	if a.WriteTimeout <= 0 {
		a.WriteTimeout = 3 * time.Second
	}
	if a.PageSize < 1 {
		a.PageSize = 25
	}
	if a.PageSize > 500 {
		a.PageSize = 500
	}
}
