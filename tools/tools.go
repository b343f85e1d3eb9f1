//go:build tools

// Package tools documents development tool dependencies.
// These tools are installed globally via `go install` and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools (install via `go install`):
//
// Air - Live reload while editing Go code; run with DEV=true so templates
// and static files are also read from disk.
//   Install: go install github.com/air-verse/air@v1.63.0
//   Docs: https://github.com/air-verse/air
//
// mockgen - Regenerates internal/mocks from the core repository ports.
//   Run: go generate ./internal/mocks
//   Version: v0.6.0 (pinned in internal/mocks/generate.go)
