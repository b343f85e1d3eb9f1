package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/edukit/admin-dashboard/config"
	"github.com/edukit/admin-dashboard/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	usage       string
	run         commandFn
	// offline commands never reach the platform and skip config loading.
	offline bool
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
	Getenv func(string) string
}

var errUsage = errors.New("invalid usage")

func main() {
	logger := bootstrap.InitLogger(os.Getenv("LOG_LEVEL"))
	os.Exit(runMain(os.Args[1:], os.Stdout, os.Stderr, logger)) //nolint:forbidigo // CLI must report status to the shell
}

func runMain(args []string, stdout, stderr io.Writer, logger *slog.Logger) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	name := args[0]
	cmd, ok := commands()[name]
	if !ok {
		writef(stderr, "unknown command %q\n\n", name)
		printUsage(stderr)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{Ctx: ctx, Logger: logger, Out: stdout, Getenv: os.Getenv}
	if !cmd.offline {
		cfg, err := bootstrap.LoadConfig()
		if err != nil {
			logger.ErrorContext(ctx, "load config", "error", err)
			return 1
		}
		cmdCtx.Config = cfg
	}

	if err := cmd.run(cmdCtx, args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			writef(stderr, "%v\nusage: admin-dashboard-cli %s\n", err, cmd.usage)
			return 2
		}
		logger.ErrorContext(ctx, "command failed", "command", name, "error", err)
		return 1
	}
	return 0
}

func commands() map[string]command {
	return map[string]command{
		"signin": {
			name:        "signin",
			description: "Sign in with ADMIN_EMAIL / ADMIN_PASSWORD and print the admin identity",
			usage:       "signin",
			run:         runSignIn,
		},
		"list": {
			name:        "list",
			description: "Print one page of an entity list",
			usage:       "list <entity> [-page N] [-search TEXT] [-status all|active|inactive] [-verification STATUS]",
			run:         runList,
		},
		"toggle": {
			name:        "toggle",
			description: "Flip the active status of a learner, instructor, business or coupon",
			usage:       "toggle <entity> <id> [-page N] [-search TEXT]",
			run:         runToggle,
		},
		"verify": {
			name:        "verify",
			description: "Move a course to a new verification status",
			usage:       "verify <courseID> <status> [-remarks TEXT] [-page N] [-search TEXT]",
			run:         runVerify,
		},
		"pages": {
			name:        "pages",
			description: "Print the pagination range for a page",
			usage:       "pages <current> <total> [-siblings N]",
			run:         runPages,
			offline:     true,
		},
	}
}

func printUsage(w io.Writer) {
	writef(w, "Usage: admin-dashboard-cli <command> [args]\n\n")
	writef(w, "Available commands:\n")
	names := make([]string, 0, len(commands()))
	for name := range commands() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		writef(w, "  %-8s %s\n", name, commands()[name].description)
	}
}

// writef ignores write errors; output goes to a terminal or pipe.
func writef(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
