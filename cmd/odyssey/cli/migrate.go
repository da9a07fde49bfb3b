package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// MigrationRunner applies and inspects schema migrations.
type MigrationRunner interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
	Version(ctx context.Context) (int64, error)
}

// MigrateCLI drives the migrate subcommand.
type MigrateCLI struct {
	runner MigrationRunner
}

// NewMigrateCLI constructs the helper around runner.
func NewMigrateCLI(runner MigrationRunner) *MigrateCLI {
	return &MigrateCLI{runner: runner}
}

// MigrateOptions defines the arguments of the migrate command.
type MigrateOptions struct {
	Action     string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// MigrateSummary is printed with --json.
type MigrateSummary struct {
	Action  string `json:"action"`
	Version int64  `json:"version"`
}

// Command runs one migrate action and returns the process exit code.
func (c *MigrateCLI) Command(ctx context.Context, opts MigrateOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	action := strings.ToLower(strings.TrimSpace(opts.Action))
	if action == "" {
		action = "up"
	}
	var err error
	switch action {
	case "up":
		err = c.runner.Up(ctx)
	case "down":
		err = c.runner.Down(ctx)
	case "version":
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "migrate: unknown action %q (expected up, down or version)\n", opts.Action)
		return 2
	}
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "migrate %s: %v\n", action, err)
		return 1
	}
	version, err := c.runner.Version(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "migrate version: %v\n", err)
		return 1
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(MigrateSummary{Action: action, Version: version}); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "migrate: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	_, _ = fmt.Fprintf(opts.Stdout, "migrate %s: schema at version %d\n", action, version)
	return 0
}
