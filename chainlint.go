// Package chainlint detects broken &&-chains in shell test scripts and
// reports each offending test body with inline annotations.
package chainlint

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jiangxin/chainlint/config"
	"github.com/jiangxin/chainlint/output"
	"github.com/jiangxin/chainlint/runner"
)

// Config assembles a Linter. Pointer fields override the user config
// file and environment; nil fields fall back to them.
type Config struct {
	// EmitAll reports every test, not just flagged ones.
	EmitAll *bool

	// Jobs is the worker count; values below 1 select the CPU count.
	Jobs *int

	// ShowStats prints run statistics to Stderr after all work.
	ShowStats *bool

	// Color is "auto", "always", or "never" (default "auto").
	Color *string

	// Logger receives diagnostics. If nil, a discard logger is used.
	Logger *slog.Logger

	// Stdout receives reports (default os.Stdout).
	Stdout io.Writer

	// Stderr receives statistics (default os.Stderr).
	Stderr io.Writer
}

// Linter is a configured lint run factory.
type Linter struct {
	pool      *runner.Pool
	showStats bool
	stderr    io.Writer
}

// New builds a Linter, merging cfg over the user config file and
// CHAINLINT_* environment.
func New(cfg Config) (*Linter, error) {
	userCfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load user config: %w", err)
	}

	if cfg.EmitAll == nil {
		cfg.EmitAll = userCfg.EmitAll
	}
	if cfg.Jobs == nil {
		cfg.Jobs = userCfg.Jobs
	}
	if cfg.ShowStats == nil {
		cfg.ShowStats = userCfg.ShowStats
	}
	if cfg.Color == nil {
		cfg.Color = userCfg.Color
	}

	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	color := "auto"
	if cfg.Color != nil {
		color = *cfg.Color
	}

	opts := []runner.Option{
		runner.WithOutput(stdout),
		runner.WithDecorator(output.Decorator(stdout, color)),
	}
	if cfg.EmitAll != nil {
		opts = append(opts, runner.WithEmitAll(*cfg.EmitAll))
	}
	if cfg.Jobs != nil {
		opts = append(opts, runner.WithJobs(*cfg.Jobs))
	}
	if cfg.Logger != nil {
		opts = append(opts, runner.WithLogger(cfg.Logger))
	}

	return &Linter{
		pool:      runner.New(opts...),
		showStats: cfg.ShowStats != nil && *cfg.ShowStats,
		stderr:    stderr,
	}, nil
}

// Run expands the patterns, lints every matching script, and returns the
// process exit code: 1 when any annotation was emitted, else 0. No
// patterns (or globs that all expand empty) is a clean run.
func (l *Linter) Run(patterns []string) int {
	paths := runner.ExpandGlobs(patterns)
	summary := l.pool.Check(paths)
	if l.showStats {
		_, _ = io.WriteString(l.stderr, summary.Format())
	}
	if summary.Errs > 0 {
		return 1
	}
	return 0
}

// Run builds a Linter from cfg and runs it over patterns.
func Run(cfg Config, patterns []string) (int, error) {
	l, err := New(cfg)
	if err != nil {
		return 1, err
	}
	return l.Run(patterns), nil
}
