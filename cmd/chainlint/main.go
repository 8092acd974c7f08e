// Command chainlint lints shell test scripts for broken &&-chains.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jiangxin/chainlint"
)

var version = "dev"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{}))

	var (
		emitAll   bool
		jobs      int
		showStats bool
		color     string
	)

	root := &cobra.Command{
		Use:   "chainlint [flags] [pattern...]",
		Short: "Detect broken &&-chains in shell test scripts",
		Long: `chainlint checks the body of every test_expect_success and
test_expect_failure definition in the named scripts and annotates each
command whose failure would be silently swallowed by a missing '&&'.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := chainlint.Config{Logger: logger}
			if cmd.Flags().Changed("emit-all") {
				cfg.EmitAll = &emitAll
			}
			if cmd.Flags().Changed("jobs") {
				cfg.Jobs = &jobs
			}
			if cmd.Flags().Changed("stats") {
				cfg.ShowStats = &showStats
			}
			if cmd.Flags().Changed("color") {
				cfg.Color = &color
			}

			code, err := chainlint.Run(cfg, args)
			if err != nil {
				return err
			}
			if code != 0 {
				// reports already explain the findings
				os.Exit(code)
			}
			return nil
		},
	}

	root.Flags().BoolVar(&emitAll, "emit-all", false, "report every test, even without findings")
	root.Flags().IntVarP(&jobs, "jobs", "j", 0, "worker count (below 1 selects the CPU count)")
	root.Flags().BoolVar(&showStats, "stats", false, "print run statistics to stderr")
	root.Flags().StringVar(&color, "color", "auto", "colorize reports: auto, always, or never")
	root.Flags().SetNormalizeFunc(normalizeFlag)

	if err := root.Execute(); err != nil {
		logger.Error("chainlint failed", "error", err)
		fmt.Fprintln(os.Stderr, "Run 'chainlint --help' for usage.")
		os.Exit(1)
	}
}

// normalizeFlag accepts the historical --show-stats spelling.
func normalizeFlag(f *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "show-stats" {
		name = "stats"
	}
	return pflag.NormalizedName(name)
}
