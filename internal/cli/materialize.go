package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eurobios-mews-labs/acrocord/internal/engine"
)

// newMaterializeCmd creates the materialize command.
func (a *app) newMaterializeCmd() *cobra.Command {
	var (
		force      bool
		parallel   bool
		appendRows bool
	)

	cmd := &cobra.Command{
		Use:   "materialize [schema.table ...]",
		Short: "Build and persist tables in dependency order",
		Long: `Materialize the named tables and everything they reference through
foreign keys, in dependency order. With no arguments, every registered
table is materialized.`,
		Example: `  # Materialize everything registered
  acrocord materialize

  # Materialize one table and its foreign-key closure
  acrocord materialize ref.building

  # Rebuild from scratch, independent tables in parallel
  acrocord materialize --force --parallel`,
		Aliases: []string{"build"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			roots, err := a.resolveRoots(args)
			if err != nil {
				return err
			}
			if len(roots) == 0 {
				fmt.Fprintln(out, "No tables registered")
				return nil
			}

			eng, err := a.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer eng.Close()

			start := time.Now()
			report, runErr := eng.Materialize(cmd.Context(), engine.Options{
				Force:    force,
				Parallel: parallel,
				Append:   appendRows,
			}, roots...)
			if report == nil {
				// structural failure, nothing was attempted
				return runErr
			}

			for _, name := range report.Succeeded {
				fmt.Fprintf(out, "  cached   %s\n", name)
			}
			for _, f := range report.Failed {
				fmt.Fprintf(out, "  failed   %s: %v\n", f.Table, f.Err)
			}
			for _, name := range report.Skipped {
				fmt.Fprintf(out, "  skipped  %s\n", name)
			}

			elapsed := time.Since(start).Round(time.Millisecond)
			fmt.Fprintf(out, "Run %s: %d cached, %d failed, %d skipped in %s\n",
				report.RunID, len(report.Succeeded), len(report.Failed), len(report.Skipped), elapsed)

			return runErr
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Rebuild tables even when already cached")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Materialize independent tables concurrently")
	cmd.Flags().BoolVar(&appendRows, "append", false, "Append rows instead of replacing existing data")

	return cmd
}
