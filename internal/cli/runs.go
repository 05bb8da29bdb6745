package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/eurobios-mews-labs/acrocord/internal/state"
)

// newRunsCmd creates the runs command.
func (a *app) newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Show materialization run history",
		Long: `List recorded materialization runs, newest first. With a run ID,
show the per-table outcomes of that run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				return printTableRuns(cmd, store, args[0])
			}
			return printRuns(cmd, store, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")

	return cmd
}

func printRuns(cmd *cobra.Command, store state.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}

	w := table.NewWriter()
	w.SetOutputMirror(cmd.OutOrStdout())
	w.AppendHeader(table.Row{"run", "status", "started", "completed", "error"})
	for _, r := range runs {
		completed := "-"
		if r.CompletedAt != nil {
			completed = r.CompletedAt.Format(time.DateTime)
		}
		w.AppendRow(table.Row{
			r.ID, string(r.Status), r.StartedAt.Format(time.DateTime), completed, r.Error,
		})
	}
	w.SetStyle(table.StyleLight)
	w.Render()
	return nil
}

func printTableRuns(cmd *cobra.Command, store state.Store, runID string) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	trs, err := store.ListTableRuns(runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %s\n", run.ID, run.Status)

	w := table.NewWriter()
	w.SetOutputMirror(cmd.OutOrStdout())
	w.AppendHeader(table.Row{"table", "status", "rows", "duration", "error"})
	for _, tr := range trs {
		w.AppendRow(table.Row{
			tr.Schema + "." + tr.Table,
			string(tr.Status),
			tr.Rows,
			fmt.Sprintf("%dms", tr.DurationMS),
			tr.Error,
		})
	}
	w.SetStyle(table.StyleLight)
	w.Render()
	return nil
}
