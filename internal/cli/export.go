package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eurobios-mews-labs/acrocord/internal/export"
)

// newExportCmd creates the export command.
func (a *app) newExportCmd() *cobra.Command {
	var (
		outPath  string
		describe bool
	)

	cmd := &cobra.Command{
		Use:   "export <schema.table>",
		Short: "Export a materialized table as CSV or a terminal table",
		Long: `Read a table through the engine (cache first, then the store) and
render it. With --output the rows are written as a CSV file; otherwise
they render as an aligned table on stdout. --describe exports the column
documentation instead of the data.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, name, err := splitQualified(args[0])
			if err != nil {
				return err
			}

			eng, err := a.openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer eng.Close()

			cols, rows, err := eng.MaterializedRows(cmd.Context(), schema, name)
			if err != nil {
				return err
			}

			if describe {
				if outPath != "" {
					return export.WriteDescriptionFile(outPath, cols)
				}
				return export.WriteDescription(cmd.OutOrStdout(), cols)
			}

			if outPath != "" {
				if err := export.WriteCSVFile(outPath, cols, rows); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(rows), outPath)
				return nil
			}

			export.Render(cmd.OutOrStdout(), cols, rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write CSV to this file instead of rendering")
	cmd.Flags().BoolVar(&describe, "describe", false, "Export column documentation instead of data")

	return cmd
}
