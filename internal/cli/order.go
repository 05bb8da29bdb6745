package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eurobios-mews-labs/acrocord/internal/resolver"
	"github.com/eurobios-mews-labs/acrocord/pkg/table"
)

// newOrderCmd creates the order command. It works purely over the declared
// metadata and never connects to the store.
func (a *app) newOrderCmd() *cobra.Command {
	var showLevels bool

	cmd := &cobra.Command{
		Use:   "order [schema.table ...]",
		Short: "Print the resolved creation order",
		Long: `Resolve the foreign-key closure of the named tables (or all registered
tables) and print the creation order, referenced tables first.`,
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

			if showLevels {
				levels, err := resolver.Levels(roots...)
				if err != nil {
					return err
				}
				for i, level := range levels {
					fmt.Fprintf(out, "Level %d:\n", i)
					for _, t := range level {
						fmt.Fprintf(out, "  %s\n", table.QualifiedName(t))
					}
				}
				return nil
			}

			order, err := resolver.Resolve(roots...)
			if err != nil {
				return err
			}
			for i, t := range order {
				fmt.Fprintf(out, "%3d. %s\n", i+1, table.QualifiedName(t))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showLevels, "levels", false, "Group the order into parallelizable levels")

	return cmd
}
