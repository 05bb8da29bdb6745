// Package cli provides the command-line interface for acrocord. The root
// command is built around an injected descriptor registry, so embedding
// programs can expose their own declared tables through the same commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eurobios-mews-labs/acrocord/internal/config"
	"github.com/eurobios-mews-labs/acrocord/internal/registry"
	"github.com/eurobios-mews-labs/acrocord/pkg/table"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// app carries the state shared by all commands after configuration loads.
type app struct {
	registry *registry.Registry

	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

// NewRootCmd creates the root command over the given registry.
func NewRootCmd(reg *registry.Registry) *cobra.Command {
	a := &app{registry: reg}

	rootCmd := &cobra.Command{
		Use:   "acrocord",
		Short: "Declarative table definitions over a relational store",
		Long: `acrocord materializes declared tables into a relational store.

Tables are declared once (columns, primary key, foreign keys); acrocord
derives the creation order from the foreign-key graph, builds and validates
rows, persists them, and installs key constraints.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(a.cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./acrocord.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("state-path", "", "Path to the run history database")
	rootCmd.PersistentFlags().String("write-mode", "", "Default write mode (replace|append)")

	rootCmd.AddCommand(a.newMaterializeCmd())
	rootCmd.AddCommand(a.newOrderCmd())
	rootCmd.AddCommand(a.newExportCmd())
	rootCmd.AddCommand(a.newRunsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the root command over the given registry.
func Execute(reg *registry.Registry) error {
	rootCmd := NewRootCmd(reg)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newLogger builds the CLI logger. Verbose mode enables debug records.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveRoots maps command arguments to registered descriptors. With no
// arguments every registered table is a root.
func (a *app) resolveRoots(args []string) ([]table.Table, error) {
	if len(args) == 0 {
		return a.registry.All(), nil
	}

	roots := make([]table.Table, 0, len(args))
	for _, arg := range args {
		t, ok := a.registry.Resolve(arg)
		if !ok {
			return nil, fmt.Errorf("table %q is not registered", arg)
		}
		roots = append(roots, t)
	}
	return roots, nil
}

// splitQualified splits a schema.table argument.
func splitQualified(qualified string) (schema, name string, err error) {
	schema, name, ok := strings.Cut(qualified, ".")
	if !ok || schema == "" || name == "" {
		return "", "", fmt.Errorf("expected schema.table, got %q", qualified)
	}
	return schema, name, nil
}
