package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	Register("duckdb", func() Adapter { return NewDuckDB(nil) })
}

// DuckDBAdapter implements Adapter for DuckDB.
type DuckDBAdapter struct {
	BaseSQLAdapter
}

// NewDuckDB creates a DuckDB adapter. A nil logger discards output.
func NewDuckDB(logger *slog.Logger) *DuckDBAdapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &DuckDBAdapter{}
	a.Logger = logger
	a.Dialect = "duckdb"
	a.Placeholder = func(int) string { return "?" }
	return a
}

// DialectName returns the storage dialect.
func (a *DuckDBAdapter) DialectName() string { return "duckdb" }

// Connect opens a DuckDB database. Use ":memory:" for in-memory.
func (a *DuckDBAdapter) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// InstallPrimaryKey validates key uniqueness instead of altering the
// table: DuckDB cannot add key constraints to an existing table, so the
// adapter enforces the invariant by query.
func (a *DuckDBAdapter) InstallPrimaryKey(ctx context.Context, schema, name, col string) error {
	if err := a.ready(); err != nil {
		return err
	}
	query := fmt.Sprintf(
		"SELECT count(*) - count(DISTINCT %s) FROM %s",
		quoteIdent(col), qualify(schema, name))

	var dupes int
	if err := a.DB.QueryRowContext(ctx, query).Scan(&dupes); err != nil {
		return &StoreError{Op: "constraint check", Schema: schema, Table: name, Cause: err}
	}
	if dupes > 0 {
		return &ConstraintError{
			Schema: schema, Table: name, Column: col, Ref: "primary key",
			Cause: fmt.Errorf("%d duplicate value(s)", dupes),
		}
	}
	return nil
}

// InstallForeignKey validates referential integrity by anti-join for the
// same reason.
func (a *DuckDBAdapter) InstallForeignKey(ctx context.Context, schema, name, col, refSchema, refName, refCol string) error {
	if err := a.ready(); err != nil {
		return err
	}
	return a.checkReferential(ctx, schema, name, col, refSchema, refName, refCol)
}
