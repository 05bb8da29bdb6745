package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eurobios-mews-labs/acrocord/pkg/coltype"
	"github.com/eurobios-mews-labs/acrocord/pkg/table"
)

// BaseSQLAdapter holds the shared database/sql plumbing for SQL-backed
// adapters. Concrete adapters embed it, set Dialect and Placeholder on
// Connect, and override the statements their engine does not support.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger

	// Dialect is the name passed to coltype.Describe for column types.
	Dialect string

	// Placeholder formats the i-th (1-based) bind parameter.
	Placeholder func(i int) string
}

// Close closes the underlying connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		return b.DB.Close()
	}
	return nil
}

func (b *BaseSQLAdapter) ready() error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	return nil
}

// quoteIdent quotes an identifier for safe interpolation into DDL.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func qualify(schema, name string) string {
	return quoteIdent(schema) + "." + quoteIdent(name)
}

// CreateSchema creates the schema if it does not exist.
func (b *BaseSQLAdapter) CreateSchema(ctx context.Context, name string) error {
	if err := b.ready(); err != nil {
		return err
	}
	stmt := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", quoteIdent(name))
	b.Logger.Debug("creating schema", slog.String("schema", name))
	if _, err := b.DB.ExecContext(ctx, stmt); err != nil {
		return &StoreError{Op: "create schema", Schema: name, Cause: err}
	}
	return nil
}

// TableExists checks information_schema for the physical table.
func (b *BaseSQLAdapter) TableExists(ctx context.Context, schema, name string) (bool, error) {
	if err := b.ready(); err != nil {
		return false, err
	}
	query := fmt.Sprintf(
		"SELECT count(*) FROM information_schema.tables WHERE table_schema = %s AND table_name = %s",
		b.Placeholder(1), b.Placeholder(2))

	var count int
	if err := b.DB.QueryRowContext(ctx, query, schema, name).Scan(&count); err != nil {
		return false, &StoreError{Op: "exists", Schema: schema, Table: name, Cause: err}
	}
	return count > 0, nil
}

// WriteTable creates the table if needed and writes the rows in one
// transaction. Replace mode clears existing rows first; Append keeps them.
func (b *BaseSQLAdapter) WriteTable(ctx context.Context, schema, name string, cols []table.Column, rows []table.Row, mode WriteMode) error {
	if err := b.ready(); err != nil {
		return err
	}

	defs := make([]string, len(cols))
	for i, c := range cols {
		storage, err := coltype.Describe(c.Type, b.Dialect)
		if err != nil {
			return err
		}
		defs[i] = quoteIdent(c.Name) + " " + storage
	}
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		qualify(schema, name), strings.Join(defs, ", "))

	b.Logger.Debug("writing table",
		slog.String("table", schema+"."+name),
		slog.Int("rows", len(rows)),
		slog.String("mode", mode.String()))

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return &StoreError{Op: "write", Schema: schema, Table: name, Cause: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, create); err != nil {
		return &StoreError{Op: "write", Schema: schema, Table: name, Cause: err}
	}

	if mode == Replace {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+qualify(schema, name)); err != nil {
			return &StoreError{Op: "write", Schema: schema, Table: name, Cause: err}
		}
	}

	if len(rows) > 0 {
		quoted := make([]string, len(cols))
		holders := make([]string, len(cols))
		for i, c := range cols {
			quoted[i] = quoteIdent(c.Name)
			holders[i] = b.Placeholder(i + 1)
		}
		insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			qualify(schema, name), strings.Join(quoted, ", "), strings.Join(holders, ", "))

		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return &StoreError{Op: "write", Schema: schema, Table: name, Cause: err}
		}
		defer func() { _ = stmt.Close() }()

		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, []any(row)...); err != nil {
				return &StoreError{Op: "write", Schema: schema, Table: name, Cause: err}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "write", Schema: schema, Table: name, Cause: err}
	}
	return nil
}

// ReadTable retrieves every row in declared column order, converting the
// scanned values back to the canonical representation for each semantic
// type. NULLs come back as nil.
func (b *BaseSQLAdapter) ReadTable(ctx context.Context, schema, name string, cols []table.Column) ([]table.Row, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c.Name)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), qualify(schema, name))

	rows, err := b.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, &StoreError{Op: "read", Schema: schema, Table: name, Cause: err}
	}
	defer func() { _ = rows.Close() }()

	var out []table.Row
	for rows.Next() {
		dests := make([]any, len(cols))
		for i, c := range cols {
			dests[i] = scanDest(c.Type)
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, &StoreError{Op: "read", Schema: schema, Table: name, Cause: err}
		}
		row := make(table.Row, len(cols))
		for i := range cols {
			row[i] = scanValue(dests[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "read", Schema: schema, Table: name, Cause: err}
	}
	return out, nil
}

func scanDest(t coltype.Type) any {
	switch t {
	case coltype.Integer:
		return new(sql.NullInt64)
	case coltype.Float:
		return new(sql.NullFloat64)
	case coltype.Timestamp:
		return new(sql.NullTime)
	case coltype.Boolean:
		return new(sql.NullBool)
	default:
		return new(sql.NullString)
	}
}

func scanValue(dest any) any {
	switch v := dest.(type) {
	case *sql.NullInt64:
		if v.Valid {
			return v.Int64
		}
	case *sql.NullFloat64:
		if v.Valid {
			return v.Float64
		}
	case *sql.NullTime:
		if v.Valid {
			return v.Time
		}
	case *sql.NullBool:
		if v.Valid {
			return v.Bool
		}
	case *sql.NullString:
		if v.Valid {
			return v.String
		}
	}
	return nil
}

// InstallPrimaryKey adds a primary key constraint on col.
func (b *BaseSQLAdapter) InstallPrimaryKey(ctx context.Context, schema, name, col string) error {
	if err := b.ready(); err != nil {
		return err
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)",
		qualify(schema, name), quoteIdent(name+"_pkey"), quoteIdent(col))
	if _, err := b.DB.ExecContext(ctx, stmt); err != nil {
		return &ConstraintError{Schema: schema, Table: name, Column: col, Ref: "primary key", Cause: err}
	}
	return nil
}

// InstallForeignKey adds a foreign-key constraint from col to
// refSchema.refName(refCol). The statement fails when existing values
// violate the constraint, which the engine reports as fatal for the table.
func (b *BaseSQLAdapter) InstallForeignKey(ctx context.Context, schema, name, col, refSchema, refName, refCol string) error {
	if err := b.ready(); err != nil {
		return err
	}
	constraint := fmt.Sprintf("%s_%s_fkey", name, col)
	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		qualify(schema, name), quoteIdent(constraint), quoteIdent(col),
		qualify(refSchema, refName), quoteIdent(refCol))

	b.Logger.Debug("installing foreign key",
		slog.String("table", schema+"."+name),
		slog.String("column", col),
		slog.String("references", refSchema+"."+refName+"("+refCol+")"))

	if _, err := b.DB.ExecContext(ctx, stmt); err != nil {
		return &ConstraintError{
			Schema: schema, Table: name, Column: col,
			Ref:   refSchema + "." + refName + "(" + refCol + ")",
			Cause: err,
		}
	}
	return nil
}

// CommentColumn attaches the declared description to the column.
func (b *BaseSQLAdapter) CommentColumn(ctx context.Context, schema, name, col, comment string) error {
	if err := b.ready(); err != nil {
		return err
	}
	if comment == "" {
		return nil
	}
	stmt := fmt.Sprintf("COMMENT ON COLUMN %s.%s IS '%s'",
		qualify(schema, name), quoteIdent(col), strings.ReplaceAll(comment, "'", "''"))
	if _, err := b.DB.ExecContext(ctx, stmt); err != nil {
		return &StoreError{Op: "comment", Schema: schema, Table: name, Cause: err}
	}
	return nil
}

// checkReferential validates a foreign key by counting orphaned values.
// Used by adapters whose engine cannot alter constraints in place.
func (b *BaseSQLAdapter) checkReferential(ctx context.Context, schema, name, col, refSchema, refName, refCol string) error {
	query := fmt.Sprintf(
		"SELECT count(*) FROM %s t WHERE t.%s IS NOT NULL AND NOT EXISTS (SELECT 1 FROM %s r WHERE r.%s = t.%s)",
		qualify(schema, name), quoteIdent(col),
		qualify(refSchema, refName), quoteIdent(refCol), quoteIdent(col))

	var orphans int
	if err := b.DB.QueryRowContext(ctx, query).Scan(&orphans); err != nil {
		return &StoreError{Op: "constraint check", Schema: schema, Table: name, Cause: err}
	}
	if orphans > 0 {
		return &ConstraintError{
			Schema: schema, Table: name, Column: col,
			Ref:   refSchema + "." + refName + "(" + refCol + ")",
			Cause: fmt.Errorf("%d value(s) missing from referenced column", orphans),
		}
	}
	return nil
}
