// Package table defines the declarative table contract. A concrete table
// implements the Table interface once per logical table; the resolver and
// the materialization engine consume descriptors read-only.
package table

import (
	"context"
	"fmt"

	"github.com/eurobios-mews-labs/acrocord/pkg/coltype"
)

// Column is a single typed column declaration.
type Column struct {
	// Name is the column name, unique within a table
	Name string

	// Type is the semantic type, immutable once declared
	Type coltype.Type

	// Description documents the column; persisted as a column comment
	Description string
}

// ForeignKey declares that a local column references a column of another
// declared table.
type ForeignKey struct {
	// Column is the local column name
	Column string

	// RefTable is the referenced descriptor
	RefTable Table

	// RefColumn is the referenced column name on RefTable
	RefColumn string
}

// Row is one row of values, positionally aligned with Columns().
type Row []any

// Table is the declaration contract every logical table implements.
// All declaration methods are pure and deterministic for the lifetime of
// the descriptor. BuildRows is the only place raw data is produced or
// fetched; it must not write to the store.
type Table interface {
	// TableName returns the database table name.
	TableName() string

	// SchemaName returns the database schema name.
	SchemaName() string

	// Columns returns the ordered column declarations.
	Columns() []Column

	// PrimaryKey returns the primary key column name, or "" for none.
	PrimaryKey() string

	// BuildRows produces the table's rows from its upstream source.
	// Returned rows are raw; the engine validates them with ValidateRows.
	BuildRows(ctx context.Context) ([]Row, error)
}

// ForeignKeyProvider is implemented by tables that declare foreign keys.
// Tables without it have no outgoing edges.
type ForeignKeyProvider interface {
	ForeignKeys() []ForeignKey
}

// QualifiedName returns "schema.table" for a descriptor.
func QualifiedName(t Table) string {
	return t.SchemaName() + "." + t.TableName()
}

// ForeignKeysOf returns the declared foreign keys of t, or nil when the
// descriptor does not implement ForeignKeyProvider.
func ForeignKeysOf(t Table) []ForeignKey {
	if p, ok := t.(ForeignKeyProvider); ok {
		return p.ForeignKeys()
	}
	return nil
}

// RowValidationError identifies the row and column that failed coercion
// during BuildRows validation.
type RowValidationError struct {
	Schema string
	Table  string
	Row    int
	Column string
	Cause  error
}

func (e *RowValidationError) Error() string {
	return fmt.Sprintf("%s.%s: row %d column %q: %v",
		e.Schema, e.Table, e.Row, e.Column, e.Cause)
}

func (e *RowValidationError) Unwrap() error { return e.Cause }

// Validate performs the structural checks on a descriptor: unique column
// names, primary key declared, foreign-key local and referenced columns
// declared, and no self-referencing foreign key. It never touches the
// store, so the resolver can dry-run a batch before any write.
func Validate(t Table) error {
	name := QualifiedName(t)
	cols := t.Columns()
	if len(cols) == 0 {
		return fmt.Errorf("table %s declares no columns", name)
	}

	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if c.Name == "" {
			return fmt.Errorf("table %s declares a column with an empty name", name)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("table %s declares column %q twice", name, c.Name)
		}
		seen[c.Name] = struct{}{}
	}

	if pk := t.PrimaryKey(); pk != "" {
		if _, ok := seen[pk]; !ok {
			return fmt.Errorf("table %s: primary key %q is not a declared column", name, pk)
		}
	}

	for _, fk := range ForeignKeysOf(t) {
		if _, ok := seen[fk.Column]; !ok {
			return fmt.Errorf("table %s: foreign key column %q is not a declared column", name, fk.Column)
		}
		if fk.RefTable == nil {
			return fmt.Errorf("table %s: foreign key %q references no table", name, fk.Column)
		}
		if QualifiedName(fk.RefTable) == name {
			return fmt.Errorf("table %s: foreign key %q references its own table", name, fk.Column)
		}
		if !hasColumn(fk.RefTable, fk.RefColumn) {
			return fmt.Errorf("table %s: foreign key %q references undeclared column %s.%s",
				name, fk.Column, QualifiedName(fk.RefTable), fk.RefColumn)
		}
	}

	return nil
}

func hasColumn(t Table, name string) bool {
	for _, c := range t.Columns() {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ValidateRows coerces every value of every row against the declared
// column types and returns the typed rows. The first failing value aborts
// with a RowValidationError naming the offending row index and column.
func ValidateRows(t Table, rows []Row) ([]Row, error) {
	cols := t.Columns()
	out := make([]Row, len(rows))

	for i, row := range rows {
		if len(row) != len(cols) {
			return nil, &RowValidationError{
				Schema: t.SchemaName(),
				Table:  t.TableName(),
				Row:    i,
				Cause:  fmt.Errorf("row has %d values, table declares %d columns", len(row), len(cols)),
			}
		}
		typed := make(Row, len(row))
		for j, raw := range row {
			if raw == nil {
				// nullable by default; the store decides nullability
				continue
			}
			v, err := coltype.Coerce(raw, cols[j].Type)
			if err != nil {
				return nil, &RowValidationError{
					Schema: t.SchemaName(),
					Table:  t.TableName(),
					Row:    i,
					Column: cols[j].Name,
					Cause:  err,
				}
			}
			typed[j] = v
		}
		out[i] = typed
	}

	return out, nil
}

// ColumnNames returns the declared column names in order.
func ColumnNames(t Table) []string {
	cols := t.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
