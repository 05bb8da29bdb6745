package table

import "context"

// BuildFunc produces the raw rows for a Definition.
type BuildFunc func(ctx context.Context) ([]Row, error)

// Definition is a ready-made Table implementation for tables declared as
// plain values rather than dedicated types. The zero value is not usable;
// populate every declaration field before registering it.
type Definition struct {
	Name        string
	Schema      string
	Cols        []Column
	PK          string
	FKs         []ForeignKey
	Build       BuildFunc
	Description string
}

var (
	_ Table              = (*Definition)(nil)
	_ ForeignKeyProvider = (*Definition)(nil)
)

func (d *Definition) TableName() string  { return d.Name }
func (d *Definition) SchemaName() string { return d.Schema }

func (d *Definition) Columns() []Column { return d.Cols }

func (d *Definition) PrimaryKey() string { return d.PK }

func (d *Definition) ForeignKeys() []ForeignKey { return d.FKs }

// BuildRows calls the configured build function. A Definition without one
// yields no rows, which suits reference tables populated elsewhere.
func (d *Definition) BuildRows(ctx context.Context) ([]Row, error) {
	if d.Build == nil {
		return nil, nil
	}
	return d.Build(ctx)
}
