package table

import (
	"context"
	"errors"
	"testing"

	"github.com/eurobios-mews-labs/acrocord/pkg/coltype"
)

func architectTable() *Definition {
	return &Definition{
		Name:   "architect",
		Schema: "main",
		Cols: []Column{
			{Name: "last_name", Type: coltype.String, Description: "architect family name"},
			{Name: "born", Type: coltype.Integer, Description: "year of birth"},
		},
		PK: "last_name",
		Build: func(ctx context.Context) ([]Row, error) {
			return []Row{
				{"Niemeyer", 1907},
				{"Hadid", 1950},
			}, nil
		},
	}
}

func buildingTable(architect Table) *Definition {
	return &Definition{
		Name:   "building",
		Schema: "main",
		Cols: []Column{
			{Name: "name", Type: coltype.String, Description: "building name"},
			{Name: "architect", Type: coltype.String, Description: "reference to the architect"},
		},
		PK:  "name",
		FKs: []ForeignKey{{Column: "architect", RefTable: architect, RefColumn: "last_name"}},
		Build: func(ctx context.Context) ([]Row, error) {
			return []Row{{"Niteroi Museum", "Niemeyer"}}, nil
		},
	}
}

func TestQualifiedName(t *testing.T) {
	if got := QualifiedName(architectTable()); got != "main.architect" {
		t.Errorf("QualifiedName = %q, want main.architect", got)
	}
}

func TestForeignKeysOf_Default(t *testing.T) {
	// a descriptor without ForeignKeyProvider has no edges
	var bare Table = bareTable{}
	if fks := ForeignKeysOf(bare); fks != nil {
		t.Errorf("expected nil foreign keys, got %v", fks)
	}
}

type bareTable struct{}

func (bareTable) TableName() string                           { return "bare" }
func (bareTable) SchemaName() string                          { return "main" }
func (bareTable) Columns() []Column                           { return []Column{{Name: "id", Type: coltype.Integer}} }
func (bareTable) PrimaryKey() string                          { return "id" }
func (bareTable) BuildRows(context.Context) ([]Row, error)    { return nil, nil }

func TestValidate(t *testing.T) {
	arch := architectTable()
	if err := Validate(arch); err != nil {
		t.Fatalf("Validate(architect) failed: %v", err)
	}
	if err := Validate(buildingTable(arch)); err != nil {
		t.Fatalf("Validate(building) failed: %v", err)
	}
}

func TestValidate_DuplicateColumn(t *testing.T) {
	d := architectTable()
	d.Cols = append(d.Cols, Column{Name: "last_name", Type: coltype.String})
	if err := Validate(d); err == nil {
		t.Error("expected error for duplicate column name")
	}
}

func TestValidate_PrimaryKeyNotDeclared(t *testing.T) {
	d := architectTable()
	d.PK = "missing"
	if err := Validate(d); err == nil {
		t.Error("expected error for undeclared primary key")
	}
}

func TestValidate_ForeignKeyColumnNotDeclared(t *testing.T) {
	arch := architectTable()
	b := buildingTable(arch)
	b.FKs[0].Column = "nope"
	if err := Validate(b); err == nil {
		t.Error("expected error for undeclared foreign key column")
	}
}

func TestValidate_ForeignKeyRefColumnNotDeclared(t *testing.T) {
	arch := architectTable()
	b := buildingTable(arch)
	b.FKs[0].RefColumn = "nope"
	if err := Validate(b); err == nil {
		t.Error("expected error for undeclared referenced column")
	}
}

func TestValidate_SelfReference(t *testing.T) {
	d := architectTable()
	d.FKs = []ForeignKey{{Column: "last_name", RefTable: d, RefColumn: "last_name"}}
	if err := Validate(d); err == nil {
		t.Error("expected error for self-referencing foreign key")
	}
}

func TestValidateRows(t *testing.T) {
	arch := architectTable()
	raw, err := arch.BuildRows(context.Background())
	if err != nil {
		t.Fatalf("BuildRows failed: %v", err)
	}

	typed, err := ValidateRows(arch, raw)
	if err != nil {
		t.Fatalf("ValidateRows failed: %v", err)
	}
	if len(typed) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(typed))
	}
	if typed[0][0].(string) != "Niemeyer" {
		t.Errorf("row 0 col 0 = %v, want Niemeyer", typed[0][0])
	}
	if typed[0][1].(int64) != 1907 {
		t.Errorf("row 0 col 1 = %v, want int64(1907)", typed[0][1])
	}
}

func TestValidateRows_CoercionFailure(t *testing.T) {
	arch := architectTable()
	rows := []Row{
		{"Niemeyer", 1907},
		{"Hadid", "not-a-year-at-all"},
	}

	_, err := ValidateRows(arch, rows)
	var rvErr *RowValidationError
	if !errors.As(err, &rvErr) {
		t.Fatalf("expected RowValidationError, got %v", err)
	}
	if rvErr.Row != 1 || rvErr.Column != "born" {
		t.Errorf("error should name row 1 column born, got row %d column %q", rvErr.Row, rvErr.Column)
	}

	var coErr *coltype.CoercionError
	if !errors.As(err, &coErr) {
		t.Error("RowValidationError should wrap the CoercionError")
	}
}

func TestValidateRows_WidthMismatch(t *testing.T) {
	arch := architectTable()
	_, err := ValidateRows(arch, []Row{{"Niemeyer"}})
	var rvErr *RowValidationError
	if !errors.As(err, &rvErr) {
		t.Fatalf("expected RowValidationError, got %v", err)
	}
	if rvErr.Row != 0 {
		t.Errorf("error should name row 0, got %d", rvErr.Row)
	}
}

func TestValidateRows_NullPassesThrough(t *testing.T) {
	arch := architectTable()
	typed, err := ValidateRows(arch, []Row{{"Gaudi", nil}})
	if err != nil {
		t.Fatalf("ValidateRows failed: %v", err)
	}
	if typed[0][1] != nil {
		t.Errorf("nil value should stay nil, got %v", typed[0][1])
	}
}

func TestColumnNames(t *testing.T) {
	names := ColumnNames(architectTable())
	if len(names) != 2 || names[0] != "last_name" || names[1] != "born" {
		t.Errorf("ColumnNames = %v", names)
	}
}
