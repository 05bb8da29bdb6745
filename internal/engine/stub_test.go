package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/eurobios-mews-labs/acrocord/internal/adapter"
	"github.com/eurobios-mews-labs/acrocord/pkg/table"
)

// stubAdapter is an in-memory store adapter that counts calls and injects
// failures, used to verify engine behavior without a database.
type stubAdapter struct {
	mu sync.Mutex

	schemas map[string]bool
	tables  map[string][]table.Row
	columns map[string][]table.Column

	writeCalls map[string]int
	readCalls  map[string]int
	fkInstalls []string
	pkInstalls []string

	failWrite map[string]error
	failFK    map[string]error
}

var _ adapter.Adapter = (*stubAdapter)(nil)

func newStubAdapter() *stubAdapter {
	return &stubAdapter{
		schemas:    make(map[string]bool),
		tables:     make(map[string][]table.Row),
		columns:    make(map[string][]table.Column),
		writeCalls: make(map[string]int),
		readCalls:  make(map[string]int),
		failWrite:  make(map[string]error),
		failFK:     make(map[string]error),
	}
}

func (s *stubAdapter) Connect(context.Context, adapter.Config) error { return nil }
func (s *stubAdapter) Close() error                                  { return nil }
func (s *stubAdapter) DialectName() string                           { return "stub" }

func (s *stubAdapter) CreateSchema(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[name] = true
	return nil
}

func (s *stubAdapter) TableExists(_ context.Context, schema, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tables[schema+"."+name]
	return ok, nil
}

func (s *stubAdapter) WriteTable(_ context.Context, schema, name string, cols []table.Column, rows []table.Row, mode adapter.WriteMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := schema + "." + name
	s.writeCalls[key]++
	if err := s.failWrite[key]; err != nil {
		return &adapter.StoreError{Op: "write", Schema: schema, Table: name, Cause: err}
	}

	s.columns[key] = cols
	if mode == adapter.Append {
		s.tables[key] = append(s.tables[key], rows...)
	} else {
		s.tables[key] = append([]table.Row{}, rows...)
	}
	return nil
}

func (s *stubAdapter) ReadTable(_ context.Context, schema, name string, _ []table.Column) ([]table.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := schema + "." + name
	s.readCalls[key]++
	rows, ok := s.tables[key]
	if !ok {
		return nil, &adapter.StoreError{Op: "read", Schema: schema, Table: name,
			Cause: fmt.Errorf("table does not exist")}
	}
	return append([]table.Row{}, rows...), nil
}

func (s *stubAdapter) InstallPrimaryKey(_ context.Context, schema, name, col string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pkInstalls = append(s.pkInstalls, schema+"."+name+"("+col+")")
	return nil
}

func (s *stubAdapter) InstallForeignKey(_ context.Context, schema, name, col, refSchema, refName, refCol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := schema + "." + name
	if err := s.failFK[key]; err != nil {
		return &adapter.ConstraintError{
			Schema: schema, Table: name, Column: col,
			Ref: refSchema + "." + refName + "(" + refCol + ")", Cause: err,
		}
	}

	// the referenced table must already be persisted
	if _, ok := s.tables[refSchema+"."+refName]; !ok {
		return &adapter.ConstraintError{
			Schema: schema, Table: name, Column: col,
			Ref:   refSchema + "." + refName + "(" + refCol + ")",
			Cause: fmt.Errorf("referenced table does not exist"),
		}
	}

	s.fkInstalls = append(s.fkInstalls,
		fmt.Sprintf("%s.%s(%s) -> %s.%s(%s)", schema, name, col, refSchema, refName, refCol))
	return nil
}

func (s *stubAdapter) CommentColumn(context.Context, string, string, string, string) error {
	return nil
}

func (s *stubAdapter) writes(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeCalls[key]
}

func (s *stubAdapter) storedRows(key string) []table.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]table.Row{}, s.tables[key]...)
}
