// Package adapter provides the store adapter boundary: the create, read,
// write, and constrain primitives the materialization engine needs from a
// relational store. Concrete adapters register themselves by name.
package adapter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/eurobios-mews-labs/acrocord/pkg/table"
)

// Config holds the connection settings for an adapter.
type Config struct {
	// Type selects the registered adapter (e.g. "postgres", "duckdb")
	Type string

	// Path is the file path for file-based databases; ":memory:" for in-memory
	Path string

	// Host and Port locate a network database
	Host string
	Port int

	// Database is the database name
	Database string

	// Username and Password authenticate the connection; the core never
	// inspects them beyond passing them to the driver
	Username string
	Password string

	// Options carries additional driver-specific settings
	Options map[string]string
}

// WriteMode selects how WriteTable treats existing data.
type WriteMode int

const (
	// Replace drops existing rows and writes the new set.
	Replace WriteMode = iota
	// Append keeps existing rows and adds the new set.
	Append
)

func (m WriteMode) String() string {
	if m == Append {
		return "append"
	}
	return "replace"
}

// Adapter is the contract every store adapter implements. All calls are
// synchronous; the caller threads deadlines through ctx. Failures surface
// as *StoreError or *ConstraintError.
type Adapter interface {
	// Connect establishes the connection described by cfg.
	Connect(ctx context.Context, cfg Config) error

	// Close releases the connection.
	Close() error

	// CreateSchema creates the named schema if it does not exist.
	CreateSchema(ctx context.Context, name string) error

	// TableExists reports whether schema.table exists physically.
	TableExists(ctx context.Context, schema, name string) (bool, error)

	// WriteTable creates schema.table if needed and writes rows according
	// to mode. Column types derive from the declarations via coltype.
	WriteTable(ctx context.Context, schema, name string, cols []table.Column, rows []table.Row, mode WriteMode) error

	// ReadTable retrieves all rows of schema.table in declared column order.
	ReadTable(ctx context.Context, schema, name string, cols []table.Column) ([]table.Row, error)

	// InstallPrimaryKey installs a primary key constraint on col.
	InstallPrimaryKey(ctx context.Context, schema, name, col string) error

	// InstallForeignKey installs a foreign-key constraint from col to
	// refSchema.refName(refCol). Fails with *ConstraintError when the
	// referenced data does not satisfy the constraint.
	InstallForeignKey(ctx context.Context, schema, name, col, refSchema, refName, refCol string) error

	// CommentColumn attaches the column description as a database comment.
	// Adapters without comment support may make this a no-op.
	CommentColumn(ctx context.Context, schema, name, col, comment string) error

	// DialectName returns the storage dialect (e.g. "postgres", "duckdb").
	DialectName() string
}

// StoreError wraps a failure surfaced by the underlying store.
type StoreError struct {
	Op     string
	Schema string
	Table  string
	Cause  error
}

func (e *StoreError) Error() string {
	target := e.Schema
	if e.Table != "" {
		target = e.Schema + "." + e.Table
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, target, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

// ConstraintError reports a key constraint that could not be installed,
// typically because the referenced values are missing.
type ConstraintError struct {
	Schema string
	Table  string
	Column string
	Ref    string
	Cause  error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint on %s.%s(%s) referencing %s: %v",
		e.Schema, e.Table, e.Column, e.Ref, e.Cause)
}

func (e *ConstraintError) Unwrap() error { return e.Cause }

// UnknownAdapterError reports a request for an unregistered adapter type.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q (available: %s)",
		e.Type, strings.Join(e.Available, ", "))
}

// Factory creates a new adapter instance.
type Factory func() Adapter

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// Register makes an adapter available under the given type name.
// Adapters call Register from an init function.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[strings.ToLower(name)] = f
}

// Get creates an adapter of the given type.
func Get(name string) (Adapter, error) {
	registryMu.RLock()
	f, ok := factories[strings.ToLower(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownAdapterError{Type: name, Available: List()}
	}
	return f(), nil
}

// IsRegistered reports whether an adapter type is available.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[strings.ToLower(name)]
	return ok
}

// List returns the registered adapter type names, sorted.
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
