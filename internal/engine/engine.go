// Package engine executes the materialization lifecycle for declared
// tables: resolve dependency order, build and validate rows, persist them
// through the store adapter, install key constraints, and cache results
// for idempotent re-entry.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eurobios-mews-labs/acrocord/internal/adapter"
	"github.com/eurobios-mews-labs/acrocord/internal/registry"
	"github.com/eurobios-mews-labs/acrocord/internal/state"
	"github.com/eurobios-mews-labs/acrocord/pkg/table"
)

// State is the materialization state of one descriptor.
type State int

// Lifecycle states. Cached and Failed are terminal until a force rebuild
// resets the descriptor to NotStarted.
const (
	NotStarted State = iota
	Building
	Persisting
	Cached
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Building:
		return "building"
	case Persisting:
		return "persisting"
	case Cached:
		return "cached"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MaterializedTable is one cached materialization result. The cache owns
// it; callers receive read-only views through Rows and MaterializedRows.
type MaterializedTable struct {
	Table          table.Table
	Columns        []table.Column
	Rows           []table.Row
	MaterializedAt time.Time
}

// Config holds engine construction parameters.
type Config struct {
	// Adapter is the connected store adapter.
	Adapter adapter.Adapter

	// Registry holds the declared descriptors.
	Registry *registry.Registry

	// History records run outcomes; nil disables history.
	History state.Store

	// Logger is the structured logger; nil discards output.
	Logger *slog.Logger

	// Mode is the default write mode for persistence.
	Mode adapter.WriteMode
}

// Engine orchestrates materialization over a registry and an adapter.
type Engine struct {
	db       adapter.Adapter
	registry *registry.Registry
	history  state.Store
	logger   *slog.Logger
	mode     adapter.WriteMode

	mu     sync.RWMutex
	cache  map[string]*MaterializedTable
	states map[string]State

	// locks serializes the transition into Cached per (schema, table) key
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates an engine. The adapter must already be connected.
func New(cfg Config) (*Engine, error) {
	if cfg.Adapter == nil {
		return nil, fmt.Errorf("engine requires a store adapter")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("engine requires a descriptor registry")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Engine{
		db:       cfg.Adapter,
		registry: cfg.Registry,
		history:  cfg.History,
		logger:   logger,
		mode:     cfg.Mode,
		cache:    make(map[string]*MaterializedTable),
		states:   make(map[string]State),
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// Close closes the adapter and, when configured, the history store.
func (e *Engine) Close() error {
	var first error
	if e.history != nil {
		if err := e.history.Close(); err != nil {
			first = err
		}
	}
	if err := e.db.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// StateOf reports the materialization state of a descriptor.
func (e *Engine) StateOf(schema, name string) State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.states[schema+"."+name]
}

func (e *Engine) setState(key string, s State) {
	e.mu.Lock()
	e.states[key] = s
	e.mu.Unlock()
}

// cached returns the cache entry for key, if present.
func (e *Engine) cachedEntry(key string) (*MaterializedTable, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	mt, ok := e.cache[key]
	return mt, ok
}

// keyLock returns the per-key mutex guarding the transition into Cached.
func (e *Engine) keyLock(key string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	l, ok := e.locks[key]
	if !ok {
		l = &sync.Mutex{}
		e.locks[key] = l
	}
	return l
}

// Rows returns the rows for schema.table. A cached table returns the
// cached rows without touching the store; a table never materialized
// in-process is fetched from the store, assuming it already exists
// physically. It is never rebuilt on the read path.
func (e *Engine) Rows(ctx context.Context, schema, name string) ([]table.Row, error) {
	key := schema + "." + name
	if mt, ok := e.cachedEntry(key); ok {
		return copyRows(mt.Rows), nil
	}

	t, ok := e.registry.Get(schema, name)
	if !ok {
		return nil, fmt.Errorf("table %s is not registered", key)
	}

	e.logger.Debug("cache miss, reading from store", slog.String("table", key))
	return e.db.ReadTable(ctx, schema, name, t.Columns())
}

// MaterializedRows returns rows plus column metadata for schema.table.
// This is the sole input contract for export collaborators.
func (e *Engine) MaterializedRows(ctx context.Context, schema, name string) ([]table.Column, []table.Row, error) {
	t, ok := e.registry.Get(schema, name)
	if !ok {
		return nil, nil, fmt.Errorf("table %s.%s is not registered", schema, name)
	}
	rows, err := e.Rows(ctx, schema, name)
	if err != nil {
		return nil, nil, err
	}
	return t.Columns(), rows, nil
}

// Invalidate drops the cache entry for schema.table, forcing the next
// materialization to rebuild.
func (e *Engine) Invalidate(schema, name string) {
	key := schema + "." + name
	e.mu.Lock()
	delete(e.cache, key)
	e.states[key] = NotStarted
	e.mu.Unlock()
}

func copyRows(rows []table.Row) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		c := make(table.Row, len(r))
		copy(c, r)
		out[i] = c
	}
	return out
}
