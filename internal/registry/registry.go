// Package registry provides descriptor registration and name resolution.
// A registry is explicit state injected into the resolver and engine at
// construction; there is no process-wide implicit instance.
package registry

import (
	"fmt"
	"sync"

	"github.com/eurobios-mews-labs/acrocord/pkg/table"
)

// Registry maps qualified table names to their descriptors.
type Registry struct {
	mu sync.RWMutex

	// byName maps "schema.table" to the descriptor
	byName map[string]table.Table

	// order preserves registration order for deterministic listing
	order []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]table.Table)}
}

// Register validates and adds a descriptor. Registering two descriptors
// under the same qualified name is an error: a descriptor is a singleton
// per (schema, table) pair.
func (r *Registry) Register(t table.Table) error {
	if err := table.Validate(t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := table.QualifiedName(t)
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("table %s is already registered", name)
	}
	r.byName[name] = t
	r.order = append(r.order, name)
	return nil
}

// MustRegister registers a descriptor and panics on failure. Intended for
// static table declarations at program init.
func (r *Registry) MustRegister(t table.Table) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Get returns the descriptor registered under schema.table.
func (r *Registry) Get(schema, name string) (table.Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[schema+"."+name]
	return t, ok
}

// Resolve returns the descriptor for a qualified "schema.table" name.
func (r *Registry) Resolve(qualified string) (table.Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[qualified]
	return t, ok
}

// All returns every registered descriptor in registration order.
func (r *Registry) All() []table.Table {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]table.Table, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Count returns the number of registered descriptors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Clear removes every registration. Used by tests and explicit teardown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName = make(map[string]table.Table)
	r.order = nil
}
