// Package resolver computes a materialization order from declared
// foreign-key edges. It supports cycle detection, reverse-topological
// ordering, and grouping into parallelizable levels.
//
// The resolver is pure with respect to the store: it reasons only over
// descriptor metadata and never queries existing table state.
package resolver

import (
	"fmt"
	"strings"

	"github.com/eurobios-mews-labs/acrocord/pkg/table"
)

// CyclicDependencyError reports a foreign-key cycle. Tables holds the
// qualified names of the participating tables in traversal order.
type CyclicDependencyError struct {
	Tables []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic foreign-key dependency: %s", strings.Join(e.Tables, " -> "))
}

// mark is the DFS visit state of a node.
type mark int

const (
	unvisited mark = iota
	inProgress
	done
)

// Resolve expands the transitive foreign-key closure of the given root
// descriptors and returns them in materialization order: for every foreign
// key A→B, B precedes A. Leaves (tables without dependencies) come first.
//
// Ordering is deterministic: roots are traversed in the order given and
// foreign keys in their declared order, so ties between independent tables
// break by first discovery, not alphabetically.
func Resolve(roots ...table.Table) ([]table.Table, error) {
	marks := make(map[string]mark)
	var order []table.Table
	var stack []string

	var visit func(t table.Table) error
	visit = func(t table.Table) error {
		name := table.QualifiedName(t)
		switch marks[name] {
		case done:
			return nil
		case inProgress:
			// revisiting an in-progress node closes a cycle; report the
			// participating tables from the point the cycle entered
			start := 0
			for i, n := range stack {
				if n == name {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, stack[start:]...), name)
			return &CyclicDependencyError{Tables: cycle}
		}

		if err := table.Validate(t); err != nil {
			return err
		}

		marks[name] = inProgress
		stack = append(stack, name)

		for _, fk := range table.ForeignKeysOf(t) {
			if err := visit(fk.RefTable); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		marks[name] = done
		order = append(order, t)
		return nil
	}

	for _, root := range roots {
		if err := visit(root); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// Levels groups the resolved order into stages: every table in stage N
// depends only on tables in stages < N, so tables within one stage may be
// materialized in parallel. Stage membership follows the longest path to
// a leaf; ordering within a stage follows first discovery.
func Levels(roots ...table.Table) ([][]table.Table, error) {
	order, err := Resolve(roots...)
	if err != nil {
		return nil, err
	}

	level := make(map[string]int, len(order))
	maxLevel := 0
	for _, t := range order {
		l := 0
		for _, fk := range table.ForeignKeysOf(t) {
			if dep := level[table.QualifiedName(fk.RefTable)]; dep+1 > l {
				l = dep + 1
			}
		}
		level[table.QualifiedName(t)] = l
		if l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]table.Table, maxLevel+1)
	for _, t := range order {
		l := level[table.QualifiedName(t)]
		levels[l] = append(levels[l], t)
	}
	return levels, nil
}

// Dependents returns, for the given closure, the qualified names of the
// tables that transitively depend on each table. Used to mark downstream
// tables as skipped when a prerequisite fails.
func Dependents(order []table.Table) map[string][]string {
	deps := make(map[string][]string, len(order))

	// direct reverse edges first
	direct := make(map[string][]string, len(order))
	for _, t := range order {
		name := table.QualifiedName(t)
		for _, fk := range table.ForeignKeysOf(t) {
			ref := table.QualifiedName(fk.RefTable)
			direct[ref] = append(direct[ref], name)
		}
	}

	var expand func(name string, seen map[string]struct{}) []string
	expand = func(name string, seen map[string]struct{}) []string {
		var out []string
		for _, child := range direct[name] {
			if _, ok := seen[child]; ok {
				continue
			}
			seen[child] = struct{}{}
			out = append(out, child)
			out = append(out, expand(child, seen)...)
		}
		return out
	}

	for _, t := range order {
		name := table.QualifiedName(t)
		deps[name] = expand(name, map[string]struct{}{})
	}
	return deps
}
