package engine

// run.go - batch materialization orchestration.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eurobios-mews-labs/acrocord/internal/adapter"
	"github.com/eurobios-mews-labs/acrocord/internal/resolver"
	"github.com/eurobios-mews-labs/acrocord/internal/state"
	"github.com/eurobios-mews-labs/acrocord/pkg/table"
)

// Options control one batch materialization.
type Options struct {
	// Force rebuilds tables even when a cached entry exists. The cache
	// entry is replaced atomically on success.
	Force bool

	// Parallel materializes independent tables concurrently, one worker
	// per descriptor within a dependency level.
	Parallel bool

	// Append switches persistence to append mode for this batch.
	Append bool
}

// TableFailure names a table that failed and why.
type TableFailure struct {
	Table string
	Err   error
}

// Report is the user-visible outcome of a batch: the ordered tables that
// succeeded, the ones that failed with their reasons, and the tables
// skipped because a prerequisite never reached Cached.
type Report struct {
	RunID     string
	Succeeded []string
	Failed    []TableFailure
	Skipped   []string
}

// Err aggregates the batch failures, or nil when everything succeeded.
func (r *Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = fmt.Errorf("%s: %w", f.Table, f.Err)
	}
	return errors.Join(errs...)
}

// outcome is the per-table execution record of one batch.
type outcome struct {
	err      error
	skipped  string
	rows     int
	duration time.Duration
}

// Materialize resolves the transitive foreign-key closure of the given
// roots and materializes every table in dependency order. Structural
// errors (cycles, declaration-shape violations) abort before any write.
// A failure during one table's build or persist marks that table Failed
// and its dependents skipped; independent tables and already-Cached
// dependencies are unaffected.
func (e *Engine) Materialize(ctx context.Context, opts Options, roots ...table.Table) (*Report, error) {
	order, err := resolver.Resolve(roots...)
	if err != nil {
		// fail fast: nothing has been written
		return nil, err
	}

	levels, err := resolver.Levels(roots...)
	if err != nil {
		return nil, err
	}

	mode := e.mode
	if opts.Append {
		mode = adapter.Append
	}

	e.logger.Info("starting materialization",
		slog.Int("tables", len(order)),
		slog.Bool("force", opts.Force),
		slog.Bool("parallel", opts.Parallel))

	var runID string
	if e.history != nil {
		if run, err := e.history.CreateRun(); err == nil {
			runID = run.ID
		} else {
			e.logger.Error("failed to create run record", slog.String("error", err.Error()))
		}
	}

	dependents := resolver.Dependents(order)

	var mu sync.Mutex
	outcomes := make(map[string]*outcome, len(order))
	for _, t := range order {
		outcomes[table.QualifiedName(t)] = &outcome{}
	}

	runOne := func(t table.Table) {
		key := table.QualifiedName(t)

		mu.Lock()
		skipReason := outcomes[key].skipped
		mu.Unlock()
		if skipReason != "" {
			e.logger.Debug("skipping table", slog.String("table", key), slog.String("reason", skipReason))
			return
		}

		start := time.Now()
		rows, err := e.materializeOne(ctx, t, opts.Force, mode)
		elapsed := time.Since(start)

		mu.Lock()
		defer mu.Unlock()
		oc := outcomes[key]
		oc.rows = rows
		oc.duration = elapsed
		if err != nil {
			oc.err = err
			for _, dep := range dependents[key] {
				if outcomes[dep].skipped == "" {
					outcomes[dep].skipped = fmt.Sprintf("prerequisite %s failed", key)
				}
			}
			e.logger.Error("table failed",
				slog.String("table", key), slog.String("error", err.Error()))
			return
		}
		e.logger.Debug("table materialized",
			slog.String("table", key),
			slog.Int("rows", rows),
			slog.Duration("elapsed", elapsed))
	}

	if opts.Parallel {
		for _, level := range levels {
			g := new(errgroup.Group)
			for _, t := range level {
				g.Go(func() error {
					runOne(t)
					return nil
				})
			}
			_ = g.Wait()
		}
	} else {
		for _, t := range order {
			runOne(t)
		}
	}

	report := e.buildReport(runID, order, outcomes)
	e.recordHistory(runID, order, outcomes, report)

	if err := report.Err(); err != nil {
		e.logger.Info("materialization failed", slog.String("run_id", runID), slog.String("error", err.Error()))
		return report, err
	}
	e.logger.Info("materialization completed",
		slog.String("run_id", runID), slog.Int("tables", len(report.Succeeded)))
	return report, nil
}

func (e *Engine) buildReport(runID string, order []table.Table, outcomes map[string]*outcome) *Report {
	report := &Report{RunID: runID}
	for _, t := range order {
		key := table.QualifiedName(t)
		oc := outcomes[key]
		switch {
		case oc.skipped != "":
			report.Skipped = append(report.Skipped, key)
		case oc.err != nil:
			report.Failed = append(report.Failed, TableFailure{Table: key, Err: oc.err})
		default:
			report.Succeeded = append(report.Succeeded, key)
		}
	}
	return report
}

func (e *Engine) recordHistory(runID string, order []table.Table, outcomes map[string]*outcome, report *Report) {
	if e.history == nil || runID == "" {
		return
	}

	for _, t := range order {
		key := table.QualifiedName(t)
		oc := outcomes[key]
		tr := &state.TableRun{
			RunID:      runID,
			Schema:     t.SchemaName(),
			Table:      t.TableName(),
			Rows:       int64(oc.rows),
			DurationMS: oc.duration.Milliseconds(),
		}
		switch {
		case oc.skipped != "":
			tr.Status = state.TableStatusSkipped
			tr.Error = oc.skipped
		case oc.err != nil:
			tr.Status = state.TableStatusFailed
			tr.Error = oc.err.Error()
		default:
			tr.Status = state.TableStatusCached
		}
		if err := e.history.RecordTableRun(tr); err != nil {
			e.logger.Error("failed to record table run", slog.String("error", err.Error()))
		}
	}

	status := state.RunStatusCompleted
	errMsg := ""
	if err := report.Err(); err != nil {
		status = state.RunStatusFailed
		errMsg = err.Error()
	}
	if err := e.history.CompleteRun(runID, status, errMsg); err != nil {
		e.logger.Error("failed to complete run record", slog.String("error", err.Error()))
	}
}

// materializeOne runs the state machine for a single descriptor:
// NotStarted → Building → Persisting → Cached, with failures landing in
// Failed. The transition into Cached is mutually exclusive per key, so
// two concurrent requests for the same table issue at most one write.
func (e *Engine) materializeOne(ctx context.Context, t table.Table, force bool, mode adapter.WriteMode) (int, error) {
	key := table.QualifiedName(t)

	if !force {
		if _, ok := e.cachedEntry(key); ok {
			return 0, nil
		}
	}

	lock := e.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if !force {
		if _, ok := e.cachedEntry(key); ok {
			return 0, nil
		}
	} else {
		e.setState(key, NotStarted)
	}

	schema, name := t.SchemaName(), t.TableName()

	e.setState(key, Building)
	raw, err := t.BuildRows(ctx)
	if err != nil {
		e.setState(key, Failed)
		return 0, fmt.Errorf("build %s: %w", key, err)
	}
	typed, err := table.ValidateRows(t, raw)
	if err != nil {
		e.setState(key, Failed)
		return 0, err
	}

	e.setState(key, Persisting)
	if err := e.db.CreateSchema(ctx, schema); err != nil {
		e.setState(key, Failed)
		return 0, err
	}

	existed, err := e.db.TableExists(ctx, schema, name)
	if err != nil {
		e.setState(key, Failed)
		return 0, err
	}

	if err := e.db.WriteTable(ctx, schema, name, t.Columns(), typed, mode); err != nil {
		e.setState(key, Failed)
		return 0, err
	}

	// key constraints and column comments are installed once, when the
	// physical table first appears; a rebuild rewrites data only
	if !existed {
		if err := e.installConstraints(ctx, t); err != nil {
			e.setState(key, Failed)
			return 0, err
		}
	}

	mt := &MaterializedTable{
		Table:          t,
		Columns:        t.Columns(),
		Rows:           typed,
		MaterializedAt: time.Now().UTC(),
	}
	e.mu.Lock()
	e.cache[key] = mt
	e.states[key] = Cached
	e.mu.Unlock()

	return len(typed), nil
}

// installConstraints installs the primary key, column comments, and the
// declared foreign keys. Foreign keys install only after the referenced
// tables exist, which the resolver ordering guarantees.
func (e *Engine) installConstraints(ctx context.Context, t table.Table) error {
	schema, name := t.SchemaName(), t.TableName()

	if pk := t.PrimaryKey(); pk != "" {
		if err := e.db.InstallPrimaryKey(ctx, schema, name, pk); err != nil {
			return err
		}
	}

	for _, c := range t.Columns() {
		if c.Description == "" {
			continue
		}
		if err := e.db.CommentColumn(ctx, schema, name, c.Name, c.Description); err != nil {
			return err
		}
	}

	for _, fk := range table.ForeignKeysOf(t) {
		err := e.db.InstallForeignKey(ctx, schema, name, fk.Column,
			fk.RefTable.SchemaName(), fk.RefTable.TableName(), fk.RefColumn)
		if err != nil {
			return err
		}
	}
	return nil
}
