package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eurobios-mews-labs/acrocord/internal/adapter"
	"github.com/eurobios-mews-labs/acrocord/internal/engine"
	"github.com/eurobios-mews-labs/acrocord/internal/state"
)

// openHistory opens the run history store, creating the state directory
// and schema on first use.
func (a *app) openHistory() (state.Store, error) {
	stateDir := filepath.Dir(a.cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(a.logger)
	if err := store.Open(a.cfg.StatePath); err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}
	return store, nil
}

// openEngine connects the configured target adapter and the run history
// store and wires them into a materialization engine. Closing the engine
// closes both.
func (a *app) openEngine(ctx context.Context) (*engine.Engine, error) {
	db, err := adapter.Get(a.cfg.Target.Type)
	if err != nil {
		return nil, err
	}
	if err := db.Connect(ctx, a.cfg.Target.ToAdapterConfig()); err != nil {
		return nil, err
	}

	history, err := a.openHistory()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	eng, err := engine.New(engine.Config{
		Adapter:  db,
		Registry: a.registry,
		History:  history,
		Logger:   a.logger,
		Mode:     a.cfg.AdapterWriteMode(),
	})
	if err != nil {
		_ = history.Close()
		_ = db.Close()
		return nil, err
	}
	return eng, nil
}
