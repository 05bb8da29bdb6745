package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore(nil)
	require.NoError(t, s.Open(":memory:"))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.InitSchema())
	return s
}

func TestOpen_FileDatabase(t *testing.T) {
	s := NewSQLiteStore(nil)
	path := filepath.Join(t.TempDir(), "history.db")
	require.NoError(t, s.Open(path))
	defer func() { _ = s.Close() }()
	require.NoError(t, s.InitSchema())
}

func TestCreateAndCompleteRun(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun()
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	require.NoError(t, s.CompleteRun(run.ID, RunStatusCompleted, ""))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.Error)
}

func TestCompleteRun_WithError(t *testing.T) {
	s := newTestStore(t)

	run, err := s.CreateRun()
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(run.ID, RunStatusFailed, "main.building: row 1 column architect"))

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Contains(t, got.Error, "main.building")
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRun("nope")
	assert.Error(t, err)
}

func TestTableRuns(t *testing.T) {
	s := newTestStore(t)
	run, err := s.CreateRun()
	require.NoError(t, err)

	for _, tr := range []*TableRun{
		{RunID: run.ID, Schema: "main", Table: "architect", Status: TableStatusCached, Rows: 2, DurationMS: 5},
		{RunID: run.ID, Schema: "main", Table: "building", Status: TableStatusFailed, Error: "row 0 column name"},
		{RunID: run.ID, Schema: "main", Table: "tenant", Status: TableStatusSkipped},
	} {
		require.NoError(t, s.RecordTableRun(tr))
		assert.NotZero(t, tr.ID)
	}

	got, err := s.ListTableRuns(run.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "architect", got[0].Table)
	assert.Equal(t, TableStatusCached, got[0].Status)
	assert.EqualValues(t, 2, got[0].Rows)
	assert.Equal(t, TableStatusFailed, got[1].Status)
	assert.Contains(t, got[1].Error, "row 0")
	assert.Equal(t, TableStatusSkipped, got[2].Status)
}

func TestListRuns(t *testing.T) {
	s := newTestStore(t)
	first, err := s.CreateRun()
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(first.ID, RunStatusCompleted, ""))
	_, err = s.CreateRun()
	require.NoError(t, err)

	runs, err := s.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
