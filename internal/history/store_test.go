package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRejectsBadPaths(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)

	_, err = Open(t.TempDir())
	require.Error(t, err)
}

func TestSaveAndLoadRun(t *testing.T) {
	store := openStore(t)

	run := Run{
		RunID:         uuid.NewString(),
		Timestamp:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Strategy:      "johnson",
		Roots:         []string{"/proj/src", "/proj/plugins"},
		ModuleCount:   42,
		EdgeCount:     118,
		CycleCount:    3,
		ParseFailures: 1,
		Complete:      true,
		Duration:      1500 * time.Millisecond,
	}
	require.NoError(t, store.SaveRun(run))

	runs, err := store.LoadRuns(time.Time{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run, runs[0])
}

func TestSaveRunRequiresID(t *testing.T) {
	store := openStore(t)
	err := store.SaveRun(Run{Strategy: "dfs"})
	require.Error(t, err)
}

func TestLoadRunsSince(t *testing.T) {
	store := openStore(t)

	old := Run{RunID: "old", Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Strategy: "dfs"}
	recent := Run{RunID: "recent", Timestamp: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), Strategy: "dfs"}
	require.NoError(t, store.SaveRun(old))
	require.NoError(t, store.SaveRun(recent))

	runs, err := store.LoadRuns(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "recent", runs[0].RunID)
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveRun(Run{RunID: "persisted", Strategy: "tarjan"}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.LoadRuns(time.Time{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "persisted", runs[0].RunID)
}
