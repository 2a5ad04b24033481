package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/sortvis/internal/config"
	"github.com/thruflo/sortvis/internal/engine"
	"github.com/thruflo/sortvis/internal/history"
	"github.com/thruflo/sortvis/internal/testutil"
)

// setupBase points --dir at a fresh project directory for the test.
func setupBase(t *testing.T) string {
	t.Helper()
	dir := testutil.SetupTestDir(t)
	baseDir = dir
	t.Cleanup(func() { baseDir = "" })
	return dir
}

// saveConfig writes cfg after applying edit to the defaults.
func saveConfig(t *testing.T, base string, edit func(*config.Config)) {
	t.Helper()
	cfg := config.DefaultConfig()
	edit(&cfg)
	require.NoError(t, config.SaveConfig(base, &cfg))
}

// captureOutput redirects cmd's output for the duration of the test.
func captureOutput(t *testing.T, cmd *cobra.Command) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	t.Cleanup(func() { cmd.SetOut(nil) })
	return &buf
}

func openTestHistory(t *testing.T, base string) *history.Store {
	t.Helper()
	cfg := config.DefaultConfig()
	store, err := history.Open(cfg.HistoryPath(base))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// seedHistory records runs directly, newest last.
func seedHistory(t *testing.T, base string, records ...history.RunRecord) {
	t.Helper()
	cfg := config.DefaultConfig()
	store, err := history.Open(cfg.HistoryPath(base))
	require.NoError(t, err)
	defer store.Close()
	for _, rec := range records {
		require.NoError(t, store.Record(rec))
	}
}

func testRecord(id string, startedAt time.Time) history.RunRecord {
	return history.RunRecord{
		ID:         id,
		Algorithm:  engine.Merge,
		Status:     engine.StatusCompleted,
		DataSet:    "small",
		Length:     20,
		Steps:      42,
		ElapsedMS:  12,
		HasElapsed: true,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(time.Second),
	}
}
