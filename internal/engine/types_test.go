package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlgorithmNamesUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, a := range Algorithms() {
		name := a.String()
		assert.False(t, seen[name], "duplicate algorithm name %q", name)
		seen[name] = true

		parsed, err := ParseAlgorithm(name)
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}
	assert.Len(t, seen, 5)
}

func TestParseAlgorithm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Algorithm
		wantErr bool
	}{
		{"bubble", Bubble, false},
		{"Selection", Selection, false},
		{"INSERTION", Insertion, false},
		{"mergesort", Merge, false},
		{"quick-sort", Quick, false},
		{" quick sort ", Quick, false},
		{"heap", 0, true},
		{"", 0, true},
		{"sort", 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseAlgorithm(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlgorithmValid(t *testing.T) {
	t.Parallel()

	assert.True(t, Quick.Valid())
	assert.False(t, Algorithm(-1).Valid())
	assert.False(t, Algorithm(5).Valid())
	assert.Equal(t, "Algorithm(9)", Algorithm(9).String())
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   Status
		want     string
		terminal bool
	}{
		{StatusIdle, "idle", false},
		{StatusRunning, "running", false},
		{StatusCompleted, "completed", true},
		{StatusCancelled, "cancelled", true},
		{Status(42), "unknown", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.status.String())
			assert.Equal(t, tt.terminal, tt.status.Terminal())
		})
	}
}

func TestFrameJSON(t *testing.T) {
	t.Parallel()

	frame := Frame{
		RunID:     "run-1",
		Algorithm: Merge,
		Seq:       3,
		Values:    []int{1, 2},
		Primary:   1,
		Secondary: NoIndex,
		Status:    StatusRunning,
	}

	data, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"algorithm":"Merge"`)
	assert.Contains(t, string(data), `"status":"running"`)

	var decoded Frame
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, frame, decoded)
}

func TestSnapshotJSONFlattensProgress(t *testing.T) {
	t.Parallel()

	snap := Snapshot{Values: []int{3}, Progress: idleProgress()}
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"primary":-1`)
	assert.Contains(t, string(data), `"status":"idle"`)
	assert.NotContains(t, string(data), "run_id")
}
