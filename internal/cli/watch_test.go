package cli

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/sortvis/internal/config"
	"github.com/thruflo/sortvis/internal/engine"
	"github.com/thruflo/sortvis/internal/testutil"
)

func TestSequenceFlagsGenerate(t *testing.T) {
	settings := config.DefaultSettings()
	settings.DataSet = "medium"
	settings.DataSize = 30

	tests := []struct {
		name      string
		flags     sequenceFlags
		wantLen   int
		wantLabel string
		wantErr   bool
	}{
		{name: "explicit values", flags: sequenceFlags{values: []int{3, 1, 2}}, wantLen: 3, wantLabel: customDataSet},
		{name: "configured data set and size", flags: sequenceFlags{seed: 1}, wantLen: 30, wantLabel: "medium"},
		{name: "other data set uses its default size", flags: sequenceFlags{dataSet: "small", seed: 1}, wantLen: 20, wantLabel: "small"},
		{name: "explicit size", flags: sequenceFlags{dataSet: "large", size: 5, seed: 1}, wantLen: 5, wantLabel: "large"},
		{name: "unknown data set", flags: sequenceFlags{dataSet: "huge"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, label, err := tt.flags.generate(settings)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, values, tt.wantLen)
			assert.Equal(t, tt.wantLabel, label)
		})
	}
}

func TestSequenceFlagsCopyValues(t *testing.T) {
	flags := sequenceFlags{values: []int{2, 1}}
	values, _, err := flags.generate(config.DefaultSettings())
	require.NoError(t, err)

	values[0] = 99
	assert.Equal(t, []int{2, 1}, flags.values)
}

func TestStepDelay(t *testing.T) {
	cmd := &cobra.Command{}
	var flag time.Duration
	cmd.Flags().DurationVar(&flag, "delay", 0, "")

	assert.Equal(t, DefaultStepDelay, stepDelay(cmd, 0, flag))
	assert.Equal(t, time.Second, stepDelay(cmd, time.Second, flag))

	require.NoError(t, cmd.Flags().Set("delay", "0s"))
	assert.Equal(t, time.Duration(0), stepDelay(cmd, time.Second, flag))
}

func TestLocalControllerRecordsRuns(t *testing.T) {
	base := setupBase(t)
	watchSequence = sequenceFlags{values: []int{4, 2, 3, 1}}
	defer func() { watchSequence = sequenceFlags{} }()

	ctx, cancel := testutil.RunContext(t)
	defer cancel()

	cfg := config.DefaultConfig()
	ctrl, closeFn, err := newLocalController(ctx, &cfg, base, 0)
	require.NoError(t, err)

	assert.Equal(t, []int{4, 2, 3, 1}, ctrl.Snapshot().Values)
	require.NoError(t, ctrl.Run(ctx, engine.Quick))
	testutil.Eventually(t, func() bool { return ctrl.Snapshot().Status == engine.StatusCompleted })

	// Close waits for the finish hook and releases the database.
	closeFn()
	records, err := openTestHistory(t, base).List(0)
	require.NoError(t, err)
	if assert.Len(t, records, 1) {
		assert.Equal(t, engine.Quick, records[0].Algorithm)
		assert.Equal(t, customDataSet, records[0].DataSet)
		assert.Equal(t, engine.StatusCompleted, records[0].Status)
	}
}
