//go:build e2e

package integration

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/sortvis/internal/engine"
	"github.com/thruflo/sortvis/internal/stream"
)

func TestCLIWorkflow(t *testing.T) {
	h := NewCLIHarness(t)

	res := h.Run("init")
	require.True(t, res.Success(), res.Stderr)
	assert.Contains(t, res.Stdout, "Initialized")

	res = h.Run("init")
	assert.False(t, res.Success())
	assert.Equal(t, 1, res.ExitCode)
	assert.Contains(t, res.Stderr, "already exists")

	res = h.Run("run", "quick", "--values", "9,4,7,1", "--json")
	require.True(t, res.Success(), res.Stderr)
	var result stream.ResultEvent
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &result))
	assert.Equal(t, engine.StatusCompleted, result.Status)
	assert.Equal(t, []int{1, 4, 7, 9}, result.Values)

	res = h.Run("history")
	require.True(t, res.Success(), res.Stderr)
	assert.Contains(t, res.Stdout, result.RunID)
	assert.Contains(t, res.Stdout, "Quick")

	res = h.Run("history", result.RunID)
	require.True(t, res.Success(), res.Stderr)
	assert.Contains(t, res.Stdout, "custom")
}

func TestCLITimeout(t *testing.T) {
	h := NewCLIHarness(t)

	res := h.Run("run", "bubble", "--dataset", "large", "--delay", "1s", "--timeout", "100ms", "--no-history")
	assert.False(t, res.Success())
	assert.Contains(t, res.Stdout, "cancelled")
	assert.Contains(t, res.Stderr, "deadline exceeded")
}

func TestCLIListings(t *testing.T) {
	h := NewCLIHarness(t)

	res := h.Run("algorithms")
	require.True(t, res.Success(), res.Stderr)
	assert.Equal(t, 5, len(strings.Split(strings.TrimSpace(res.Stdout), "\n")))

	res = h.Run("datasets")
	require.True(t, res.Success(), res.Stderr)
	assert.Contains(t, res.Stdout, "reversed")

	res = h.Run("run", "bogo")
	assert.False(t, res.Success())
	assert.Contains(t, res.Stderr, "bogo")
}
