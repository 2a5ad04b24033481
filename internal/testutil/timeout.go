package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	// DefaultRunTimeout bounds a single engine run in tests.
	DefaultRunTimeout = 10 * time.Second

	// DefaultTestBuffer is subtracted from the test deadline to leave time
	// for cleanup before the test binary times out.
	DefaultTestBuffer = 2 * time.Second

	// PollInterval is how often Eventually re-checks its condition.
	PollInterval = 5 * time.Millisecond
)

// ContextWithTestDeadline creates a context that respects the test's deadline
// minus DefaultTestBuffer, falling back to fallback when the test has no
// deadline or the adjusted deadline has already passed.
//
// Usage:
//
//	ctx, cancel := testutil.ContextWithTestDeadline(t, 5*time.Second)
//	defer cancel()
func ContextWithTestDeadline(t *testing.T, fallback time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()

	if deadline, ok := t.Deadline(); ok {
		adjusted := deadline.Add(-DefaultTestBuffer)
		if time.Until(adjusted) > 0 && time.Until(adjusted) < fallback {
			return context.WithDeadline(context.Background(), adjusted)
		}
	}
	return context.WithTimeout(context.Background(), fallback)
}

// RunContext returns a context suitable for one engine run.
func RunContext(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return ContextWithTestDeadline(t, DefaultRunTimeout)
}

// Eventually fails the test unless cond becomes true within
// DefaultRunTimeout.
func Eventually(t *testing.T, cond func() bool, msgAndArgs ...interface{}) {
	t.Helper()
	require.Eventually(t, cond, DefaultRunTimeout, PollInterval, msgAndArgs...)
}
