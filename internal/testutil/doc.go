// Package testutil provides shared test helpers for sortvis.
//
// # Fixtures
//
//   - Inputs() - named input shapes (duplicates, sorted, reversed, single)
//   - Scenario() - the [5,3,4,1,2] walk-through input
//   - Shuffled(n, seed) - a reproducible permutation of 1..n
//
// # Assertions
//
//   - AssertSorted(t, values) - values are non-decreasing
//   - AssertPermutation(t, want, got) - same multiset of values
//
// # Environment
//
//   - SetupTestDir(t) - temp directory with a .sortvis folder
//   - WriteTestFile(t, base, path, content)
//   - MustMarshalJSON / MustUnmarshalJSON
//
// # Timeouts
//
//   - ContextWithTestDeadline(t, fallback) - respects the go test deadline
//   - RunContext(t) - context for a single engine run in tests
//   - Eventually(t, cond) - poll a condition with the default run timeout
//
// The package deliberately does not import internal/engine so that the
// engine's own tests can use it.
package testutil
