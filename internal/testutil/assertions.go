package testutil

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertSorted asserts that values are in non-decreasing order.
func AssertSorted(t *testing.T, values []int) bool {
	t.Helper()
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			return assert.Fail(t, "values are not sorted",
				"values[%d]=%d < values[%d]=%d in %v", i, values[i], i-1, values[i-1], values)
		}
	}
	return true
}

// AssertPermutation asserts that got holds exactly the values of want,
// in any order.
func AssertPermutation(t *testing.T, want, got []int) bool {
	t.Helper()
	return assert.ElementsMatch(t, want, got, "values are not a permutation of the input")
}

// SortedCopy returns a sorted copy of values.
func SortedCopy(values []int) []int {
	out := append([]int(nil), values...)
	sort.Ints(out)
	return out
}
