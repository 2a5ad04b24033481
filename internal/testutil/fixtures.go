package testutil

import "math/rand"

// Scenario returns the walk-through input used across the engine tests.
func Scenario() []int {
	return []int{5, 3, 4, 1, 2}
}

// Inputs returns named input shapes every algorithm must handle.
// Each call returns fresh slices.
func Inputs() map[string][]int {
	return map[string][]int{
		"scenario":       Scenario(),
		"duplicates":     {2, 2, 1},
		"many dupes":     {3, 1, 3, 1, 2, 2, 3, 1},
		"already sorted": {1, 2, 3, 4, 5, 6, 7, 8},
		"reversed":       {8, 7, 6, 5, 4, 3, 2, 1},
		"single":         {42},
		"pair":           {2, 1},
		"all equal":      {7, 7, 7, 7},
		"negatives":      {0, -3, 12, -3, 5, -1},
		"shuffled":       Shuffled(64, 7),
	}
}

// Shuffled returns a reproducible permutation of 1..n.
func Shuffled(n int, seed int64) []int {
	values := make([]int, n)
	for i := range values {
		values[i] = i + 1
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})
	return values
}
