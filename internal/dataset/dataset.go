// Package dataset produces the integer sequences that the visualizer sorts.
package dataset

import (
	"fmt"
	"math/rand"
	"strings"
)

// Type names a data set preset.
type Type string

const (
	Sample    Type = "sample"
	Small     Type = "small"
	Medium    Type = "medium"
	Large     Type = "large"
	Sorted    Type = "sorted"
	Reversed  Type = "reversed"
	FewUnique Type = "few-unique"
)

// DefaultMax is the largest value a random preset produces when
// Options.Max is unset.
const DefaultMax = 100

var descriptions = map[Type]string{
	Sample:    "fixed 100 values between 1 and 100",
	Small:     "20 random values",
	Medium:    "50 random values",
	Large:     "100 random values",
	Sorted:    "ascending values",
	Reversed:  "descending values",
	FewUnique: "random values drawn from five distinct keys",
}

var defaultSizes = map[Type]int{
	Small:     20,
	Medium:    50,
	Large:     100,
	Sorted:    50,
	Reversed:  50,
	FewUnique: 50,
}

// sample is the fixed sequence the visualizer starts with.
var sample = []int{
	27, 8, 12, 54, 32, 42, 32, 54, 97, 14, 96, 9, 28, 35, 5, 41, 78, 11, 14, 96,
	1, 18, 73, 91, 79, 65, 28, 80, 98, 99, 11, 19, 65, 78, 61, 31, 64, 41, 98, 10,
	69, 99, 4, 62, 60, 11, 85, 26, 64, 25, 2, 77, 97, 52, 90, 76, 50, 72, 73, 46,
	100, 16, 29, 52, 63, 5, 61, 71, 47, 89, 15, 36, 28, 83, 67, 46, 71, 10, 94, 77,
	88, 71, 44, 71, 77, 13, 32, 54, 67, 73, 92, 42, 21, 35, 39, 22, 29, 58, 42, 15,
}

// Types returns every preset in display order.
func Types() []Type {
	return []Type{Sample, Small, Medium, Large, Sorted, Reversed, FewUnique}
}

// Valid reports whether t is a known preset.
func (t Type) Valid() bool {
	_, ok := descriptions[t]
	return ok
}

// Description returns a short human readable summary of the preset.
func (t Type) Description() string {
	return descriptions[t]
}

// DefaultSize returns the length the preset produces when Options.Size is
// zero.
func (t Type) DefaultSize() int {
	if t == Sample {
		return len(sample)
	}
	return defaultSizes[t]
}

// ParseType looks up a preset by name, ignoring case and surrounding space.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown data set %q", s)
	}
	return t, nil
}

// Options tunes generation. Zero values select the preset defaults.
type Options struct {
	// Size overrides the preset length. Ignored by Sample.
	Size int
	// Seed makes random presets reproducible.
	Seed int64
	// Max is the largest value produced, at least 1.
	Max int
}

// Generate returns a fresh sequence for t.
func Generate(t Type, opts Options) ([]int, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown data set %q", string(t))
	}
	if opts.Size < 0 {
		return nil, fmt.Errorf("invalid data set size %d", opts.Size)
	}
	if t == Sample {
		return append([]int(nil), sample...), nil
	}

	size := opts.Size
	if size == 0 {
		size = t.DefaultSize()
	}
	max := opts.Max
	if max <= 0 {
		max = DefaultMax
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	values := make([]int, size)
	switch t {
	case Sorted:
		for i := range values {
			values[i] = scale(i, size, max)
		}
	case Reversed:
		for i := range values {
			values[i] = scale(size-1-i, size, max)
		}
	case FewUnique:
		keys := make([]int, 5)
		for i := range keys {
			keys[i] = 1 + rng.Intn(max)
		}
		for i := range values {
			values[i] = keys[rng.Intn(len(keys))]
		}
	default:
		for i := range values {
			values[i] = 1 + rng.Intn(max)
		}
	}
	return values, nil
}

// scale spreads position i of n over 1..max, ascending.
func scale(i, n, max int) int {
	if n <= 1 {
		return max
	}
	return 1 + i*(max-1)/(n-1)
}
