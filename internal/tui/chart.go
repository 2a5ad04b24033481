package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thruflo/sortvis/internal/engine"
)

// ChartOptions controls RenderChart.
type ChartOptions struct {
	// Width and Height are the chart area in cells.
	Width  int
	Height int

	// Highlight colors the primary bar red and the secondary bar yellow.
	Highlight bool

	// ShowValues adds a line of bar labels below the chart. Labels that do
	// not fit their bar are left blank.
	ShowValues bool
}

// bar is one chart column group: the largest value it covers and whether
// it covers a highlighted index.
type bar struct {
	value     int
	primary   bool
	secondary bool
}

// RenderChart draws values as vertical bars, tallest value at full height.
// When there are more values than columns, neighbouring values share a
// bar showing their maximum.
func RenderChart(values []int, primary, secondary int, opts ChartOptions) []string {
	if len(values) == 0 || opts.Width <= 0 || opts.Height <= 0 {
		return nil
	}

	bars := groupBars(values, primary, secondary, opts.Width)
	barWidth := opts.Width / len(bars)
	fill := barWidth
	if barWidth > 1 {
		fill = barWidth - 1
	}

	lo, hi := bars[0].value, bars[0].value
	for _, b := range bars {
		lo = min(lo, b.value)
		hi = max(hi, b.value)
	}
	shift := 0
	if lo < 0 {
		shift = -lo
	}

	heights := make([]int, len(bars))
	for i, b := range bars {
		heights[i] = scaleHeight(b.value+shift, hi+shift, opts.Height)
	}

	lines := make([]string, 0, opts.Height+1)
	for row := opts.Height; row >= 1; row-- {
		var sb strings.Builder
		for i, b := range bars {
			cell := strings.Repeat(" ", fill)
			if heights[i] >= row {
				cell = strings.Repeat(BarBlock, fill)
				if color := barColor(b, opts.Highlight); color != "" {
					cell = Style(cell, color)
				}
			}
			sb.WriteString(cell)
			sb.WriteString(strings.Repeat(" ", barWidth-fill))
		}
		lines = append(lines, sb.String())
	}

	if opts.ShowValues {
		var sb strings.Builder
		for _, b := range bars {
			label := strconv.Itoa(b.value)
			if len(label) > fill {
				label = ""
			}
			sb.WriteString(CenterText(label, fill))
			sb.WriteString(strings.Repeat(" ", barWidth-fill))
		}
		lines = append(lines, sb.String())
	}

	return lines
}

func groupBars(values []int, primary, secondary, width int) []bar {
	n := len(values)
	cols := min(n, width)
	bars := make([]bar, cols)
	for c := range bars {
		start := c * n / cols
		end := (c + 1) * n / cols
		b := bar{value: values[start]}
		for i := start; i < end; i++ {
			b.value = max(b.value, values[i])
			b.primary = b.primary || i == primary
			b.secondary = b.secondary || i == secondary
		}
		bars[c] = b
	}
	return bars
}

// scaleHeight maps v in [0, top] onto [0, height]; any positive value gets
// at least one row.
func scaleHeight(v, top, height int) int {
	if top <= 0 || v <= 0 {
		return 0
	}
	return (v*height + top - 1) / top
}

func barColor(b bar, highlight bool) string {
	if !highlight {
		return ""
	}
	switch {
	case b.primary:
		return FgRed
	case b.secondary:
		return FgYellow
	}
	return ""
}

// FormatElapsed renders the timer: seconds with millisecond precision once
// a run has completed or while it is running, "N/A" otherwise.
func FormatElapsed(p engine.Progress) string {
	if !p.HasElapsed {
		return "N/A"
	}
	return fmt.Sprintf("%.3f s", p.Elapsed.Seconds())
}
