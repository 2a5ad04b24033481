package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/thruflo/sortvis/internal/engine"
)

// Box drawing characters (Unicode)
const (
	BoxTopLeft     = "┌"
	BoxTopRight    = "┐"
	BoxBottomLeft  = "└"
	BoxBottomRight = "┘"
	BoxHorizontal  = "─"
	BoxVertical    = "│"

	BarBlock = "█"
)

// BoxWithContent draws a box containing the given content lines.
// Each line is padded/truncated to fit within the box.
func BoxWithContent(width int, content []string) []string {
	if width < 4 {
		return nil
	}

	innerWidth := width - 4 // Account for borders and padding
	lines := make([]string, 0, len(content)+2)

	lines = append(lines, BoxTopLeft+strings.Repeat(BoxHorizontal, width-2)+BoxTopRight)
	for _, line := range content {
		lines = append(lines, BoxVertical+" "+PadOrTruncate(line, innerWidth)+" "+BoxVertical)
	}
	lines = append(lines, BoxBottomLeft+strings.Repeat(BoxHorizontal, width-2)+BoxBottomRight)

	return lines
}

// VisibleWidth returns the number of runes in s, ignoring ANSI escape
// sequences.
func VisibleWidth(s string) int {
	n := 0
	for i := 0; i < len(s); {
		if s[i] == '\033' {
			i = skipEscape(s, i)
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		n++
	}
	return n
}

// skipEscape returns the index just past the CSI sequence starting at i.
func skipEscape(s string, i int) int {
	j := i + 1
	if j < len(s) && s[j] == '[' {
		j++
		for j < len(s) && (s[j] < 0x40 || s[j] > 0x7E) {
			j++
		}
	}
	if j < len(s) {
		j++
	}
	return j
}

// cut returns the prefix of s holding width visible runes. Escape
// sequences are kept and a Reset is appended when any were seen.
func cut(s string, width int) string {
	var b strings.Builder
	styled := false
	n := 0
	for i := 0; i < len(s) && n < width; {
		if s[i] == '\033' {
			end := skipEscape(s, i)
			b.WriteString(s[i:end])
			styled = true
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		b.WriteString(s[i : i+size])
		i += size
		n++
	}
	if styled {
		b.WriteString(Reset)
	}
	return b.String()
}

// PadOrTruncate pads or truncates a string to exactly width visible
// characters.
func PadOrTruncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	visible := VisibleWidth(s)
	if visible == width {
		return s
	}
	if visible < width {
		return s + strings.Repeat(" ", width-visible)
	}

	if width >= 3 {
		return cut(s, width-3) + "..."
	}
	return cut(s, width)
}

// Truncate truncates a string to max width, adding ellipsis if needed.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if VisibleWidth(s) <= width {
		return s
	}
	if width >= 3 {
		return cut(s, width-3) + "..."
	}
	return cut(s, width)
}

// CenterText centers text within the given width.
func CenterText(s string, width int) string {
	visible := VisibleWidth(s)
	if visible >= width {
		return PadOrTruncate(s, width)
	}

	leftPad := (width - visible) / 2
	rightPad := width - visible - leftPad

	return strings.Repeat(" ", leftPad) + s + strings.Repeat(" ", rightPad)
}

// ProgressBar renders a simple progress bar.
// Returns a string like "[████████░░░░░░░░]  50%"
func ProgressBar(current, total, width int) string {
	if total <= 0 || width < 10 {
		return ""
	}

	pct := float64(current) / float64(total)
	if pct > 1 {
		pct = 1
	}
	if pct < 0 {
		pct = 0
	}

	barWidth := width - 7 // Space for "[] XXX%"
	filled := int(pct * float64(barWidth))
	empty := barWidth - filled

	bar := "[" +
		strings.Repeat("█", filled) +
		strings.Repeat("░", empty) +
		"]"

	return bar + " " + fmt.Sprintf("%3d", int(pct*100)) + "%"
}

// Style applies ANSI style codes to text.
func Style(s string, codes ...string) string {
	if len(codes) == 0 {
		return s
	}
	return strings.Join(codes, "") + s + Reset
}

// StatusColor returns the color code for a run status.
func StatusColor(status engine.Status) string {
	switch status {
	case engine.StatusRunning:
		return FgGreen
	case engine.StatusCompleted:
		return FgBrightGreen
	case engine.StatusCancelled:
		return FgYellow
	default:
		return FgBrightBlack
	}
}

// FormatStatus formats a status in upper case with its color.
func FormatStatus(status engine.Status) string {
	return Style(strings.ToUpper(status.String()), StatusColor(status), Bold)
}
