package formatter

import (
	"github.com/mattn/go-runewidth"
)

// Truncate shortens s to at most width display columns, marking the cut with
// "...". CJK characters count as two columns.
func Truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
