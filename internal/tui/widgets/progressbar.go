// ABOUTME: Progress bar for month coverage in the calendar summary
// ABOUTME: Shows how many days of the visible month already have a plan

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var emptyBarColor = lipgloss.Color("#374151")

// CompactProgressBar renders a minimal progress bar for tight spaces
func CompactProgressBar(percent float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		width = 10
	}
	percent = max(0, min(percent, 100))

	filled := int(percent / 100.0 * float64(width))
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("▓", filled)) +
		lipgloss.NewStyle().Foreground(emptyBarColor).Render(strings.Repeat("░", width-filled))
}

// CoverageBar renders done/total as a bar followed by the count, e.g.
// "▓▓▓░░░ 12/30 days".
func CoverageBar(done, total, width int, color lipgloss.Color) string {
	percent := 0.0
	if total > 0 {
		percent = float64(done) / float64(total) * 100
	}
	return fmt.Sprintf("%s %d/%d days", CompactProgressBar(percent, width, color), done, total)
}
