// ABOUTME: Compact count block widget for summary panes
// ABOUTME: Title in the top border, a bold value and a muted caption below

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/maarif-planner/internal/tui/icons"
)

// MetricBlockConfig holds configuration for a metric block
type MetricBlockConfig struct {
	Width       int
	BorderColor lipgloss.Color
	TitleColor  lipgloss.Color
	ValueColor  lipgloss.Color
}

// DefaultMetricBlockConfig returns sensible defaults
func DefaultMetricBlockConfig() MetricBlockConfig {
	return MetricBlockConfig{
		Width:       24,
		BorderColor: lipgloss.Color("#6B7280"),
		TitleColor:  lipgloss.Color("#0EA5E9"),
		ValueColor:  lipgloss.Color("#F9FAFB"),
	}
}

// MetricBlock renders a value with a caption in a box titled title.
// value may carry styling; its printable width is measured with lipgloss.
func MetricBlock(icon icons.Icon, title, value, caption string, config MetricBlockConfig) string {
	if config.Width <= 0 {
		config.Width = DefaultMetricBlockConfig().Width
	}
	inner := config.Width - 4

	heading := truncate(fmt.Sprintf("%s %s", icon.String(), title), inner)
	titleStyle := lipgloss.NewStyle().Foreground(config.TitleColor)
	top := fmt.Sprintf("┌─ %s %s┐", titleStyle.Render(heading),
		strings.Repeat("─", max(0, inner-lipgloss.Width(heading)-1)))

	line := func(s string) string {
		return "│  " + s + strings.Repeat(" ", max(0, inner-lipgloss.Width(s))) + "│"
	}
	valueStyle := lipgloss.NewStyle().Foreground(config.ValueColor).Bold(true)
	captionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	border := lipgloss.NewStyle().Foreground(config.BorderColor)
	return strings.Join([]string{
		border.Render(top),
		border.Render(line(valueStyle.Render(value))),
		border.Render(line(captionStyle.Render(truncate(caption, inner)))),
		border.Render("└" + strings.Repeat("─", config.Width-2) + "┘"),
	}, "\n")
}

// CountBlock renders a simple count metric
func CountBlock(icon icons.Icon, title string, count int, label string, config MetricBlockConfig) string {
	return MetricBlock(icon, title, fmt.Sprintf("%d", count), label, config)
}

// truncate shortens s to maxLen runes with an ellipsis.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
