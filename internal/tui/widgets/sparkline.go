// ABOUTME: Sparkline widget renders mini charts using block characters
// ABOUTME: Used for plans per week across the visible month

package widgets

import (
	"github.com/charmbracelet/lipgloss"
)

// SparklineBlocks are the Unicode block characters for different heights
var SparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders one block per count, scaled from zero to the largest
// count. An all-zero series renders as the lowest block.
func Sparkline(counts []int, color lipgloss.Color) string {
	if len(counts) == 0 {
		return ""
	}
	top := 0
	for _, c := range counts {
		top = max(top, c)
	}

	out := make([]rune, len(counts))
	for i, c := range counts {
		out[i] = countToBlock(c, top)
	}

	style := lipgloss.NewStyle()
	if color != "" {
		style = style.Foreground(color)
	}
	return style.Render(string(out))
}

func countToBlock(count, top int) rune {
	if top <= 0 || count <= 0 {
		return SparklineBlocks[0]
	}
	idx := count * (len(SparklineBlocks) - 1) / top
	return SparklineBlocks[min(idx, len(SparklineBlocks)-1)]
}
