// ABOUTME: Blocking acknowledgement dialog for failures
// ABOUTME: Rendered over the current screen until the user dismisses it

package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/maarif-planner/internal/tui/icons"
	"github.com/markalston/maarif-planner/internal/tui/styles"
)

// Modal renders title and message in a bordered box centred in width.
func Modal(title, message string, width int) string {
	boxWidth := min(max(width-8, 30), 70)

	var sb strings.Builder
	sb.WriteString(styles.StatusCritical.Render(icons.Critical.String() + " " + title))
	sb.WriteString("\n\n")
	sb.WriteString(message)
	sb.WriteString("\n\n")
	sb.WriteString(styles.Help.Render("Enter OK"))

	box := styles.Modal.Width(boxWidth).Render(sb.String())
	if width <= 0 {
		return box
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
}
