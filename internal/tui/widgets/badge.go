// ABOUTME: Badge widgets for quick visual status indication
// ABOUTME: Colored inline badges for age bands, plan types and chat state

package widgets

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/tui/icons"
)

// StatusLevel represents the severity of a status
type StatusLevel int

const (
	StatusOK StatusLevel = iota
	StatusWarning
	StatusCritical
	StatusInfo
	StatusNeutral
)

type badgeColors struct {
	bg, fg lipgloss.Color
}

var levelColors = map[StatusLevel]badgeColors{
	StatusOK:       {lipgloss.Color("#10B981"), lipgloss.Color("#FFFFFF")},
	StatusWarning:  {lipgloss.Color("#F59E0B"), lipgloss.Color("#000000")},
	StatusCritical: {lipgloss.Color("#EF4444"), lipgloss.Color("#FFFFFF")},
	StatusInfo:     {lipgloss.Color("#3B82F6"), lipgloss.Color("#FFFFFF")},
	StatusNeutral:  {lipgloss.Color("#6B7280"), lipgloss.Color("#FFFFFF")},
}

func colorsFor(level StatusLevel) badgeColors {
	if c, ok := levelColors[level]; ok {
		return c
	}
	return levelColors[StatusNeutral]
}

// Badge renders a colored status badge
func Badge(text string, level StatusLevel) string {
	c := colorsFor(level)
	return lipgloss.NewStyle().
		Background(c.bg).
		Foreground(c.fg).
		Padding(0, 1).
		Bold(true).
		Render(text)
}

// AgeBandBadge colors each band differently so mixed lists scan quickly.
func AgeBandBadge(band models.AgeBand) string {
	level := StatusNeutral
	switch band {
	case models.AgeBand36to48:
		level = StatusInfo
	case models.AgeBand48to60:
		level = StatusOK
	case models.AgeBand60to72:
		level = StatusWarning
	}
	return Badge(band.Label(), level)
}

// PlanTypeBadge renders DAILY or MONTHLY.
func PlanTypeBadge(t models.PlanType) string {
	if t == models.PlanMonthly {
		return Badge("MONTHLY", StatusInfo)
	}
	return Badge("DAILY", StatusOK)
}

// StatusIcon returns the appropriate icon for a status level
func StatusIcon(level StatusLevel) string {
	style := lipgloss.NewStyle().Foreground(colorsFor(level).bg)
	switch level {
	case StatusOK:
		return style.Render(icons.CheckOK.String())
	case StatusWarning:
		return style.Render(icons.Warning.String())
	case StatusCritical:
		return style.Render(icons.Critical.String())
	case StatusInfo:
		return style.Render(icons.Info.String())
	}
	return style.Render("•")
}

// StatusText returns styled status text with icon
func StatusText(text string, level StatusLevel) string {
	textStyle := lipgloss.NewStyle().Foreground(colorsFor(level).bg)
	return fmt.Sprintf("%s %s", StatusIcon(level), textStyle.Render(text))
}
