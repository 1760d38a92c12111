// ABOUTME: Header and footer frame drawn around every screen
// ABOUTME: Shows the signed-in teacher, screen shortcuts and request status

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/maarif-planner/internal/tui/icons"
	"github.com/markalston/maarif-planner/internal/tui/styles"
)

const minTerminalWidth = 80

// frameWidth leaves one column free so the frame never wraps.
func (a *App) frameWidth() int {
	return max(a.width-1, minTerminalWidth)
}

// contentHeight is the height left between header and footer.
func (a *App) contentHeight() int {
	return max(a.height-4, 10)
}

func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	left := " " + icons.App.String() + " " + titleStyle.Render("Lesson Planner") + " "

	right := ""
	if a.user != nil && a.screen != ScreenLogin && a.screen != ScreenLaunch {
		who := a.user.Name
		if a.user.School != nil && *a.user.School != "" {
			who += " · " + *a.user.School
		}
		right = " " + contextStyle.Render(who) + " "
	}

	fill := max(width-4-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return borderStyle.Render("╭─" + left + strings.Repeat("─", fill) + right + "─╮")
}

func (a *App) shortcuts() []string {
	switch {
	case a.modal != "":
		return []string{"Enter OK"}
	case a.confirm != nil:
		return []string{"←→ Choose", "Enter Confirm", "Esc Cancel"}
	}
	switch a.screen {
	case ScreenLogin:
		return []string{"Tab Next", "Enter Submit", "ctrl+r Switch", "Esc Quit"}
	case ScreenHome:
		return []string{"↑↓ Navigate", "Enter Select", "q Quit"}
	case ScreenChat:
		return []string{"Enter Send", "ctrl+s Save", "ctrl+t Type", "ctrl+r New", "Esc Home"}
	case ScreenCalendar:
		return []string{"←→↑↓ Day", "[ ] Month", "Enter Select", "c Create", "Esc Home"}
	case ScreenPlans:
		return []string{"Tab Daily/Monthly", "Enter Open", "d Delete", "r Refresh", "Esc Home"}
	case ScreenDetail:
		return []string{"Tab Section", "a Add photo", "x Delete photo", "b Back"}
	case ScreenMatrix:
		return []string{"Enter Search", "ctrl+a Age", "ctrl+x Clear recent", "Esc Home"}
	case ScreenSettings:
		return []string{"↑↓ Navigate", "Enter Change", "Esc Home"}
	}
	return []string{"ctrl+c Quit"}
}

func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	shortcuts := a.shortcuts()
	styled := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		if k, label, ok := strings.Cut(s, " "); ok {
			styled = append(styled, keyStyle.Render(k)+" "+labelStyle.Render(label))
		} else {
			styled = append(styled, s)
		}
	}
	left := " " + strings.Join(styled, "  ") + " "

	right := ""
	if a.pending > 0 {
		right = " " + statusStyle.Render("Loading...") + " "
	}

	fill := max(width-4-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return borderStyle.Render("╰─" + left + strings.Repeat("─", fill) + right + "─╯")
}

func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder
	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())
	return sb.String()
}
