// ABOUTME: Home menu shown after signing in
// ABOUTME: Lists the main screens and reports the chosen destination

package menu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/tui/icons"
	"github.com/markalston/maarif-planner/internal/tui/styles"
	"github.com/markalston/maarif-planner/internal/tui/widgets"
)

// Destination is a main screen
type Destination int

const (
	DestChat Destination = iota
	DestCalendar
	DestPlans
	DestMatrix
	DestSettings
)

type option struct {
	icon  icons.Icon
	label string
	hint  string
	value Destination
}

// SelectedMsg is sent when a destination is chosen
type SelectedMsg struct {
	Destination Destination
}

// Menu is the home screen
type Menu struct {
	options []option
	cursor  int
	user    *models.User
	notice  string
}

// New creates the home menu
func New() *Menu {
	return &Menu{
		options: []option{
			{icons.Chat, "Plan assistant", "draft a daily or monthly plan", DestChat},
			{icons.Calendar, "Calendar", "daily plans by month", DestCalendar},
			{icons.Plans, "My plans", "browse, open and delete plans", DestPlans},
			{icons.Matrix, "Curriculum matrix", "search outcomes and indicators", DestMatrix},
			{icons.Settings, "Settings", "preferences, profile, sign out", DestSettings},
		},
	}
}

// SetUser shows who is signed in
func (m *Menu) SetUser(u *models.User) { m.user = u }

// SetNotice shows a line under the greeting, e.g. an offline warning
func (m *Menu) SetNotice(s string) { m.notice = s }

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd { return nil }

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		dest := m.options[m.cursor].value
		return m, func() tea.Msg { return SelectedMsg{Destination: dest} }
	case "1", "2", "3", "4", "5":
		i := int(key.String()[0] - '1')
		m.cursor = i
		dest := m.options[i].value
		return m, func() tea.Msg { return SelectedMsg{Destination: dest} }
	}
	return m, nil
}

// View implements tea.Model
func (m *Menu) View() string {
	var sb strings.Builder
	greeting := "Welcome"
	if m.user != nil && m.user.Name != "" {
		greeting = "Welcome, " + m.user.Name
	}
	sb.WriteString(styles.Title.Render(icons.User.String() + " " + greeting))
	sb.WriteString("\n")
	if m.notice != "" {
		sb.WriteString(widgets.StatusText(m.notice, widgets.StatusWarning))
		sb.WriteString("\n\n")
	}
	for i, opt := range m.options {
		line := opt.icon.String() + " " + opt.label
		if i == m.cursor {
			sb.WriteString(styles.Selected.Render("> "+line) + "  " + styles.Subtitle.UnsetMarginBottom().Render(opt.hint))
		} else {
			sb.WriteString("  " + styles.Normal.Render(line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
