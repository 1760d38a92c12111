// ABOUTME: Plans list screen with daily and monthly tabs
// ABOUTME: Opens, refreshes and requests deletion of plans

package planlist

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/tui/icons"
	"github.com/markalston/maarif-planner/internal/tui/styles"
	"github.com/markalston/maarif-planner/internal/tui/widgets"
)

// TabChangedMsg asks for the other collection to be fetched
type TabChangedMsg struct {
	Tab models.PlanType
}

// OpenMsg opens a plan's detail
type OpenMsg struct {
	Plan models.Plan
}

// DeleteMsg asks to delete a plan after confirmation
type DeleteMsg struct {
	Plan models.Plan
}

// RefreshMsg asks to re-fetch the active tab
type RefreshMsg struct{}

// View is the plans list screen
type View struct {
	tab     models.PlanType
	plans   []models.Plan
	cursor  int
	loading bool
	width   int
	height  int
}

// New creates the list on the given tab
func New(tab models.PlanType) *View {
	return &View{tab: tab, loading: true}
}

// Tab returns the active tab
func (v *View) Tab() models.PlanType { return v.tab }

// Plans returns the rows shown
func (v *View) Plans() []models.Plan { return v.plans }

// SetLoading marks the active tab as being fetched
func (v *View) SetLoading() { v.loading = true }

// SetPlans replaces the rows for tab. Rows for an inactive tab are ignored.
func (v *View) SetPlans(tab models.PlanType, plans []models.Plan) {
	if tab != v.tab {
		return
	}
	v.plans = plans
	v.loading = false
	if v.cursor >= len(plans) {
		v.cursor = max(0, len(plans)-1)
	}
}

// SetSize updates the screen dimensions
func (v *View) SetSize(width, height int) {
	v.width = width
	v.height = height
}

func (v *View) switchTab() tea.Cmd {
	if v.tab == models.PlanDaily {
		v.tab = models.PlanMonthly
	} else {
		v.tab = models.PlanDaily
	}
	v.plans = nil
	v.cursor = 0
	v.loading = true
	tab := v.tab
	return func() tea.Msg { return TabChangedMsg{Tab: tab} }
}

func (v *View) current() (models.Plan, bool) {
	if v.cursor < 0 || v.cursor >= len(v.plans) {
		return models.Plan{}, false
	}
	return v.plans[v.cursor], true
}

// Init implements tea.Model
func (v *View) Init() tea.Cmd { return nil }

// Update implements tea.Model
func (v *View) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	switch key.String() {
	case "tab", "left", "right":
		return v, v.switchTab()
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(v.plans)-1 {
			v.cursor++
		}
	case "enter":
		if p, ok := v.current(); ok {
			return v, func() tea.Msg { return OpenMsg{Plan: p} }
		}
	case "d", "delete":
		if p, ok := v.current(); ok {
			return v, func() tea.Msg { return DeleteMsg{Plan: p} }
		}
	case "r":
		v.loading = true
		return v, func() tea.Msg { return RefreshMsg{} }
	}
	return v, nil
}

func (v *View) renderTabs() string {
	tabs := []models.PlanType{models.PlanDaily, models.PlanMonthly}
	out := make([]string, 0, len(tabs))
	for _, t := range tabs {
		label := "Daily"
		if t == models.PlanMonthly {
			label = "Monthly"
		}
		if t == v.tab {
			out = append(out, styles.ActiveTab.Render(label))
		} else {
			out = append(out, styles.InactiveTab.Render(label))
		}
	}
	return strings.Join(out, " ")
}

// View implements tea.Model
func (v *View) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Plans.String() + " My plans"))
	sb.WriteString("\n")
	sb.WriteString(v.renderTabs())
	sb.WriteString("\n\n")

	switch {
	case v.loading:
		sb.WriteString(styles.Subtitle.Render("Loading..."))
	case len(v.plans) == 0:
		sb.WriteString(styles.Subtitle.Render("No plans yet. Draft one with the assistant."))
	default:
		for i, p := range v.plans {
			key := p.Date
			if v.tab == models.PlanMonthly {
				key = p.Month
			}
			line := fmt.Sprintf("%-10s  %s  %s", key, p.Title, widgets.AgeBandBadge(p.AgeBand))
			if i == v.cursor {
				sb.WriteString(styles.Selected.Render("> ") + line)
			} else {
				sb.WriteString("  " + styles.Normal.Render(line))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
