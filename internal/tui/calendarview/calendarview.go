// ABOUTME: Month calendar screen marking days that have plans
// ABOUTME: Grid on the left, month summary and the selected day on the right

package calendarview

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/plans"
	"github.com/markalston/maarif-planner/internal/tui/icons"
	"github.com/markalston/maarif-planner/internal/tui/styles"
	"github.com/markalston/maarif-planner/internal/tui/widgets"
)

// MonthChangedMsg asks for another month to be fetched
type MonthChangedMsg struct {
	Month plans.Month
}

// OpenPlanMsg opens one of the selected day's plans
type OpenPlanMsg struct {
	Plan models.Plan
}

// CreateMsg asks to draft a plan for an empty day
type CreateMsg struct {
	Date string
}

// View is the calendar screen
type View struct {
	month     plans.Month
	page      *plans.CalendarPage
	marks     map[string][]models.Plan
	cursor    int // index into month.Days()
	today     string
	selection *plans.Selection
	loading   bool
	width     int
	height    int
}

// New shows the month containing today with the cursor on today
func New(month plans.Month, today string) *View {
	v := &View{month: month, today: today, loading: true}
	v.cursor = v.indexOf(today)
	return v
}

func (v *View) indexOf(date string) int {
	for i, d := range v.month.Days() {
		if d == date {
			return i
		}
	}
	return 0
}

// Month returns the visible month
func (v *View) Month() plans.Month { return v.month }

// Loading reports whether the visible month is still being fetched
func (v *View) Loading() bool { return v.loading }

// SetPage shows a fetched month. A page for another month is ignored.
func (v *View) SetPage(page *plans.CalendarPage) {
	if page == nil || page.Month != v.month {
		return
	}
	v.page = page
	v.marks = page.Marks()
	v.loading = false
	if v.selection != nil {
		sel := page.Select(v.selection.Date)
		v.selection = &sel
	}
}

// Selection returns the picked day, or nil
func (v *View) Selection() *plans.Selection { return v.selection }

// CursorDate returns the highlighted day
func (v *View) CursorDate() string {
	days := v.month.Days()
	return days[min(v.cursor, len(days)-1)]
}

// SetSize updates the screen dimensions
func (v *View) SetSize(width, height int) {
	v.width = width
	v.height = height
}

func (v *View) changeMonth(m plans.Month) tea.Cmd {
	v.month = m
	v.page = nil
	v.marks = nil
	v.selection = nil
	v.loading = true
	v.cursor = 0
	return func() tea.Msg { return MonthChangedMsg{Month: m} }
}

// Init implements tea.Model
func (v *View) Init() tea.Cmd { return nil }

// Update implements tea.Model
func (v *View) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	last := len(v.month.Days()) - 1

	switch key.String() {
	case "left", "h":
		v.cursor = max(0, v.cursor-1)
	case "right", "l":
		v.cursor = min(last, v.cursor+1)
	case "up", "k":
		v.cursor = max(0, v.cursor-7)
	case "down", "j":
		v.cursor = min(last, v.cursor+7)
	case "[", "p":
		return v, v.changeMonth(v.month.Prev())
	case "]", "n":
		return v, v.changeMonth(v.month.Next())
	case "enter":
		if v.page == nil {
			return v, nil
		}
		date := v.CursorDate()
		if v.selection != nil && v.selection.Date == date && !v.selection.CreateNew() {
			plan := v.selection.Plans[0]
			return v, func() tea.Msg { return OpenPlanMsg{Plan: plan} }
		}
		sel := v.page.Select(date)
		v.selection = &sel
	case "c":
		if v.selection != nil && v.selection.CreateNew() {
			date := v.selection.Date
			return v, func() tea.Msg { return CreateMsg{Date: date} }
		}
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if v.selection == nil {
			return v, nil
		}
		n := int(key.String()[0] - '1')
		if n < len(v.selection.Plans) {
			plan := v.selection.Plans[n]
			return v, func() tea.Msg { return OpenPlanMsg{Plan: plan} }
		}
	}
	return v, nil
}

// weeklyCounts counts plans per Monday-first grid row.
func (v *View) weeklyCounts() []int {
	days := v.month.Days()
	rows := (v.month.LeadingBlanks() + len(days) + 6) / 7
	counts := make([]int, rows)
	for i, d := range days {
		counts[(v.month.LeadingBlanks()+i)/7] += len(v.marks[d])
	}
	return counts
}

func (v *View) renderGrid() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(fmt.Sprintf("%s %s %d", icons.Calendar.String(), v.month.Month, v.month.Year)))
	sb.WriteString("\n")
	sb.WriteString(styles.Subtitle.UnsetMarginBottom().Render(" Mo  Tu  We  Th  Fr  Sa  Su"))
	sb.WriteString("\n")

	col := v.month.LeadingBlanks()
	sb.WriteString(strings.Repeat("    ", col))
	for i, d := range v.month.Days() {
		cell := fmt.Sprintf("%3d", i+1)
		mark := " "
		if len(v.marks[d]) > 0 {
			mark = "*"
			cell = styles.Marked.Render(cell)
		}
		if d == v.today {
			cell = styles.Today.Render(cell)
		}
		if i == v.cursor {
			cell = styles.Selected.Render(fmt.Sprintf(">%2d", i+1))
		}
		sb.WriteString(cell + mark)
		col++
		if col == 7 {
			sb.WriteString("\n")
			col = 0
		}
	}
	if v.loading {
		sb.WriteString("\n\n" + styles.Subtitle.Render("Loading plans..."))
	}
	return sb.String()
}

func (v *View) renderSummary() string {
	days := v.month.Days()
	total, covered := 0, 0
	for _, d := range days {
		total += len(v.marks[d])
		if len(v.marks[d]) > 0 {
			covered++
		}
	}

	var sb strings.Builder
	cfg := widgets.DefaultMetricBlockConfig()
	sb.WriteString(widgets.CountBlock(icons.Plans, "This month", total, "daily plans", cfg))
	sb.WriteString("\n")
	sb.WriteString(widgets.CoverageBar(covered, len(days), 12, styles.Secondary))
	sb.WriteString("\n")
	sb.WriteString("Per week " + widgets.Sparkline(v.weeklyCounts(), styles.Accent))
	sb.WriteString("\n\n")
	sb.WriteString(v.renderSelection())
	return sb.String()
}

func (v *View) renderSelection() string {
	if v.selection == nil {
		return styles.Help.Render("Enter to see a day")
	}
	var sb strings.Builder
	sb.WriteString(styles.ValueStyle.Render(v.selection.Date))
	sb.WriteString("\n")
	if v.selection.CreateNew() {
		sb.WriteString("No plans on this day.\n")
		sb.WriteString(styles.KeyStyle.Render("c") + " create one with the assistant")
		return sb.String()
	}
	for i, p := range v.selection.Plans {
		sb.WriteString(fmt.Sprintf("%d. %s %s\n", i+1, p.Title, widgets.AgeBandBadge(p.AgeBand)))
	}
	sb.WriteString(styles.Help.Render("1-9 open a plan"))
	return sb.String()
}

// View implements tea.Model
func (v *View) View() string {
	grid := styles.ActivePanel.Render(v.renderGrid())
	summary := styles.Panel.Render(v.renderSummary())
	if v.width > 0 && v.width < 80 {
		return lipgloss.JoinVertical(lipgloss.Left, grid, summary)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, grid, summary)
}
