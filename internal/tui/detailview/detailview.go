// ABOUTME: Plan detail screen with overview, activities, assessment and portfolio tabs
// ABOUTME: Markdown rendered by glamour inside a scrollable viewport

package detailview

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/plans"
	"github.com/markalston/maarif-planner/internal/tui/icons"
	"github.com/markalston/maarif-planner/internal/tui/styles"
	"github.com/markalston/maarif-planner/internal/tui/widgets"
)

// AddPhotoMsg asks to upload the image at Path
type AddPhotoMsg struct {
	ActivityTitle string
	Path          string
	Description   string
}

// DeletePhotoMsg asks to delete a portfolio photo
type DeletePhotoMsg struct {
	Photo models.PortfolioPhoto
}

// BackMsg leaves the detail screen
type BackMsg struct{}

// View is the plan detail screen
type View struct {
	detail   *plans.Detail
	tabs     []plans.Tab
	tab      int
	viewport viewport.Model
	style    string
	status   string
	photo    int

	form        *huh.Form
	activity    string
	path        string
	description string

	width  int
	height int
}

// New creates an empty detail screen; SetDetail fills it
func New() *View {
	style := os.Getenv("GLAMOUR_STYLE")
	if style == "" {
		style = "dark"
	}
	return &View{viewport: viewport.New(80, 20), style: style}
}

// SetDetail shows a loaded plan, keeping the tab when the type allows it.
func (v *View) SetDetail(d *plans.Detail) {
	current := v.CurrentTab()
	v.detail = d
	v.tabs = plans.Tabs(d.Type())
	v.tab = 0
	for i, t := range v.tabs {
		if t == current {
			v.tab = i
		}
	}
	v.photo = min(v.photo, max(0, len(d.Portfolio)-1))
	v.render()
}

// Detail returns the plan shown, or nil while loading
func (v *View) Detail() *plans.Detail { return v.detail }

// SetPortfolio replaces the photos after an upload or delete
func (v *View) SetPortfolio(photos []models.PortfolioPhoto) {
	if v.detail == nil {
		return
	}
	v.detail.Portfolio = photos
	v.photo = min(v.photo, max(0, len(photos)-1))
	v.render()
}

// SetStatus shows a one-line notice under the content
func (v *View) SetStatus(s string) { v.status = s }

// CurrentTab returns the visible tab
func (v *View) CurrentTab() plans.Tab {
	if v.tab < len(v.tabs) {
		return v.tabs[v.tab]
	}
	return plans.TabOverview
}

// FormOpen reports whether the photo form has the keyboard
func (v *View) FormOpen() bool { return v.form != nil }

// SetSize updates the screen dimensions
func (v *View) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = max(5, height-5)
	v.render()
}

func (v *View) render() {
	if v.detail == nil {
		return
	}
	md := v.detail.Markdown(v.CurrentTab())
	out, err := plans.RenderWithStyle(md, max(40, v.width-4), v.style)
	if err != nil {
		out = md
	}
	v.viewport.SetContent(out)
	v.viewport.GotoTop()
}

func (v *View) openPhotoForm() tea.Cmd {
	if err := v.detail.CanAddPhoto(); err != nil {
		v.status = photoRefusal(err)
		return nil
	}
	titles := v.detail.Content.ActivityTitles()
	v.activity = titles[0]
	v.path = ""
	v.description = ""

	options := make([]huh.Option[string], 0, len(titles))
	for _, t := range titles {
		options = append(options, huh.NewOption(t, t))
	}
	v.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Activity").Options(options...).Value(&v.activity),
			huh.NewInput().Title("Image file").Placeholder("/path/to/photo.jpg").Value(&v.path).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("choose an image file")
					}
					return nil
				}),
			huh.NewInput().Title("Description").Description("Optional").Value(&v.description),
		).Title("Add a portfolio photo"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
	return v.form.Init()
}

func photoRefusal(err error) string {
	switch {
	case errors.Is(err, plans.ErrPortfolioDailyOnly):
		return "Photos can only be added to daily plans."
	case errors.Is(err, plans.ErrNoActivities):
		return "This plan has no activities to attach photos to."
	}
	return err.Error()
}

// Init implements tea.Model
func (v *View) Init() tea.Cmd { return nil }

// Update implements tea.Model
func (v *View) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if v.form != nil {
		return v.updateForm(msg)
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	v.status = ""
	if v.detail == nil {
		if key.String() == "esc" || key.String() == "b" {
			return v, func() tea.Msg { return BackMsg{} }
		}
		return v, nil
	}

	switch key.String() {
	case "esc", "b":
		return v, func() tea.Msg { return BackMsg{} }
	case "tab", "right", "l":
		v.tab = (v.tab + 1) % len(v.tabs)
		v.render()
		return v, nil
	case "shift+tab", "left", "h":
		v.tab = (v.tab + len(v.tabs) - 1) % len(v.tabs)
		v.render()
		return v, nil
	case "a":
		return v, v.openPhotoForm()
	}

	if v.CurrentTab() == plans.TabPortfolio {
		switch key.String() {
		case "up", "k":
			v.photo = max(0, v.photo-1)
			return v, nil
		case "down", "j":
			v.photo = min(max(0, len(v.detail.Portfolio)-1), v.photo+1)
			return v, nil
		case "x", "d":
			if v.photo < len(v.detail.Portfolio) {
				photo := v.detail.Portfolio[v.photo]
				return v, func() tea.Msg { return DeletePhotoMsg{Photo: photo} }
			}
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v *View) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		v.form = nil
		return v, nil
	}
	form, cmd := v.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		v.form = f
	}
	if v.form.State == huh.StateCompleted {
		v.form = nil
		out := AddPhotoMsg{ActivityTitle: v.activity, Path: strings.TrimSpace(v.path), Description: v.description}
		return v, func() tea.Msg { return out }
	}
	return v, cmd
}

func (v *View) renderTabs() string {
	out := make([]string, 0, len(v.tabs))
	for i, t := range v.tabs {
		label := strings.ToUpper(string(t[:1])) + string(t[1:])
		if i == v.tab {
			out = append(out, styles.ActiveTab.Render(label))
		} else {
			out = append(out, styles.InactiveTab.Render(label))
		}
	}
	return strings.Join(out, " ")
}

func (v *View) renderPhotoCursor() string {
	if v.CurrentTab() != plans.TabPortfolio || len(v.detail.Portfolio) == 0 {
		return ""
	}
	p := v.detail.Portfolio[v.photo]
	return fmt.Sprintf("%s %d/%d %s  %s delete",
		icons.Portfolio.String(), v.photo+1, len(v.detail.Portfolio), p.ActivityTitle, styles.KeyStyle.Render("x"))
}

// View implements tea.Model
func (v *View) View() string {
	if v.detail == nil {
		return styles.Subtitle.Render("Loading plan...")
	}
	if v.form != nil {
		return v.form.View() + "\n" + styles.Help.Render("esc cancel")
	}

	var sb strings.Builder
	p := v.detail.Plan
	key := p.Date
	if key == "" {
		key = p.Month
	}
	sb.WriteString(fmt.Sprintf("%s %s  %s %s\n",
		styles.Title.UnsetMarginBottom().Render(p.Title), key, widgets.PlanTypeBadge(v.detail.Type()), widgets.AgeBandBadge(p.AgeBand)))
	sb.WriteString(v.renderTabs())
	sb.WriteString("\n")
	sb.WriteString(v.viewport.View())
	if line := v.renderPhotoCursor(); line != "" {
		sb.WriteString("\n" + line)
	}
	if v.status != "" {
		sb.WriteString("\n" + widgets.StatusText(v.status, widgets.StatusWarning))
	}
	return sb.String()
}
