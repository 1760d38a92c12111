// ABOUTME: Curriculum matrix search screen
// ABOUTME: Query input with age band filter, recent searches and results

package matrixview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/maarif-planner/internal/matrix"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/tui/icons"
	"github.com/markalston/maarif-planner/internal/tui/styles"
	"github.com/markalston/maarif-planner/internal/tui/widgets"
)

type focus int

const (
	focusInput focus = iota
	focusRecent
	focusResults
)

// SearchMsg asks for a search
type SearchMsg struct {
	Query   string
	AgeBand models.AgeBand
}

// ClearRecentMsg asks to forget recent searches
type ClearRecentMsg struct{}

// View is the matrix search screen
type View struct {
	input    textinput.Model
	ageBand  models.AgeBand // empty means all bands
	recent   []string
	results  []models.MatrixResult
	searched string
	loading  bool
	focus    focus
	cursor   int
	err      string
	width    int
	height   int
}

// New creates the search screen
func New() *View {
	ti := textinput.New()
	ti.Placeholder = "Search outcomes, e.g. counting"
	ti.CharLimit = 200
	ti.Width = 50
	ti.Focus()
	return &View{input: ti}
}

// SetRecent replaces the recent searches list
func (v *View) SetRecent(recent []string) {
	v.recent = recent
	if v.focus == focusRecent && v.cursor >= len(recent) {
		v.cursor = max(0, len(recent)-1)
	}
}

// SetResults shows the response for query verbatim
func (v *View) SetResults(query string, results []models.MatrixResult) {
	v.searched = query
	v.results = results
	v.loading = false
}

// SetError shows a failed search; previous results stay visible
func (v *View) SetError(msg string) {
	v.err = msg
	v.loading = false
}

// Results returns the rows shown
func (v *View) Results() []models.MatrixResult { return v.results }

// SetSize updates the screen dimensions
func (v *View) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.input.Width = min(60, max(20, width-10))
}

func (v *View) nextAgeBand() {
	if v.ageBand == "" {
		v.ageBand = models.AgeBands[0]
		return
	}
	for i, b := range models.AgeBands {
		if b == v.ageBand {
			if i+1 < len(models.AgeBands) {
				v.ageBand = models.AgeBands[i+1]
			} else {
				v.ageBand = ""
			}
			return
		}
	}
	v.ageBand = ""
}

func (v *View) search(query string) tea.Cmd {
	query = strings.TrimSpace(query)
	if query == "" {
		v.err = "Type something to search for"
		return nil
	}
	v.loading = true
	band := v.ageBand
	return func() tea.Msg { return SearchMsg{Query: query, AgeBand: band} }
}

// Init implements tea.Model
func (v *View) Init() tea.Cmd { return textinput.Blink }

// Update implements tea.Model
func (v *View) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}
	v.err = ""

	switch key.String() {
	case "ctrl+a":
		v.nextAgeBand()
		return v, nil
	case "ctrl+x":
		return v, func() tea.Msg { return ClearRecentMsg{} }
	}

	switch v.focus {
	case focusInput:
		switch key.String() {
		case "enter":
			return v, v.search(v.input.Value())
		case "down":
			if len(v.recent) > 0 {
				v.focus, v.cursor = focusRecent, 0
				v.input.Blur()
			} else if len(v.results) > 0 {
				v.focus, v.cursor = focusResults, 0
				v.input.Blur()
			}
			return v, nil
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd

	case focusRecent:
		switch key.String() {
		case "up":
			if v.cursor == 0 {
				v.focus = focusInput
				return v, v.input.Focus()
			}
			v.cursor--
		case "down":
			if v.cursor < len(v.recent)-1 {
				v.cursor++
			} else if len(v.results) > 0 {
				v.focus, v.cursor = focusResults, 0
			}
		case "enter":
			if v.cursor < len(v.recent) {
				q := v.recent[v.cursor]
				v.input.SetValue(q)
				v.focus = focusInput
				return v, tea.Batch(v.input.Focus(), v.search(q))
			}
		}

	case focusResults:
		switch key.String() {
		case "up":
			if v.cursor > 0 {
				v.cursor--
			} else {
				v.focus = focusInput
				return v, v.input.Focus()
			}
		case "down":
			if v.cursor < len(v.results)-1 {
				v.cursor++
			}
		}
	}
	return v, nil
}

func (v *View) renderResult(i int, r models.MatrixResult) string {
	var sb strings.Builder
	head := fmt.Sprintf("%s  %s", styles.ValueStyle.Render(r.Key()), r.Title)
	if area := matrix.SubjectArea(r.Key()); area != "" {
		head += "  " + styles.Subtitle.UnsetMarginBottom().Render(area)
	}
	if r.AgeBand != "" {
		head += "  " + widgets.AgeBandBadge(r.AgeBand)
	}
	if v.focus == focusResults && i == v.cursor {
		sb.WriteString(styles.Selected.Render("> ") + head)
	} else {
		sb.WriteString("  " + head)
	}
	body := r.Description
	if body == "" {
		body = r.Content
	}
	if body != "" {
		sb.WriteString("\n    " + styles.Normal.Render(body))
	}
	return sb.String()
}

// View implements tea.Model
func (v *View) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Matrix.String() + " Curriculum matrix"))
	sb.WriteString("\n")
	sb.WriteString(v.input.View())
	sb.WriteString("  ")
	band := "all age bands"
	if v.ageBand != "" {
		band = v.ageBand.Label()
	}
	sb.WriteString(styles.Subtitle.UnsetMarginBottom().Render("[" + band + "]"))
	sb.WriteString("\n")
	if v.err != "" {
		sb.WriteString(widgets.StatusText(v.err, widgets.StatusCritical) + "\n")
	}

	if len(v.recent) > 0 {
		sb.WriteString("\n" + styles.Subtitle.UnsetMarginBottom().Render("Recent searches") + "\n")
		for i, q := range v.recent {
			if v.focus == focusRecent && i == v.cursor {
				sb.WriteString(styles.Selected.Render("> " + q))
			} else {
				sb.WriteString("  " + styles.Normal.Render(q))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	switch {
	case v.loading:
		sb.WriteString(styles.Subtitle.Render("Searching..."))
	case v.searched != "" && len(v.results) == 0:
		sb.WriteString(styles.Subtitle.Render(fmt.Sprintf("No results for %q", v.searched)))
	default:
		for i, r := range v.results {
			sb.WriteString(v.renderResult(i, r))
			sb.WriteString("\n")
		}
	}
	sb.WriteString(styles.Help.Render("ctrl+a age band  ctrl+x clear recent  ↓ recent/results"))
	return sb.String()
}
