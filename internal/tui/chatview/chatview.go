// ABOUTME: Chat screen for drafting plans with the assistant
// ABOUTME: Transcript viewport, message input, spinner while a reply is pending

package chatview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/maarif-planner/internal/chat"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/tui/icons"
	"github.com/markalston/maarif-planner/internal/tui/styles"
	"github.com/markalston/maarif-planner/internal/tui/widgets"
)

// SendMsg is sent when the user submits a message
type SendMsg struct {
	Text string
}

// SaveMsg asks to save the finalized draft
type SaveMsg struct{}

// ResetMsg asks to start the conversation over
type ResetMsg struct{}

// PlanTypeMsg switches between daily and monthly drafting
type PlanTypeMsg struct {
	Type models.PlanType
}

// Snapshot is what the view shows of a conversation.
type Snapshot struct {
	Messages []models.ChatMessage
	State    chat.State
	Draft    *chat.Draft
	PlanType models.PlanType
	Saving   bool
}

// View is the chat screen
type View struct {
	snap     Snapshot
	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	status   string
	width    int
	height   int
}

// New creates the chat screen
func New() *View {
	ti := textinput.New()
	ti.Placeholder = "Describe the plan you need, e.g. a daily plan about seasons for 2024-03-15"
	ti.CharLimit = 1000
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(styles.Accent)

	return &View{
		input:    ti,
		spinner:  sp,
		viewport: viewport.New(80, 10),
		snap:     Snapshot{PlanType: models.PlanDaily},
	}
}

// SetSnapshot replaces the displayed conversation
func (v *View) SetSnapshot(s Snapshot) {
	v.snap = s
	v.refresh()
}

// SetStatus shows a one-line notice under the transcript
func (v *View) SetStatus(s string) { v.status = s }

// Prefill puts text in the input, e.g. a date picked in the calendar.
func (v *View) Prefill(text string) {
	v.input.SetValue(text)
	v.input.CursorEnd()
}

// SetSize updates the screen dimensions
func (v *View) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.input.Width = max(20, width-4)
	v.viewport.Width = width
	v.viewport.Height = max(3, height-6)
	v.refresh()
}

func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) waiting() bool {
	return v.snap.State == chat.AwaitingReply || v.snap.Saving
}

// Init implements tea.Model
func (v *View) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, v.spinner.Tick)
}

// Update implements tea.Model
func (v *View) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd

	case tea.KeyMsg:
		v.status = ""
		switch msg.String() {
		case "enter":
			text := strings.TrimSpace(v.input.Value())
			if text == "" || v.waiting() {
				return v, nil
			}
			v.input.Reset()
			return v, func() tea.Msg { return SendMsg{Text: text} }
		case "ctrl+s":
			if v.snap.Draft == nil || v.waiting() {
				v.status = "Nothing to save yet. Keep chatting until the assistant finalizes a plan."
				return v, nil
			}
			return v, func() tea.Msg { return SaveMsg{} }
		case "ctrl+r":
			if v.waiting() {
				return v, nil
			}
			return v, func() tea.Msg { return ResetMsg{} }
		case "ctrl+t":
			next := models.PlanMonthly
			if v.snap.PlanType == models.PlanMonthly {
				next = models.PlanDaily
			}
			return v, func() tea.Msg { return PlanTypeMsg{Type: next} }
		case "pgup", "pgdown":
			var cmd tea.Cmd
			v.viewport, cmd = v.viewport.Update(msg)
			return v, cmd
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) renderTranscript() string {
	var sb strings.Builder
	wrap := lipgloss.NewStyle().Width(max(20, v.width-2))
	for _, m := range v.snap.Messages {
		if m.Role == models.RoleUser {
			sb.WriteString(styles.UserMessage.Render("You"))
		} else {
			sb.WriteString(styles.AssistantMessage.Render(icons.Chat.String() + " Assistant"))
		}
		sb.WriteString(" ")
		sb.WriteString(styles.Help.UnsetMarginTop().Render(m.Timestamp.Format("15:04")))
		sb.WriteString("\n")
		sb.WriteString(wrap.Render(m.Content))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func (v *View) renderDraft() string {
	d := v.snap.Draft
	if d == nil {
		return ""
	}
	line := fmt.Sprintf("%s Draft ready: %s %s %s %s  ",
		icons.Save.String(), widgets.PlanTypeBadge(d.Type), d.Title, d.Date, widgets.AgeBandBadge(d.AgeBand))
	return line + styles.KeyStyle.Render("ctrl+s") + " save"
}

// View implements tea.Model
func (v *View) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.UnsetMarginBottom().Render(icons.Chat.String()+" Plan assistant") + "  ")
	sb.WriteString(widgets.PlanTypeBadge(v.snap.PlanType))
	sb.WriteString("\n")
	sb.WriteString(v.viewport.View())
	sb.WriteString("\n")

	switch {
	case v.snap.Saving:
		sb.WriteString(v.spinner.View() + " Saving plan...")
	case v.snap.State == chat.AwaitingReply:
		sb.WriteString(v.spinner.View() + " The assistant is writing...")
	case v.snap.Draft != nil:
		sb.WriteString(v.renderDraft())
	case v.status != "":
		sb.WriteString(widgets.StatusText(v.status, widgets.StatusWarning))
	}
	if v.status != "" && v.snap.Draft != nil && !v.waiting() {
		sb.WriteString("\n" + widgets.StatusText(v.status, widgets.StatusWarning))
	}
	sb.WriteString("\n")
	sb.WriteString(v.input.View())
	return sb.String()
}
