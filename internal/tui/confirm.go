// ABOUTME: Yes/no dialog guarding destructive actions
// ABOUTME: Runs the action only when the teacher confirms

package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/markalston/maarif-planner/internal/tui/styles"
)

type confirmDialog struct {
	form   *huh.Form
	ok     bool
	action func() tea.Cmd
}

func newConfirm(title, description, affirmative string, action func() tea.Cmd) *confirmDialog {
	d := &confirmDialog{action: action}
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative(affirmative).
				Negative("Cancel").
				Value(&d.ok),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
	return d
}

// update feeds msg to the dialog. done is true once the dialog should close;
// cmd is then the confirmed action, or nil.
func (d *confirmDialog) update(msg tea.Msg) (cmd tea.Cmd, done bool) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return nil, true
	}
	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}
	switch d.form.State {
	case huh.StateCompleted:
		if d.ok {
			return d.action(), true
		}
		return nil, true
	case huh.StateAborted:
		return nil, true
	}
	return cmd, false
}

func (d *confirmDialog) view() string {
	return styles.Panel.Render(d.form.View())
}
