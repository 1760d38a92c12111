// ABOUTME: Tests for the home menu
// ABOUTME: Validates options and selection by arrow keys and digits

package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func selected(t *testing.T, cmd tea.Cmd) Destination {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(SelectedMsg)
	if !ok {
		t.Fatalf("expected SelectedMsg, got %T", cmd())
	}
	return msg.Destination
}

func TestMenuOptions(t *testing.T) {
	m := New()

	if len(m.options) != 5 {
		t.Errorf("expected 5 options, got %d", len(m.options))
	}
	if m.options[0].value != DestChat {
		t.Errorf("expected the assistant first, got %d", m.options[0].value)
	}
}

func TestMenuArrowSelection(t *testing.T) {
	m := New()
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := selected(t, cmd); got != DestCalendar {
		t.Errorf("expected calendar, got %d", got)
	}
}

func TestMenuCursorClamped(t *testing.T) {
	m := New()
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	for i := 0; i < 10; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := selected(t, cmd); got != DestSettings {
		t.Errorf("expected settings, got %d", got)
	}
}

func TestMenuDigitSelection(t *testing.T) {
	m := New()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'4'}})
	if got := selected(t, cmd); got != DestMatrix {
		t.Errorf("expected matrix, got %d", got)
	}
}
