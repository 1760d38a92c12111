// ABOUTME: Tests for the calendar screen
// ABOUTME: Month paging, late pages for other months and day selection

package calendarview

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/plans"
)

var march = plans.Month{Year: 2024, Month: time.March}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMonthKeysRequestAFetch(t *testing.T) {
	tests := []struct {
		key  string
		want plans.Month
	}{
		{"]", plans.Month{Year: 2024, Month: time.April}},
		{"n", plans.Month{Year: 2024, Month: time.April}},
		{"[", plans.Month{Year: 2024, Month: time.February}},
		{"p", plans.Month{Year: 2024, Month: time.February}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := New(march, "2024-03-10")
			v.SetPage(&plans.CalendarPage{Month: march})

			_, cmd := v.Update(runes(tt.key))
			if cmd == nil {
				t.Fatal("expected a fetch command")
			}
			msg, ok := cmd().(MonthChangedMsg)
			if !ok || msg.Month != tt.want {
				t.Fatalf("msg = %#v, want month %v", msg, tt.want)
			}
			if v.Month() != tt.want || !v.Loading() {
				t.Errorf("month = %v loading = %v", v.Month(), v.Loading())
			}
			if from, to := msg.Month.Bounds(); tt.want.Month == time.April && (from != "2024-04-01" || to != "2024-04-30") {
				t.Errorf("bounds = %s..%s", from, to)
			}
		})
	}
}

func TestSetPage_IgnoresOtherMonth(t *testing.T) {
	v := New(march, "2024-03-10")
	v.Update(runes("]"))

	v.SetPage(&plans.CalendarPage{Month: march, Plans: []models.Plan{{ID: "old", Date: "2024-03-01"}}})
	if !v.Loading() {
		t.Fatal("a March page was applied to April")
	}
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if v.Selection() != nil {
		t.Error("selection made before the visible month loaded")
	}

	april := plans.Month{Year: 2024, Month: time.April}
	v.SetPage(&plans.CalendarPage{Month: april, Plans: []models.Plan{{ID: "new", Date: "2024-04-01", Title: "Rain"}}})
	if v.Loading() {
		t.Fatal("April page not applied")
	}
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	sel := v.Selection()
	if sel == nil || sel.Date != "2024-04-01" || len(sel.Plans) != 1 || sel.Plans[0].ID != "new" {
		t.Errorf("selection = %+v", sel)
	}
}

func TestEmptyDayOffersCreate(t *testing.T) {
	v := New(march, "2024-03-10")
	v.SetPage(&plans.CalendarPage{Month: march, Plans: []models.Plan{{ID: "p1", Date: "2024-03-12", Title: "Seasons"}}})

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if sel := v.Selection(); sel == nil || !sel.CreateNew() {
		t.Fatalf("selection = %+v, want an empty day", sel)
	}
	if !strings.Contains(v.View(), "No plans on this day.") {
		t.Error("empty day hint missing")
	}
	_, cmd := v.Update(runes("c"))
	if cmd == nil {
		t.Fatal("c returned no command")
	}
	if msg, ok := cmd().(CreateMsg); !ok || msg.Date != "2024-03-10" {
		t.Errorf("msg = %#v", msg)
	}
}

func TestMarkedDayOpensPlan(t *testing.T) {
	v := New(march, "2024-03-12")
	v.SetPage(&plans.CalendarPage{Month: march, Plans: []models.Plan{{ID: "p1", Date: "2024-03-12", Title: "Seasons"}}})

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("second enter returned no command")
	}
	if msg, ok := cmd().(OpenPlanMsg); !ok || msg.Plan.ID != "p1" {
		t.Errorf("msg = %#v", msg)
	}
}
