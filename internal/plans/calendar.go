// ABOUTME: Month arithmetic and date grouping for the plan calendar
// ABOUTME: Groups plans by the server's date string without normalizing it

package plans

import (
	"fmt"
	"time"

	"github.com/markalston/maarif-planner/internal/models"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth reads YYYY-MM.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q (want YYYY-MM)", s)
	}
	return MonthOf(t), nil
}

func (m Month) first() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) String() string {
	return m.first().Format(monthLayout)
}

// Bounds returns the first and last day of the month, inclusive.
func (m Month) Bounds() (from, to string) {
	first := m.first()
	last := first.AddDate(0, 1, -1)
	return first.Format(dateLayout), last.Format(dateLayout)
}

func (m Month) Next() Month { return MonthOf(m.first().AddDate(0, 1, 0)) }
func (m Month) Prev() Month { return MonthOf(m.first().AddDate(0, -1, 0)) }

// Days lists every day of the month as YYYY-MM-DD.
func (m Month) Days() []string {
	first := m.first()
	var days []string
	for d := first; d.Month() == m.Month; d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(dateLayout))
	}
	return days
}

// LeadingBlanks is how many cells precede the first day in a Monday-first
// week grid.
func (m Month) LeadingBlanks() int {
	return (int(m.first().Weekday()) + 6) % 7
}

// CalendarPage is one fetched month.
type CalendarPage struct {
	Month Month
	Plans []models.Plan
}

// Marks groups the plans by date exactly as the server spelled it.
func (p *CalendarPage) Marks() map[string][]models.Plan {
	marks := make(map[string][]models.Plan)
	for _, plan := range p.Plans {
		marks[plan.Date] = append(marks[plan.Date], plan)
	}
	return marks
}

// Selection is the result of picking a day.
type Selection struct {
	Date  string
	Plans []models.Plan
}

// CreateNew reports whether the day is empty, in which case the caller
// offers to draft a plan in chat.
func (s Selection) CreateNew() bool { return len(s.Plans) == 0 }

// Select returns the plans saved for date.
func (p *CalendarPage) Select(date string) Selection {
	return Selection{Date: date, Plans: p.Marks()[date]}
}
