// ABOUTME: Calendar command for the planner CLI
// ABOUTME: Shows a month grid with planned days marked, or one day's plans

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/plans"
	"github.com/spf13/cobra"
)

var (
	calendarMonth string
	calendarDay   string
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show the month's daily plans",
	Long: `Show a month grid with days that have plans marked with *.

With --day, list that day's plans, or suggest drafting one when it is empty.`,
	Run: run(func(ctx context.Context, w io.Writer, _ []string) int {
		return runCalendar(ctx, w, calendarMonth, calendarDay, time.Now())
	}),
}

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.Flags().StringVar(&calendarMonth, "month", "", "Month to show, YYYY-MM (default: current month)")
	calendarCmd.Flags().StringVar(&calendarDay, "day", "", "Day to open, YYYY-MM-DD")
}

// runCalendar fetches one month and returns exit code
func runCalendar(ctx context.Context, w io.Writer, month, day string, now time.Time) int {
	m := plans.MonthOf(now)
	switch {
	case month != "":
		parsed, err := plans.ParseMonth(month)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
		m = parsed
	case day != "":
		t, err := time.Parse("2006-01-02", day)
		if err != nil {
			fmt.Fprintf(w, "Error: invalid day %q (want YYYY-MM-DD)\n", day)
			return 2
		}
		m = plans.MonthOf(t)
	}

	return withApp(ctx, w, func(a *app) int {
		page, err := plans.NewService(a.client).Calendar(ctx, m)
		if err != nil {
			return reportError(w, err)
		}

		if day != "" {
			writeSelection(w, page.Select(day))
			return 0
		}
		if IsJSONOutput() {
			data, _ := json.MarshalIndent(map[string]any{"month": m.String(), "plans": page.Plans}, "", "  ")
			fmt.Fprintln(w, string(data))
			return 0
		}
		fmt.Fprint(w, formatMonthGrid(page))
		return 0
	})
}

// formatMonthGrid draws a Monday-first grid; marked days carry a *.
func formatMonthGrid(page *plans.CalendarPage) string {
	marks := page.Marks()
	var b strings.Builder
	first, _ := page.Month.Bounds()
	t, _ := time.Parse("2006-01-02", first)
	fmt.Fprintf(&b, "%s\n", t.Format("January 2006"))
	b.WriteString(" Mo  Tu  We  Th  Fr  Sa  Su\n")

	col := page.Month.LeadingBlanks()
	b.WriteString(strings.Repeat("    ", col))
	for i, date := range page.Month.Days() {
		mark := " "
		if len(marks[date]) > 0 {
			mark = "*"
		}
		fmt.Fprintf(&b, " %2d%s", i+1, mark)
		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}

	total := len(page.Plans)
	fmt.Fprintf(&b, "\n%d plan(s) this month.\n", total)
	return b.String()
}

func writeSelection(w io.Writer, sel plans.Selection) {
	if IsJSONOutput() {
		plansOut := sel.Plans
		if plansOut == nil {
			plansOut = []models.Plan{}
		}
		data, _ := json.MarshalIndent(map[string]any{"date": sel.Date, "plans": plansOut, "create_new": sel.CreateNew()}, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}
	if sel.CreateNew() {
		fmt.Fprintf(w, "No plans on %s.\nDraft one with: planner chat --message \"Create a plan for %s\"\n", sel.Date, sel.Date)
		return
	}
	fmt.Fprintf(w, "Plans on %s:\n", sel.Date)
	for _, p := range sel.Plans {
		fmt.Fprintf(w, "  %s  %s  (%s)\n", p.ID, p.Title, p.AgeBand.Label())
	}
}
