// ABOUTME: Plan commands for the planner CLI
// ABOUTME: List, show and delete daily and monthly plans

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/markalston/maarif-planner/internal/client"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/plans"
	"github.com/spf13/cobra"
)

var (
	planTypeFlag string
	planTabFlag  string
	assumeYes    bool
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List, show and delete saved plans",
}

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List plans of one type",
	Run: run(func(ctx context.Context, w io.Writer, _ []string) int {
		return runPlansList(ctx, w, planTypeFlag)
	}),
}

var plansShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one plan",
	Args:  cobra.ExactArgs(1),
	Run: run(func(ctx context.Context, w io.Writer, args []string) int {
		return runPlansShow(ctx, w, planTypeFlag, args[0], planTabFlag)
	}),
}

var plansDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a plan",
	Args:  cobra.ExactArgs(1),
	Run: run(func(ctx context.Context, w io.Writer, args []string) int {
		return runPlansDelete(ctx, w, planTypeFlag, args[0], assumeYes)
	}),
}

func init() {
	rootCmd.AddCommand(plansCmd)
	plansCmd.AddCommand(plansListCmd, plansShowCmd, plansDeleteCmd)

	plansCmd.PersistentFlags().StringVar(&planTypeFlag, "type", string(models.PlanDaily), "Plan type: daily or monthly")
	plansShowCmd.Flags().StringVar(&planTabFlag, "tab", string(plans.TabOverview), "Section: overview, activities, assessment or portfolio")
	plansDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking")
}

// runPlansList fetches one tab and returns exit code
func runPlansList(ctx context.Context, w io.Writer, typ string) int {
	planType, err := models.ParsePlanType(typ)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	return withApp(ctx, w, func(a *app) int {
		list, err := plans.NewService(a.client).List(ctx, planType)
		if err != nil {
			return reportError(w, err)
		}
		writePlanList(w, list, planType)
		return 0
	})
}

func writePlanList(w io.Writer, list []models.Plan, typ models.PlanType) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(list, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}
	if len(list) == 0 {
		fmt.Fprintf(w, "No %s plans yet. Draft one with 'planner chat'.\n", typ)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tAGE BAND\tTITLE\tID")
	for _, p := range list {
		when := p.Date
		if typ == models.PlanMonthly {
			when = p.Month
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", when, p.AgeBand.Label(), p.Title, p.ID)
	}
	tw.Flush()
}

// runPlansShow renders one plan and returns exit code
func runPlansShow(ctx context.Context, w io.Writer, typ, id, tab string) int {
	planType, err := models.ParsePlanType(typ)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	section, err := plans.ParseTab(tab)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	return withApp(ctx, w, func(a *app) int {
		detail, err := plans.NewService(a.client).Detail(ctx, planType, id)
		if err != nil {
			return reportError(w, err)
		}

		if IsJSONOutput() {
			data, _ := json.MarshalIndent(map[string]any{
				"plan":      detail.Plan,
				"content":   detail.Content,
				"portfolio": detail.Portfolio,
			}, "", "  ")
			fmt.Fprintln(w, string(data))
			return 0
		}

		out, err := plans.RenderTerminal(detail.Markdown(section), 100)
		if err != nil {
			return reportError(w, err)
		}
		fmt.Fprint(w, out)
		return 0
	})
}

// confirm asks a yes/no question unless assumeYes is set. JSON mode never
// prompts.
func confirm(title string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if IsJSONOutput() {
		return false, errors.New("refusing to prompt in --json mode; pass --yes")
	}
	ok := false
	err := huh.NewConfirm().Title(title).Affirmative("Delete").Negative("Cancel").Value(&ok).Run()
	return ok, err
}

// runPlansDelete confirms, deletes, re-fetches and returns exit code
func runPlansDelete(ctx context.Context, w io.Writer, typ, id string, yes bool) int {
	planType, err := models.ParsePlanType(typ)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	ok, err := confirm(fmt.Sprintf("Delete %s plan %s?", planType, id), yes)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if !ok {
		fmt.Fprintln(w, "Cancelled.")
		return 1
	}

	return withApp(ctx, w, func(a *app) int {
		remaining, err := plans.NewService(a.client).Delete(ctx, planType, id)
		if err != nil {
			if errors.Is(err, client.ErrNotFound) {
				fmt.Fprintf(w, "Error: plan %s not found\n", id)
				return 1
			}
			return reportError(w, err)
		}
		if !IsJSONOutput() {
			fmt.Fprintf(w, "Deleted %s plan %s.\n\n", planType, id)
		}
		writePlanList(w, remaining, planType)
		return 0
	})
}
