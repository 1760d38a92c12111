// ABOUTME: Markdown rendering of plan detail tabs
// ABOUTME: Output is fed to glamour by both the CLI and the TUI

package plans

import (
	"fmt"
	"strings"

	"github.com/markalston/maarif-planner/internal/models"
)

// Tab is one section of the plan detail view.
type Tab string

const (
	TabOverview   Tab = "overview"
	TabActivities Tab = "activities"
	TabAssessment Tab = "assessment"
	TabPortfolio  Tab = "portfolio"
)

// Tabs lists the tabs available for a plan type; monthly plans have no
// portfolio.
func Tabs(typ models.PlanType) []Tab {
	if typ == models.PlanDaily {
		return []Tab{TabOverview, TabActivities, TabAssessment, TabPortfolio}
	}
	return []Tab{TabOverview, TabActivities, TabAssessment}
}

func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case TabOverview, TabActivities, TabAssessment, TabPortfolio:
		return Tab(s), nil
	}
	return "", fmt.Errorf("invalid tab %q (want overview, activities, assessment or portfolio)", s)
}

// Markdown renders one tab.
func (d *Detail) Markdown(tab Tab) string {
	var b strings.Builder
	switch tab {
	case TabActivities:
		d.writeActivities(&b)
	case TabAssessment:
		d.writeAssessment(&b)
	case TabPortfolio:
		d.writePortfolio(&b)
	default:
		d.writeOverview(&b)
	}
	return b.String()
}

func bullets(b *strings.Builder, items []string) {
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func (d *Detail) writeOverview(b *strings.Builder) {
	c := d.Content
	fmt.Fprintf(b, "# %s\n\n", d.Plan.Title)

	when := d.Plan.Date
	if d.Type() == models.PlanMonthly {
		when = d.Plan.Month
	}
	fmt.Fprintf(b, "- **Date:** %s\n", when)
	fmt.Fprintf(b, "- **Age band:** %s\n", d.Plan.AgeBand.Label())
	if c.Theme != "" {
		fmt.Fprintf(b, "- **Theme:** %s\n", c.Theme)
	}
	if c.Duration != "" {
		fmt.Fprintf(b, "- **Duration:** %s\n", c.Duration)
	}

	if len(c.DomainOutcomes) > 0 {
		b.WriteString("\n## Domain outcomes\n\n")
		for _, o := range c.DomainOutcomes {
			fmt.Fprintf(b, "### %s\n\n", o.Code)
			bullets(b, o.Indicators)
			if o.Notes != "" {
				fmt.Fprintf(b, "\n_%s_\n", o.Notes)
			}
			b.WriteString("\n")
		}
	}
	if len(c.ConceptualSkills) > 0 {
		b.WriteString("\n## Conceptual skills\n\n")
		bullets(b, c.ConceptualSkills)
	}
	if len(c.Dispositions) > 0 {
		b.WriteString("\n## Dispositions\n\n")
		bullets(b, c.Dispositions)
	}
	if c.Notes != "" {
		fmt.Fprintf(b, "\n## Notes\n\n%s\n", c.Notes)
	}
}

func (d *Detail) writeActivities(b *strings.Builder) {
	blocks := d.Content.Blocks
	if blocks.StartOfDay != "" {
		fmt.Fprintf(b, "## Start of day\n\n%s\n\n", blocks.StartOfDay)
	}
	if len(blocks.LearningCenters) > 0 {
		b.WriteString("## Learning centers\n\n")
		bullets(b, blocks.LearningCenters)
		b.WriteString("\n")
	}
	if len(blocks.Activities) == 0 {
		b.WriteString("_No activities in this plan._\n")
		return
	}
	for i, a := range blocks.Activities {
		title := a.Title
		if title == "" {
			title = fmt.Sprintf("Activity %d", i+1)
		}
		fmt.Fprintf(b, "## %s\n\n", title)
		if a.Location != "" {
			fmt.Fprintf(b, "- **Location:** %s\n", a.Location)
		}
		if a.Duration != "" {
			fmt.Fprintf(b, "- **Duration:** %s\n", a.Duration)
		}
		if len(a.Materials) > 0 {
			fmt.Fprintf(b, "- **Materials:** %s\n", strings.Join(a.Materials, ", "))
		}
		if len(a.Objectives) > 0 {
			fmt.Fprintf(b, "- **Objectives:** %s\n", strings.Join(a.Objectives, ", "))
		}
		if len(a.Mapping) > 0 {
			fmt.Fprintf(b, "- **Curriculum codes:** %s\n", strings.Join(a.Mapping, ", "))
		}
		if len(a.Steps) > 0 {
			b.WriteString("\n")
			for n, step := range a.Steps {
				fmt.Fprintf(b, "%d. %s\n", n+1, step)
			}
		}
		if a.Differentiation != "" {
			fmt.Fprintf(b, "\n_Differentiation:_ %s\n", a.Differentiation)
		}
		b.WriteString("\n")
	}
}

func (d *Detail) writeAssessment(b *strings.Builder) {
	c := d.Content
	wrote := false
	if len(c.Blocks.Assessment) > 0 {
		b.WriteString("## Assessment\n\n")
		bullets(b, c.Blocks.Assessment)
		b.WriteString("\n")
		wrote = true
	}
	if len(c.Blocks.MealsCleanup) > 0 {
		b.WriteString("## Meals and cleanup\n\n")
		bullets(b, c.Blocks.MealsCleanup)
		b.WriteString("\n")
		wrote = true
	}
	if c.Differentiation.Enrichment != "" || c.Differentiation.Support != "" {
		b.WriteString("## Differentiation\n\n")
		if c.Differentiation.Enrichment != "" {
			fmt.Fprintf(b, "- **Enrichment:** %s\n", c.Differentiation.Enrichment)
		}
		if c.Differentiation.Support != "" {
			fmt.Fprintf(b, "- **Support:** %s\n", c.Differentiation.Support)
		}
		wrote = true
	}
	if !wrote {
		b.WriteString("_No assessment details in this plan._\n")
	}
}

func (d *Detail) writePortfolio(b *strings.Builder) {
	if d.Type() != models.PlanDaily {
		b.WriteString("_Portfolio photos are only available for daily plans._\n")
		return
	}
	if len(d.Portfolio) == 0 {
		b.WriteString("_No photos yet._\n")
		return
	}
	b.WriteString("| Activity | Uploaded | Description | ID |\n|---|---|---|---|\n")
	for _, p := range d.Portfolio {
		desc := ""
		if p.Description != nil {
			desc = *p.Description
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", p.ActivityTitle, p.UploadedAt, desc, p.ID)
	}
}
