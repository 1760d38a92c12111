// ABOUTME: Portfolio commands for the planner CLI
// ABOUTME: Lists, uploads and deletes activity photos on daily plans

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/plans"
	"github.com/spf13/cobra"
)

var (
	photoActivity    string
	photoFile        string
	photoDescription string
	photoPlanID      string
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Manage photos attached to daily plans",
}

var portfolioListCmd = &cobra.Command{
	Use:   "list <plan-id>",
	Short: "List a daily plan's photos",
	Args:  cobra.ExactArgs(1),
	Run: run(func(ctx context.Context, w io.Writer, args []string) int {
		return runPortfolioList(ctx, w, args[0])
	}),
}

var portfolioAddCmd = &cobra.Command{
	Use:   "add <plan-id>",
	Short: "Attach a photo to one of the plan's activities",
	Args:  cobra.ExactArgs(1),
	Run: run(func(ctx context.Context, w io.Writer, args []string) int {
		return runPortfolioAdd(ctx, w, args[0], photoActivity, photoFile, photoDescription)
	}),
}

var portfolioDeleteCmd = &cobra.Command{
	Use:   "delete <photo-id>",
	Short: "Delete a photo",
	Args:  cobra.ExactArgs(1),
	Run: run(func(ctx context.Context, w io.Writer, args []string) int {
		return runPortfolioDelete(ctx, w, photoPlanID, args[0], assumeYes)
	}),
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
	portfolioCmd.AddCommand(portfolioListCmd, portfolioAddCmd, portfolioDeleteCmd)

	portfolioAddCmd.Flags().StringVar(&photoActivity, "activity", "", "Activity title the photo belongs to (required)")
	portfolioAddCmd.Flags().StringVar(&photoFile, "file", "", "Image file to upload (required)")
	portfolioAddCmd.Flags().StringVar(&photoDescription, "description", "", "Optional caption")
	portfolioDeleteCmd.Flags().StringVar(&photoPlanID, "plan", "", "Plan the photo belongs to; its remaining photos are listed afterwards")
	portfolioDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking")
}

func writePortfolio(w io.Writer, photos []models.PortfolioPhoto) {
	if IsJSONOutput() {
		if photos == nil {
			photos = []models.PortfolioPhoto{}
		}
		data, _ := json.MarshalIndent(photos, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}
	if len(photos) == 0 {
		fmt.Fprintln(w, "No photos yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tACTIVITY\tUPLOADED\tDESCRIPTION")
	for _, p := range photos {
		desc := ""
		if p.Description != nil {
			desc = *p.Description
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.ActivityTitle, p.UploadedAt, desc)
	}
	tw.Flush()
}

// runPortfolioList returns exit code
func runPortfolioList(ctx context.Context, w io.Writer, planID string) int {
	return withApp(ctx, w, func(a *app) int {
		photos, err := a.client.ListPortfolio(ctx, planID)
		if err != nil {
			return reportError(w, err)
		}
		writePortfolio(w, photos)
		return 0
	})
}

// runPortfolioAdd validates and uploads a photo, then returns exit code
func runPortfolioAdd(ctx context.Context, w io.Writer, planID, activity, file, description string) int {
	if file == "" {
		fmt.Fprintln(w, "Error: --file is required")
		return 2
	}
	image, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	return withApp(ctx, w, func(a *app) int {
		svc := plans.NewService(a.client)
		detail, err := svc.Detail(ctx, models.PlanDaily, planID)
		if err != nil {
			return reportError(w, err)
		}

		photos, err := svc.AddPhoto(ctx, detail, plans.PhotoUpload{
			ActivityTitle: activity,
			Image:         image,
			Description:   description,
		})
		switch {
		case errors.Is(err, plans.ErrActivityRequired):
			fmt.Fprintf(w, "Error: %v\nActivities in this plan:\n", err)
			for _, t := range detail.Content.ActivityTitles() {
				fmt.Fprintf(w, "  %s\n", t)
			}
			return 1
		case errors.Is(err, plans.ErrNoActivities), errors.Is(err, plans.ErrNotImage), errors.Is(err, plans.ErrPortfolioDailyOnly):
			fmt.Fprintf(w, "Error: %v\n", err)
			return 1
		case err != nil:
			return reportError(w, err)
		}
		writePortfolio(w, photos)
		return 0
	})
}

// runPortfolioDelete returns exit code
func runPortfolioDelete(ctx context.Context, w io.Writer, planID, photoID string, yes bool) int {
	ok, err := confirm(fmt.Sprintf("Delete photo %s?", photoID), yes)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if !ok {
		fmt.Fprintln(w, "Cancelled.")
		return 1
	}

	return withApp(ctx, w, func(a *app) int {
		if planID == "" {
			if err := a.client.DeletePortfolioPhoto(ctx, photoID); err != nil {
				return reportError(w, err)
			}
			fmt.Fprintf(w, "Deleted photo %s.\n", photoID)
			return 0
		}
		photos, err := plans.NewService(a.client).DeletePhoto(ctx, planID, photoID)
		if err != nil {
			return reportError(w, err)
		}
		writePortfolio(w, photos)
		return 0
	})
}
