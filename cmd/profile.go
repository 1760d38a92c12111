// ABOUTME: Profile commands for the planner CLI
// ABOUTME: Shows and edits the cached teacher profile on this device

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/markalston/maarif-planner/internal/kvstore"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/settings"
	"github.com/spf13/cobra"
)

var (
	profileName    string
	profileSchool  string
	profileClass   string
	profileAgeBand string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the cached profile",
	Args:  cobra.NoArgs,
	Run: run(func(ctx context.Context, w io.Writer, _ []string) int {
		return runProfileShow(ctx, w)
	}),
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Edit the profile stored on this device",
	Long: `Edit the profile stored on this device.

Changes are local only: the backend profile is not updated and the next
launch check replaces the cached copy with the server's.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		edits := profileEditsFromFlags(cmd)
		run(func(ctx context.Context, w io.Writer, _ []string) int {
			return runProfileSet(ctx, w, edits)
		})(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSetCmd)

	profileSetCmd.Flags().StringVar(&profileName, "name", "", "Display name")
	profileSetCmd.Flags().StringVar(&profileSchool, "school", "", "School (empty clears it)")
	profileSetCmd.Flags().StringVar(&profileClass, "class", "", "Class name (empty clears it)")
	profileSetCmd.Flags().StringVar(&profileAgeBand, "age-band", "", "Default age band: 36_48, 48_60 or 60_72")
}

// profileEditsFromFlags includes only the flags given on the command line,
// so an omitted flag leaves the field unchanged.
func profileEditsFromFlags(cmd *cobra.Command) settings.ProfileEdit {
	var edits settings.ProfileEdit
	if cmd.Flags().Changed("name") {
		edits.Name = &profileName
	}
	if cmd.Flags().Changed("school") {
		edits.School = &profileSchool
	}
	if cmd.Flags().Changed("class") {
		edits.ClassName = &profileClass
	}
	if cmd.Flags().Changed("age-band") {
		edits.AgeBand = &profileAgeBand
	}
	return edits
}

func formatProfileHuman(w io.Writer, u *models.User) {
	fmt.Fprintf(w, "Name:     %s\n", u.Name)
	fmt.Fprintf(w, "Email:    %s\n", u.Email)
	if u.School != nil {
		fmt.Fprintf(w, "School:   %s\n", *u.School)
	}
	if u.ClassName != nil {
		fmt.Fprintf(w, "Class:    %s\n", *u.ClassName)
	}
	fmt.Fprintf(w, "Age band: %s\n", u.PreferredAgeBand().Label())
}

func formatProfileJSON(w io.Writer, u *models.User) {
	data, _ := json.MarshalIndent(u, "", "  ")
	fmt.Fprintln(w, string(data))
}

// runProfileShow returns exit code
func runProfileShow(ctx context.Context, w io.Writer) int {
	return withApp(ctx, w, func(a *app) int {
		user, err := a.session.User(ctx)
		if err != nil {
			return reportError(w, err)
		}
		if user == nil {
			fmt.Fprintln(w, "Error: not logged in (run 'planner login')")
			return 2
		}
		if IsJSONOutput() {
			formatProfileJSON(w, user)
		} else {
			formatProfileHuman(w, user)
		}
		return 0
	})
}

// runProfileSet returns exit code
func runProfileSet(ctx context.Context, w io.Writer, edits settings.ProfileEdit) int {
	return withApp(ctx, w, func(a *app) int {
		updated, err := settings.UpdateProfile(ctx, a.session, edits)
		switch {
		case errors.Is(err, settings.ErrNoProfile):
			fmt.Fprintln(w, "Error: not logged in (run 'planner login')")
			return 2
		case errors.Is(err, kvstore.ErrUnavailable):
			return reportError(w, err)
		case err != nil:
			fmt.Fprintf(w, "Error: %v\n", err)
			return 1
		}

		if IsJSONOutput() {
			formatProfileJSON(w, updated)
			return 0
		}
		formatProfileHuman(w, updated)
		fmt.Fprintln(w, "Saved on this device only; the server profile is unchanged.")
		return 0
	})
}
