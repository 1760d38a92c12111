// ABOUTME: Status command for the planner CLI
// ABOUTME: Validates the stored session against the backend with a deadline

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/markalston/maarif-planner/internal/auth"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the stored session against the backend",
	Long: `Check whether the stored session is still accepted by the backend.

A rejected token is removed. When the backend cannot be reached within
MAARIF_AUTH_CHECK_TIMEOUT the token is kept and the result is "uncertain".

Exit codes:
  0 - Authenticated
  1 - Not logged in
  2 - Backend unreachable (uncertain)`,
	Run: run(func(ctx context.Context, w io.Writer, _ []string) int {
		return runStatus(ctx, w)
	}),
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// statusReport is the JSON shape of the status command
type statusReport struct {
	Backend string       `json:"backend"`
	Session string       `json:"session"`
	User    *models.User `json:"user,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// runStatus executes the launch check and returns exit code
func runStatus(ctx context.Context, w io.Writer) int {
	return withApp(ctx, w, func(a *app) int {
		result, user, err := a.auth.CheckOnLaunch(ctx, a.cfg.AuthCheckTimeout)

		report := statusReport{Backend: a.client.BaseURL(), Session: result.String(), User: user}
		if err != nil {
			report.Error = err.Error()
		}

		if IsJSONOutput() {
			fmt.Fprintln(w, formatStatusJSON(report))
		} else {
			fmt.Fprintln(w, formatStatusHuman(report))
		}

		switch result {
		case auth.LaunchAuthenticated:
			return 0
		case auth.LaunchAnonymous:
			return 1
		}
		return 2
	})
}

// formatStatusHuman formats the report for human readability
func formatStatusHuman(r statusReport) string {
	out := fmt.Sprintf("Backend:    %s\nSession:    %s", r.Backend, r.Session)
	if r.User != nil {
		out += fmt.Sprintf("\nUser:       %s <%s>\nAge band:   %s", r.User.Name, r.User.Email, r.User.PreferredAgeBand().Label())
	}
	if r.Error != "" {
		out += "\nError:      " + r.Error
	}
	switch r.Session {
	case "anonymous":
		out += "\n\nRun 'planner login' to sign in."
	case "uncertain":
		out += "\n\nThe backend could not be reached; your session was kept."
	}
	return out
}

// formatStatusJSON formats the report as JSON
func formatStatusJSON(r statusReport) string {
	data, _ := json.MarshalIndent(r, "", "  ")
	return string(data)
}
