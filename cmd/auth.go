// ABOUTME: Account commands for the planner CLI
// ABOUTME: login, register, logout and whoami

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/markalston/maarif-planner/internal/auth"
	"github.com/markalston/maarif-planner/internal/models"
	"github.com/markalston/maarif-planner/internal/session"
	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string

	registerInput   auth.RegisterInput
	registerAgeBand string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session on this device",
	Long:  `Log in with email and password. Missing values are prompted for.`,
	Run: run(func(ctx context.Context, w io.Writer, _ []string) int {
		return runLogin(ctx, w, loginEmail, loginPassword)
	}),
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Run: run(func(ctx context.Context, w io.Writer, _ []string) int {
		return runRegister(ctx, w, registerInput, registerAgeBand)
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	Run: run(func(ctx context.Context, w io.Writer, _ []string) int {
		return runLogout(ctx, w)
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the cached profile and token expiry",
	Long:  `Show the profile stored on this device. No request is sent; run "planner status" to validate the session.`,
	Run: run(func(ctx context.Context, w io.Writer, _ []string) int {
		return runWhoami(ctx, w, time.Now())
	}),
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")

	registerCmd.Flags().StringVar(&registerInput.Name, "name", "", "Your name")
	registerCmd.Flags().StringVar(&registerInput.Email, "email", "", "Account email")
	registerCmd.Flags().StringVar(&registerInput.Password, "password", "", "Password (at least 6 characters)")
	registerCmd.Flags().StringVar(&registerInput.ConfirmPassword, "confirm-password", "", "Repeat the password (defaults to --password)")
	registerCmd.Flags().StringVar(&registerInput.School, "school", "", "School name (optional)")
	registerCmd.Flags().StringVar(&registerInput.ClassName, "class", "", "Class name (optional)")
	registerCmd.Flags().StringVar(&registerAgeBand, "age-band", string(models.DefaultAgeBand), "Default age band: 36_48, 48_60 or 60_72")
}

// promptCredentials asks for whatever was not given on the command line.
func promptCredentials(email, password *string) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(email))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(password))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

// runLogin logs in and returns exit code
func runLogin(ctx context.Context, w io.Writer, email, password string) int {
	if (email == "" || password == "") && !IsJSONOutput() {
		if err := promptCredentials(&email, &password); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
	}

	return withApp(ctx, w, func(a *app) int {
		user, err := a.auth.Login(ctx, email, password)
		if err != nil {
			fmt.Fprintf(w, "Error: %s\n", auth.FailureMessage(err))
			return exitCodeFor(err)
		}
		// The CLI has no main screen to reach.
		a.auth.Arrived(ctx)
		printUser(w, "Logged in as", user)
		return 0
	})
}

// runRegister creates the account and returns exit code
func runRegister(ctx context.Context, w io.Writer, in auth.RegisterInput, ageBand string) int {
	if in.ConfirmPassword == "" {
		in.ConfirmPassword = in.Password
	}
	if ageBand != "" {
		band, err := models.ParseAgeBand(ageBand)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
		in.AgeDefault = band
	}

	return withApp(ctx, w, func(a *app) int {
		user, err := a.auth.Register(ctx, in)
		if err != nil {
			fmt.Fprintf(w, "Error: %s\n", auth.FailureMessage(err))
			return exitCodeFor(err)
		}
		a.auth.Arrived(ctx)
		printUser(w, "Account created for", user)
		return 0
	})
}

// runLogout clears the session and returns exit code
func runLogout(ctx context.Context, w io.Writer) int {
	return withApp(ctx, w, func(a *app) int {
		if err := a.auth.Logout(ctx); err != nil {
			return reportError(w, err)
		}
		if IsJSONOutput() {
			fmt.Fprintln(w, `{"logged_out": true}`)
		} else {
			fmt.Fprintln(w, "Logged out.")
		}
		return 0
	})
}

// runWhoami prints the cached profile and returns exit code
func runWhoami(ctx context.Context, w io.Writer, now time.Time) int {
	return withApp(ctx, w, func(a *app) int {
		token, ok, err := a.session.Token(ctx)
		if err != nil || !ok {
			fmt.Fprintln(w, "Not logged in.")
			return 1
		}
		user, err := a.session.User(ctx)
		if err != nil {
			return reportError(w, err)
		}

		var expires *time.Time
		if claims, err := session.ParseClaims(token); err == nil && !claims.ExpiresAt.IsZero() {
			expires = &claims.ExpiresAt
		}

		if IsJSONOutput() {
			out := map[string]any{"user": user, "token_expires_at": expires}
			if expires != nil {
				out["token_expired"] = expires.Before(now)
			}
			data, _ := json.MarshalIndent(out, "", "  ")
			fmt.Fprintln(w, string(data))
			return 0
		}

		if user != nil {
			printUser(w, "Logged in as", user)
		} else {
			fmt.Fprintln(w, "Logged in (no cached profile).")
		}
		if expires != nil {
			state := "valid until"
			if expires.Before(now) {
				state = "expired at"
			}
			fmt.Fprintf(w, "Token:      %s %s\n", state, expires.Local().Format(time.RFC1123))
		}
		return 0
	})
}

func printUser(w io.Writer, heading string, u *models.User) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(u, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}
	fmt.Fprintf(w, "%s %s <%s>\n", heading, u.Name, u.Email)
	if u.School != nil {
		fmt.Fprintf(w, "School:     %s\n", *u.School)
	}
	if u.ClassName != nil {
		fmt.Fprintf(w, "Class:      %s\n", *u.ClassName)
	}
	fmt.Fprintf(w, "Age band:   %s\n", u.PreferredAgeBand().Label())
}

// exitCodeFor is reportError without the printing.
func exitCodeFor(err error) int {
	return reportError(io.Discard, err)
}
