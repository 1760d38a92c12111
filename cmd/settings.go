// ABOUTME: Settings commands for the planner CLI
// ABOUTME: Shows and toggles device preferences and clears cached data

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/markalston/maarif-planner/internal/settings"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show device preferences",
	Args:  cobra.NoArgs,
	Run: run(func(ctx context.Context, w io.Writer, _ []string) int {
		return runSettingsShow(ctx, w)
	}),
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <notifications|autoBackup> <true|false>",
	Short: "Change a preference",
	Args:  cobra.ExactArgs(2),
	Run: run(func(ctx context.Context, w io.Writer, args []string) int {
		return runSettingsSet(ctx, w, args[0], args[1])
	}),
}

var settingsClearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Remove cached data such as recent searches (keeps the session)",
	Args:  cobra.NoArgs,
	Run: run(func(ctx context.Context, w io.Writer, _ []string) int {
		return runSettingsClearCache(ctx, w)
	}),
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsSetCmd, settingsClearCacheCmd)
}

func writeSettings(w io.Writer, s settings.Settings) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(s, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}
	fmt.Fprintf(w, "Notifications: %s\n", onOff(s.Notifications))
	fmt.Fprintf(w, "Auto backup:   %s\n", onOff(s.AutoBackup))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// runSettingsShow returns exit code
func runSettingsShow(ctx context.Context, w io.Writer) int {
	return withApp(ctx, w, func(a *app) int {
		s, err := settings.New(a.kv).Load(ctx)
		if err != nil {
			return reportError(w, err)
		}
		writeSettings(w, s)
		return 0
	})
}

// runSettingsSet returns exit code
func runSettingsSet(ctx context.Context, w io.Writer, name, value string) int {
	on, err := strconv.ParseBool(value)
	if err != nil {
		fmt.Fprintf(w, "Error: invalid value %q (want true or false)\n", value)
		return 2
	}
	return withApp(ctx, w, func(a *app) int {
		store := settings.New(a.kv)
		if err := store.Set(ctx, name, on); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
		s, err := store.Load(ctx)
		if err != nil {
			return reportError(w, err)
		}
		writeSettings(w, s)
		return 0
	})
}

// runSettingsClearCache returns exit code
func runSettingsClearCache(ctx context.Context, w io.Writer) int {
	return withApp(ctx, w, func(a *app) int {
		if err := settings.New(a.kv).ClearCache(ctx); err != nil {
			return reportError(w, err)
		}
		fmt.Fprintln(w, "Cache cleared.")
		return 0
	})
}
