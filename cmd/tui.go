// ABOUTME: TUI command for the planner CLI
// ABOUTME: Starts the full-screen interface with logging redirected to a file

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/markalston/maarif-planner/internal/logger"
	"github.com/markalston/maarif-planner/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive planner",
	Long: `Open the full-screen planner: chat with the assistant, browse the
calendar and plan lists, search the curriculum matrix and manage settings.

Log output goes to debug.log in the config directory while the interface
is open.`,
	Run: run(func(ctx context.Context, w io.Writer, _ []string) int {
		return runTUI(ctx, w)
	}),
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(ctx context.Context, w io.Writer) int {
	return withApp(ctx, w, func(a *app) int {
		if err := logger.InitFile(a.cfg.ConfigDir, a.cfg.LogLevel, a.cfg.LogFormat); err != nil {
			fmt.Fprintf(w, "Warning: logging disabled: %v\n", err)
		}
		defer logger.Close()

		err := tui.Run(ctx, tui.Deps{
			Client:           a.client,
			Session:          a.session,
			Auth:             a.auth,
			KV:               a.kv,
			ChatHistoryLimit: a.cfg.ChatHistoryLimit,
			AuthCheckTimeout: a.cfg.AuthCheckTimeout,
		})
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
		return 0
	})
}
