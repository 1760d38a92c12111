// ABOUTME: Root command for the planner CLI
// ABOUTME: Handles global flags, configuration and shared wiring

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/markalston/maarif-planner/internal/auth"
	"github.com/markalston/maarif-planner/internal/client"
	"github.com/markalston/maarif-planner/internal/config"
	"github.com/markalston/maarif-planner/internal/kvstore"
	"github.com/markalston/maarif-planner/internal/logger"
	"github.com/markalston/maarif-planner/internal/session"
	"github.com/spf13/cobra"
)

var (
	apiURL       string
	jsonOutput   bool
	configPath   string
	storeBackend string
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Lesson planning assistant for preschool teachers",
	Long: `planner is a terminal client for the lesson-planning backend.

Draft daily and monthly plans with the AI assistant, browse them by calendar,
search the curriculum matrix and attach portfolio photos. Run "planner tui" for
the interactive interface.

Environment Variables:
  MAARIF_API_URL             Backend API URL (default: http://localhost:8001)
  MAARIF_STORE               Device store: file, sqlite, redis, memory (default: file)
  MAARIF_STORE_PATH          Store file location
  MAARIF_REDIS_ADDR          Redis address when MAARIF_STORE=redis
  MAARIF_CHAT_HISTORY_LIMIT  Messages sent as chat context, 0 = all (default: 10)
  MAARIF_AUTH_CHECK_TIMEOUT  Launch auth check deadline (default: 8s)
  LOG_LEVEL, LOG_FORMAT      Logging (debug|info|warn|error, text|json)

Exit codes:
  0 - Success
  1 - Rejected (validation, wrong credentials, not found)
  2 - Error (connectivity, not logged in, invalid input)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides MAARIF_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/maarif-planner/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "Device store backend (overrides MAARIF_STORE)")
}

// GetAPIURL returns the API URL from flag, env, config file, or default (in
// priority order)
func GetAPIURL(cfg *config.Config) string {
	if apiURL != "" {
		return apiURL
	}
	if cfg != nil {
		return cfg.APIURL
	}
	return config.DefaultAPIURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	kv      kvstore.Store
	session *session.Store
	client  *client.Client
	auth    *auth.Flow
}

// newApp loads configuration, opens the device store and builds the client.
// Commands log to stderr.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if storeBackend != "" {
		cfg.StoreBackend = storeBackend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	logger.Init(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	return wire(ctx, cfg)
}

func wire(ctx context.Context, cfg *config.Config) (*app, error) {
	kv, err := kvstore.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sess := session.New(kv)
	c := client.New(GetAPIURL(cfg), sess)
	a := &app{cfg: cfg, kv: kv, session: sess, client: c}
	a.auth = auth.NewFlow(ctx, c, sess)
	c.OnUnauthorized(a.auth.Unauthorized)
	return a, nil
}

func (a *app) Close() {
	a.kv.Close()
}

// withApp opens the app for one command run and maps setup failures to
// exit code 2.
func withApp(ctx context.Context, w io.Writer, fn func(a *app) int) int {
	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()
	return fn(a)
}

// reportError prints err and returns the exit code for it: 1 when the
// request was understood and refused, 2 otherwise.
func reportError(w io.Writer, err error) int {
	var apiErr *client.APIError
	var validation *auth.ValidationError
	switch {
	case errors.Is(err, client.ErrNoSession):
		fmt.Fprintln(w, "Error: not logged in (run 'planner login')")
		return 2
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	case errors.As(err, &validation):
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	case errors.As(err, &apiErr):
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return 2
}

// run wraps a runX function as a cobra Run with signal handling.
func run(fn func(ctx context.Context, w io.Writer, args []string) int) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalNotify()
		defer cancel()

		exitCode := fn(ctx, os.Stdout, args)
		if exitCode != 0 {
			cancel()
			os.Exit(exitCode)
		}
	}
}

func signalNotify() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
