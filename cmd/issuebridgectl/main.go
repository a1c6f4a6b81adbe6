// Command issuebridgectl inspects and drives the resubmit queues from a shell
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"issuebridge/internal/core/version"
	"issuebridge/internal/platform/config"
	"issuebridge/internal/platform/logger"
	"issuebridge/internal/services/api"

	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "issuebridgectl",
		Short: "Administer issuebridge resubmit queues and tracking records",
		Long: `issuebridgectl opens the same stores and catalog as the API
(SERVICE_PGSQL_*, TRACKING_CATALOG) and operates on them directly.

Examples:
  issuebridgectl queues
  issuebridgectl comments jira
  issuebridgectl resubmit jira
  issuebridgectl purge-repository 6f1b9c2e`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(queuesCmd())
	rootCmd.AddCommand(commentsCmd())
	rootCmd.AddCommand(resubmitCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(purgeCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			bi := version.Info()
			fmt.Fprintf(cmd.OutOrStdout(), "issuebridgectl %s (%s, %s)\n", bi.Version, bi.Commit, bi.Date)
		},
	}
}

// withApp boots the runtime, composes the modules and runs fn
func withApp(fn func(ctx context.Context, app *api.App) error) error {
	level := "warn"
	if verbose {
		level = "debug"
	}
	opts := logger.FromEnv()
	opts.Level = level
	opts.Component = "ctl"
	logger.Init(opts)
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	rt, err := api.Boot(ctx, root, "ctl", *l)
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	defer func() { _ = rt.Close(context.Background()) }()

	app := api.New(rt.Options(root))
	defer func() { _ = app.Close() }()
	return fn(ctx, app)
}
