package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"issuebridge/internal/services/api"

	"github.com/spf13/cobra"
)

func queuesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queues",
		Short: "List resubmit queues and their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *api.App) error {
				rows, err := app.Resubmit.Service.Status(ctx)
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No queued comments.")
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TRACKER\tQUEUED")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%d\n", r.IssueTracker, r.QueueSize)
				}
				return w.Flush()
			})
		},
	}
}

func commentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comments <tracker>",
		Short: "Show the comments queued for a tracker, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *api.App) error {
				cs, err := app.Resubmit.Service.Comments(ctx, args[0])
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "DATE\tREPOSITORY\tISSUE\tRETRIES")
				for _, c := range cs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", c.Date.Format(time.RFC3339), c.RepositoryID, c.IssueKey, c.Retries)
				}
				return w.Flush()
			})
		},
	}
}

func resubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resubmit <tracker>",
		Short: "Redeliver the queued comments of a tracker and wait for the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *api.App) error {
				res, err := app.Resubmit.Service.Resubmit(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d delivered or dropped, %d requeued\n", res.IssueTracker, len(res.Remove), len(res.Requeue))
				return nil
			})
		},
	}
}

func clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear <tracker>",
		Short: "Drop every queued comment of a tracker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear %q without --yes", args[0])
			}
			return withApp(func(ctx context.Context, app *api.App) error {
				if err := app.Resubmit.Service.Clear(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: queue cleared\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the removal")
	return cmd
}

func purgeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge-repository <id>",
		Short: "Forget which objects were already delivered for a deleted repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to purge %q without --yes", args[0])
			}
			return withApp(func(ctx context.Context, app *api.App) error {
				if err := app.Tracking.Service.RepositoryDeleted(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: delivery records removed\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the removal")
	return cmd
}
