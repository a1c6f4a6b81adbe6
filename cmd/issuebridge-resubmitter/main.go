// Command issuebridge-resubmitter periodically redelivers queued comments
//
// It runs one batch per tracker with a non-empty queue every RESUBMIT_INTERVAL.
// Queue locks are per process: while the API is taking traffic prefer
// CORE_API_RESUBMIT_SCHEDULE=true, which runs the same loop inside the API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"issuebridge/internal/platform/config"
	"issuebridge/internal/platform/logger"

	"issuebridge/internal/services/api"
	resubmitmod "issuebridge/internal/services/resubmit/module"
)

func main() {
	root := config.New()
	l := logger.Get()

	var (
		fInterval = flag.Duration("interval", 0, "time between runs (default RESUBMIT_INTERVAL or 15m)")
		fOnce     = flag.Bool("once", false, "run a single pass and exit")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := api.Boot(ctx, root, "resubmitter", *l)
	if err != nil {
		l.Fatal().Err(err).Msg("boot failed")
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close runtime")
		}
	}()

	ropt := resubmitmod.FromConfig(root)
	if *fInterval > 0 {
		ropt.Interval = *fInterval
	}
	opt := rt.Options(root)
	opt.Resubmit = &ropt
	app := api.New(opt)
	defer func() { _ = app.Close() }()

	if *fOnce {
		app.Resubmit.Worker.Tick(ctx)
		return
	}
	if err := app.Resubmit.Worker.Run(ctx); err != nil && ctx.Err() == nil {
		l.Error().Err(err).Msg("resubmit worker failed")
		os.Exit(1)
	}
}
