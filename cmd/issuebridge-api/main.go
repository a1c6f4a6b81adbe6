// @title         IssueBridge API
// @version       0.1.0
// @description   Links source repository events to issue trackers and manages the resubmit queue

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"issuebridge/internal/platform/config"
	"issuebridge/internal/platform/logger"
	phttp "issuebridge/internal/platform/net/http"

	"issuebridge/internal/services/api"

	"golang.org/x/sync/errgroup"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := api.Boot(ctx, root, "api", *l)
	if err != nil {
		l.Fatal().Err(err).Msg("boot failed")
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close runtime")
		}
	}()

	// http server (reads CORE_API_PORT and the CORE_API_*_TIMEOUT knobs)
	srv := phttp.NewServer(apiCfg)

	opt := rt.Options(root)
	opt.EnableSwagger = apiCfg.MayBool("SWAGGER", true)
	opt.EnableProfiler = apiCfg.MayBool("PROFILER", false)
	if opt.AdminToken == "" {
		l.Warn().Msg("CORE_API_ADMIN_TOKEN not set, administrative routes are disabled")
	}
	app := api.Mount(srv.Router(), opt)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if apiCfg.MayBool("RESUBMIT_SCHEDULE", false) {
		g.Go(func() error {
			if err := app.Resubmit.Worker.Run(gctx); err != nil && gctx.Err() == nil {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		// lets a running resubmit batch finish its sync before the stores close
		return app.Close()
	})

	if err := g.Wait(); err != nil {
		l.Error().Err(err).Msg("api stopped")
		os.Exit(1)
	}
	l.Info().Msg("api stopped")
}
