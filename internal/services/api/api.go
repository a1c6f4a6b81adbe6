// Package api composes the tracking, resubmit and meta modules and mounts them under /api/v1
package api

import (
	"net/http"

	"issuebridge/internal/platform/config"
	"issuebridge/internal/platform/keylock"
	"issuebridge/internal/platform/logger"
	phttp "issuebridge/internal/platform/net/http"
	"issuebridge/internal/platform/store"
	"issuebridge/internal/platform/store/kv"

	"issuebridge/internal/modkit"
	"issuebridge/internal/modkit/httpkit"
	"issuebridge/internal/modkit/module"
	"issuebridge/internal/modkit/swaggerkit"

	metamod "issuebridge/internal/services/api/meta/module"
	resubmitmod "issuebridge/internal/services/resubmit/module"
	tracking "issuebridge/internal/services/tracking/domain"
	trackingmod "issuebridge/internal/services/tracking/module"
	trackingsvc "issuebridge/internal/services/tracking/service"
)

// Options are the API options
type Options struct {
	// Config is the root view; CORE_API_*, TRACKING_* and RESUBMIT_* are read below it
	Config config.Conf
	Store  *store.Store
	KV     kv.Backend
	Logger *logger.Logger

	Repositories tracking.Repositories
	Specs        []tracking.TrackerSpec
	Registry     *trackingsvc.Registry
	Auditor      tracking.Auditor

	// Resubmit overrides RESUBMIT_* when set
	Resubmit *resubmitmod.Options

	// AdminToken guards the administrative routes; empty disables them
	AdminToken string

	EnableSwagger  bool
	EnableProfiler bool
}

// App is the composed set of modules
type App struct {
	Tracking trackingmod.Exports
	Resubmit resubmitmod.Exports
	Modules  []module.Module
}

// New builds every module without mounting routes; the worker binaries stop here
// The queue is built first: trackers enqueue into it, and the batch side resolves trackers
func New(opt Options) *App {
	log := logger.Nop()
	if opt.Logger != nil {
		log = *opt.Logger
	}
	if opt.KV == nil {
		log.Warn().Msg("no key-value backend, falling back to memory")
		opt.KV = kv.NewMemory()
	}
	deps := modkit.Deps{
		Log:   log,
		Cfg:   opt.Config,
		Store: opt.Store,
		KV:    opt.KV,
	}

	ropt := resubmitmod.FromConfig(opt.Config)
	if opt.Resubmit != nil {
		ropt = *opt.Resubmit
	}
	guard := httpkit.Auth(httpkit.NewPortFunc(httpkit.AdminToken(opt.AdminToken)))
	locks := keylock.New()
	queue := resubmitmod.Queue(deps, ropt, locks)

	trackingMod := trackingmod.New(deps,
		modkit.WithGuard(guard),
		modkit.WithPorts(trackingmod.Ports{
			Repositories: opt.Repositories,
			Specs:        opt.Specs,
			Registry:     opt.Registry,
			Enqueuer:     queue,
			Auditor:      opt.Auditor,
			Locks:        locks,
		}),
	)
	tx := module.MustPortsOf[trackingmod.Exports](trackingMod)

	resubmitMod := resubmitmod.New(deps,
		modkit.WithGuard(guard),
		modkit.WithPorts(resubmitmod.Ports{
			Queue:        queue,
			Repositories: tx.Repositories,
			Trackers:     tx.Factory,
			Auditor:      opt.Auditor,
			Options:      &ropt,
		}),
	)
	rx := module.MustPortsOf[resubmitmod.Exports](resubmitMod)

	return &App{
		Tracking: tx,
		Resubmit: rx,
		Modules: []module.Module{
			metamod.New(deps),
			trackingMod,
			resubmitMod,
		},
	}
}

// Mount builds the modules and mounts them onto r
func Mount(r phttp.Router, opt Options) *App {
	app := New(opt)
	apiCfg := opt.Config.Prefix("CORE_API_")

	swaggerkit.Mount(r, swaggerkit.Options{Enabled: opt.EnableSwagger, BaseURL: "/api/v1"})
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountAPIV1(r, httpkit.CommonStack(apiCfg), func(api httpkit.Router) {
		for _, m := range app.Modules {
			// register each module's ports under its own name for cross-module lookups
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})
	return app
}

// Close stops the resubmit dispatcher after its running batch
func (a *App) Close() error {
	if a == nil || a.Resubmit.Service == nil {
		return nil
	}
	return a.Resubmit.Service.Close()
}

// Handler is a convenience for tests: a chi mux with the API mounted
func Handler(opt Options) (http.Handler, *App) {
	srv := phttp.NewServer(opt.Config.Prefix("CORE_API_"))
	app := Mount(srv.Router(), opt)
	return srv.Router().Mux(), app
}
