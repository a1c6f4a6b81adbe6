// Package module wires the resubmit queue into the API using modkit
package module

import (
	"net/http"

	modkit "issuebridge/internal/modkit"
	"issuebridge/internal/modkit/httpkit"
	"issuebridge/internal/platform/keylock"
	str "issuebridge/internal/platform/strings"

	"issuebridge/internal/services/resubmit/domain"
	resubmithttp "issuebridge/internal/services/resubmit/http"
	resubmitsvc "issuebridge/internal/services/resubmit/service"
	tracking "issuebridge/internal/services/tracking/domain"
)

// Queue builds the durable queue on its own; trackers need it before the batch side exists
func Queue(deps modkit.Deps, opt Options, locks *keylock.Locker) *resubmitsvc.Queue {
	cs := resubmitsvc.NewConfigStore(deps.KV, opt.Addresses)
	log := deps.Log.With().Str("module", "resubmit").Logger()
	return resubmitsvc.NewQueue(deps.KV, locks, opt.Capacity, resubmitsvc.NewMailNotifier(opt.Mail, cs, log), log)
}

// Ports are the collaborators the batch side needs
type Ports struct {
	Queue        *resubmitsvc.Queue
	Repositories domain.Repositories
	Trackers     domain.Trackers
	Auditor      tracking.Auditor
	Options      *Options // nil reads FromConfig
}

// Exports is the port set the binaries read back
type Exports struct {
	Service *resubmitsvc.Service
	Worker  *resubmitsvc.Worker
}

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws   []func(http.Handler) http.Handler
	guard func(http.Handler) http.Handler
	ports Exports

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)
}

// New constructs the resubmit module; Close the exported Service on shutdown
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("resubmit"),
		modkit.WithPrefix("/issue-tracker/resubmits"),
	}, opts...)...)

	in, _ := b.Ports.(Ports)
	if in.Repositories == nil || in.Trackers == nil {
		panic("resubmit: repositories and trackers ports are required")
	}
	opt := FromConfig(deps.Cfg)
	if in.Options != nil {
		opt = *in.Options
	}
	q := in.Queue
	if q == nil {
		q = Queue(deps, opt, nil)
	}

	log := deps.Log.With().Str("module", "resubmit").Logger()
	cs := resubmitsvc.NewConfigStore(deps.KV, opt.Addresses)
	d := resubmitsvc.NewDispatcher(func() *resubmitsvc.Processor {
		return resubmitsvc.NewProcessor(q, in.Repositories, in.Trackers, in.Auditor, log)
	}, q, opt.Backlog, log)
	svc := resubmitsvc.New(q, d, cs, log)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		guard:     b.Guard,
		subrouter: b.Subrouter,
		ports:     Exports{Service: svc, Worker: resubmitsvc.NewWorker(svc, opt.Interval, log)},
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		resubmithttp.Register(r, svc, m.guard)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "resubmit") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports returns the Exports of the module
func (m *Module) Ports() any { return m.ports }
