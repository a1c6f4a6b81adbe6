// Package module wires issue tracking into the API using modkit
package module

import (
	"net/http"

	modkit "issuebridge/internal/modkit"
	"issuebridge/internal/modkit/httpkit"
	"issuebridge/internal/platform/keylock"
	str "issuebridge/internal/platform/strings"

	"issuebridge/internal/services/tracking/domain"
	trackinghttp "issuebridge/internal/services/tracking/http"
	trackingsvc "issuebridge/internal/services/tracking/service"
)

// Ports are the collaborators the module needs from its composer
type Ports struct {
	Repositories domain.Repositories
	Specs        []domain.TrackerSpec
	Registry     *trackingsvc.Registry

	// Enqueuer is the resubmit queue; nil disables resubmission
	Enqueuer domain.Enqueuer
	Auditor  domain.Auditor
	Locks    *keylock.Locker
}

// Exports is the port set other modules and binaries read back
type Exports struct {
	Service      *trackingsvc.Service
	Factory      *trackingsvc.Factory
	Repositories domain.Repositories
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

// New builds every configured tracker provider and the tracking service
// A catalog naming an unknown kind or a duplicate tracker stops the process
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("tracking"),
		modkit.WithPrefix("/issue-tracker"),
	}, opts...)...)

	in, _ := b.Ports.(Ports)
	if in.Repositories == nil {
		panic("tracking: repositories port is required")
	}
	reg := in.Registry
	if reg == nil {
		reg = trackingsvc.NewRegistry()
	}
	locks := in.Locks
	if locks == nil {
		locks = keylock.New()
	}

	log := deps.Log.With().Str("module", "tracking").Logger()
	builder := &trackingsvc.Builder{
		Backend:  deps.KV,
		Locks:    locks,
		Enqueuer: in.Enqueuer,
		Auditor:  in.Auditor,
		Log:      log,
	}
	providers, err := reg.Providers(in.Specs, builder)
	if err != nil {
		deps.Log.Error().Err(err).Msg("invalid tracker catalog")
		panic("tracking: " + err.Error())
	}

	factory := trackingsvc.NewFactory(log, providers...)
	listener := trackingsvc.NewRepositoryListener(deps.KV, factory, log)
	svc := trackingsvc.New(in.Repositories, factory, listener, log)

	log.Info().Strs("trackers", factory.Names()).Strs("kinds", reg.List()).Msg("tracking ready")

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		guard:     b.Guard,
		subrouter: b.Subrouter,
		ports:     Exports{Service: svc, Factory: factory, Repositories: in.Repositories},
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		trackinghttp.Register(r, svc, m.guard)
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
func (m *Module) Name() string { return str.MustString(m.name, "tracking") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Ports returns the Exports of the module
func (m *Module) Ports() any { return m.ports }
