package api

import (
	"context"
	"errors"

	"issuebridge/internal/adapters/audit"
	"issuebridge/internal/adapters/catalog"
	"issuebridge/internal/adapters/jira"
	"issuebridge/internal/platform/config"
	"issuebridge/internal/platform/logger"
	"issuebridge/internal/platform/store"
	"issuebridge/internal/platform/store/kv"

	tracking "issuebridge/internal/services/tracking/domain"
	trackingsvc "issuebridge/internal/services/tracking/service"
)

// Runtime is the infrastructure every binary opens before composing modules
type Runtime struct {
	Store    *store.Store
	KV       kv.Backend
	Catalog  *catalog.Catalog
	Registry *trackingsvc.Registry
	Auditor  tracking.Auditor

	log   logger.Logger
	audit *audit.ClickHouse
}

// Boot opens the stores enabled under root, loads the catalog and registers the tracker kinds
//
//	SERVICE_PGSQL_ENABLED=false  keeps every record in memory
//	SERVICE_PGSQL_MIGRATE        creates kv_records on start (default true)
//	SERVICE_CLICKHOUSE_ENABLED   sends delivery audit rows to ClickHouse
//	TRACKING_CATALOG             path of the repositories and trackers YAML
func Boot(ctx context.Context, root config.Conf, role string, log logger.Logger) (*Runtime, error) {
	st, err := store.Open(ctx, store.ConfigFromEnv(root, "issuebridge", role), store.WithLogger(log))
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Store: st, log: log}

	if st.PG != nil {
		pg := kv.NewPG(st.PG)
		if root.Prefix("SERVICE_PGSQL_").MayBool("MIGRATE", true) {
			if err := pg.EnsureSchema(ctx); err != nil {
				_ = st.Close(ctx)
				return nil, err
			}
		}
		rt.KV = pg
	} else {
		log.Warn().Msg("postgres disabled, records are kept in memory")
		rt.KV = kv.NewMemory()
	}

	if path := root.Prefix("TRACKING_").MayString("CATALOG", ""); path != "" {
		rt.Catalog, err = catalog.Load(path)
		if err != nil {
			_ = st.Close(ctx)
			return nil, err
		}
	} else {
		log.Warn().Msg("TRACKING_CATALOG not set, no trackers configured")
		rt.Catalog, _ = catalog.New(catalog.File{}, nil)
	}

	rt.Registry = trackingsvc.NewRegistry()
	jira.Register(rt.Registry)

	if st.CH != nil {
		ac := root.Prefix("SERVICE_CLICKHOUSE_AUDIT_")
		rt.audit = audit.New(st.CH, audit.Options{
			Buffer:    ac.MayInt("BUFFER", 4096),
			BatchSize: ac.MayInt("BATCH", 500),
			Interval:  ac.MayDuration("INTERVAL", 0),
		}, log.With().Str("component", "audit").Logger())
		rt.Auditor = rt.audit
	} else {
		rt.Auditor = audit.Log{L: log.With().Str("component", "audit").Logger()}
	}
	return rt, nil
}

// Options fills the API options from the runtime
func (rt *Runtime) Options(root config.Conf) Options {
	log := rt.log
	return Options{
		Config:       root,
		Store:        rt.Store,
		KV:           rt.KV,
		Logger:       &log,
		Repositories: rt.Catalog,
		Specs:        rt.Catalog.Specs(),
		Registry:     rt.Registry,
		Auditor:      rt.Auditor,
		AdminToken:   root.Prefix("CORE_API_").MayString("ADMIN_TOKEN", ""),
	}
}

// Close flushes the audit buffer, then closes the stores
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.audit != nil {
		errs = append(errs, rt.audit.Close())
	}
	errs = append(errs, rt.Store.Close(ctx))
	return errors.Join(errs...)
}
