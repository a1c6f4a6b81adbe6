package modkit

import (
	"issuebridge/internal/platform/config"
	"issuebridge/internal/platform/logger"
	"issuebridge/internal/platform/store"
	"issuebridge/internal/platform/store/kv"
)

// Deps holds the core dependencies passed to every module
type Deps struct {
	Log   logger.Logger
	Cfg   config.Conf
	Store *store.Store
	KV    kv.Backend
}

// Pingers returns the configured stores for readiness checks; missing stores are nil
func (d Deps) Pingers() (pg, ch store.Pinger) {
	if d.Store == nil {
		return nil, nil
	}
	if p, ok := d.Store.PG.(store.Pinger); ok {
		pg = p
	}
	if p, ok := d.Store.CH.(store.Pinger); ok {
		ch = p
	}
	return pg, ch
}
