package service

import (
	"issuebridge/internal/platform/keylock"
	"issuebridge/internal/platform/logger"
	"issuebridge/internal/platform/store/kv"
	"issuebridge/internal/services/tracking/domain"
)

// Builder wires the shared collaborators into every Processor it builds
type Builder struct {
	Backend  kv.Backend
	Locks    *keylock.Locker
	Enqueuer domain.Enqueuer // nil disables resubmission
	Auditor  domain.Auditor
	Log      logger.Logger
}

// Build validates cfg and returns its Processor
// With an Enqueuer, failed comments are queued and the tracker gains a Resubmitter
func (b *Builder) Build(cfg Config) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.Locks == nil {
		b.Locks = keylock.New()
	}

	var ledger *ProcessedStore
	if cfg.Mode != ReadOnly {
		ledger = NewProcessedStore(b.Backend, b.Locks, cfg.Name, cfg.Repository.ID)
		if b.Enqueuer != nil {
			rc := NewResubmittingCommentator(cfg.Commentator, b.Enqueuer, b.Auditor, cfg.Name, cfg.Repository.ID, b.Log)
			cfg.Commentator = rc
			cfg.Resubmitter = rc
		}
	}
	return NewProcessor(cfg, ledger, b.Locks, b.Auditor, b.Log)
}
