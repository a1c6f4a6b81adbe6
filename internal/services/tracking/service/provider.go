package service

import (
	"context"
	"sync"

	"issuebridge/internal/services/tracking/domain"
)

// ConfigFunc returns the processor configuration of a tracker for repo
type ConfigFunc func(ctx context.Context, repo domain.Repository) (Config, error)

// SpecProvider serves the repositories listed in a TrackerSpec and caches one Processor per repository
type SpecProvider struct {
	spec      domain.TrackerSpec
	builder   *Builder
	configure ConfigFunc

	mu    sync.Mutex
	cache map[string]*Processor
}

var _ domain.Provider = (*SpecProvider)(nil)

// NewSpecProvider returns a provider building processors with configure
func NewSpecProvider(spec domain.TrackerSpec, b *Builder, configure ConfigFunc) *SpecProvider {
	return &SpecProvider{spec: spec, builder: b, configure: configure, cache: map[string]*Processor{}}
}

// Name returns the tracker name
func (p *SpecProvider) Name() string { return p.spec.Name }

// Tracker returns the processor for repo, building it on first use
func (p *SpecProvider) Tracker(ctx context.Context, repo domain.Repository) (domain.Tracker, bool, error) {
	if !p.spec.Serves(repo.ID) {
		return nil, false, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.cache[repo.ID]; ok {
		return t, true, nil
	}
	cfg, err := p.configure(ctx, repo)
	if err != nil {
		return nil, false, err
	}
	t, err := p.builder.Build(cfg)
	if err != nil {
		return nil, false, err
	}
	p.cache[repo.ID] = t
	return t, true, nil
}

// Forget drops the cached processor of repositoryID
func (p *SpecProvider) Forget(repositoryID string) {
	p.mu.Lock()
	delete(p.cache, repositoryID)
	p.mu.Unlock()
}
