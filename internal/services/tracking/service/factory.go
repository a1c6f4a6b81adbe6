package service

import (
	"context"
	"sort"

	"issuebridge/internal/platform/logger"
	"issuebridge/internal/services/tracking/domain"
)

// Factory resolves the trackers attached to a repository from a fixed provider list
type Factory struct {
	providers []domain.Provider
	log       logger.Logger
}

// NewFactory returns a factory over providers, ordered by name
func NewFactory(log logger.Logger, providers ...domain.Provider) *Factory {
	ps := append([]domain.Provider(nil), providers...)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Name() < ps[j].Name() })
	return &Factory{providers: ps, log: log}
}

// Names returns the provider names in order
func (f *Factory) Names() []string {
	out := make([]string, len(f.providers))
	for i, p := range f.providers {
		out[i] = p.Name()
	}
	return out
}

// Trackers returns every tracker serving repo
// A provider that fails is logged and skipped so the others still run
func (f *Factory) Trackers(ctx context.Context, repo domain.Repository) []domain.Tracker {
	var out []domain.Tracker
	for _, p := range f.providers {
		t, ok, err := p.Tracker(ctx, repo)
		if err != nil {
			f.log.Error().Err(err).Str("tracker", p.Name()).Str("repository", repo.ID).Msg("tracker unavailable")
			continue
		}
		if ok {
			out = append(out, t)
		}
	}
	return out
}

// Tracker returns the tracker called name for repo
func (f *Factory) Tracker(ctx context.Context, repo domain.Repository, name string) (domain.Tracker, bool, error) {
	for _, p := range f.providers {
		if p.Name() == name {
			return p.Tracker(ctx, repo)
		}
	}
	return nil, false, nil
}

// Forget drops cached trackers of repositoryID in providers that cache
func (f *Factory) Forget(repositoryID string) {
	for _, p := range f.providers {
		if c, ok := p.(interface{ Forget(string) }); ok {
			c.Forget(repositoryID)
		}
	}
}

// Composite fans an object out to every tracker of its repository
type Composite struct {
	f *Factory
}

// NewComposite returns a composite over f
func NewComposite(f *Factory) *Composite { return &Composite{f: f} }

// Process runs every tracker of obj's repository in provider order
func (c *Composite) Process(ctx context.Context, obj domain.ReferencingObject) {
	for _, t := range c.f.Trackers(ctx, obj.Repository) {
		t.Process(ctx, obj)
	}
}

// FindIssues merges the issues all trackers find; the first tracker wins a shared key
func (c *Composite) FindIssues(ctx context.Context, obj domain.ReferencingObject) []domain.IssueLink {
	seen := map[string]string{}
	for _, t := range c.f.Trackers(ctx, obj.Repository) {
		for k, link := range t.FindIssues(obj) {
			if _, ok := seen[k]; !ok {
				seen[k] = link
			}
		}
	}
	out := make([]domain.IssueLink, 0, len(seen))
	for k, link := range seen {
		out = append(out, domain.IssueLink{Key: k, Link: link})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
