package service

import (
	"sort"
	"sync"

	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/services/tracking/domain"
)

// ProviderFactory turns one tracker entry of the catalog into a Provider
type ProviderFactory func(spec domain.TrackerSpec, b *Builder) (domain.Provider, error)

// Registry maps tracker kinds to their factories; main composes it explicitly
type Registry struct {
	mu sync.RWMutex
	m  map[string]ProviderFactory
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry { return &Registry{m: map[string]ProviderFactory{}} }

// Register adds kind; registering a kind twice panics
func (r *Registry) Register(kind string, f ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if kind == "" || f == nil {
		panic("tracking: empty provider registration")
	}
	if _, dup := r.m[kind]; dup {
		panic("tracking: provider kind registered twice: " + kind)
	}
	r.m[kind] = f
}

// List returns the registered kinds sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New builds the provider for spec
func (r *Registry) New(spec domain.TrackerSpec, b *Builder) (domain.Provider, error) {
	r.mu.RLock()
	f, ok := r.m[spec.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, perr.WithField(perr.InvalidArgf("tracker %q: unknown kind %q", spec.Name, spec.Kind), "kind")
	}
	return f(spec, b)
}

// Providers builds one provider per spec; tracker names must be unique
func (r *Registry) Providers(specs []domain.TrackerSpec, b *Builder) ([]domain.Provider, error) {
	seen := make(map[string]bool, len(specs))
	out := make([]domain.Provider, 0, len(specs))
	for _, s := range specs {
		if seen[s.Name] {
			return nil, perr.WithField(perr.InvalidArgf("tracker %q declared twice", s.Name), "name")
		}
		seen[s.Name] = true
		p, err := r.New(s, b)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
