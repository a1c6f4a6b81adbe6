package jira

import (
	"context"

	"issuebridge/internal/core/issuekeys"
	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/services/tracking/domain"
	trackingsvc "issuebridge/internal/services/tracking/service"
)

// Kind is the catalog kind served by this package
const Kind = "jira"

// Register adds the jira kind to reg
func Register(reg *trackingsvc.Registry) { reg.Register(Kind, NewProvider) }

// ModeOf picks the processor mode a spec asks for
func ModeOf(spec domain.TrackerSpec) trackingsvc.Mode {
	switch {
	case len(spec.Keywords) > 0:
		return trackingsvc.StateChanging
	case spec.Comments:
		return trackingsvc.Commenting
	}
	return trackingsvc.ReadOnly
}

// NewProvider is the ProviderFactory of the jira kind
// One client, and so one rate limit, is shared by every repository of the tracker instance
func NewProvider(spec domain.TrackerSpec, b *trackingsvc.Builder) (domain.Provider, error) {
	matcher := issuekeys.Jira()
	if spec.KeyPattern != "" {
		m, err := issuekeys.Compile(spec.KeyPattern, spec.KeyGroup)
		if err != nil {
			return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "tracker %q: bad key pattern", spec.Name), "key_pattern")
		}
		matcher = m
	}

	mode := ModeOf(spec)
	if mode != trackingsvc.ReadOnly && spec.Token == "" {
		return nil, perr.WithField(perr.InvalidArgf("tracker %q: %s mode needs a token", spec.Name, mode), "token_env")
	}

	client, err := NewClient(ClientConfig{
		URL:        spec.URL,
		Username:   spec.Username,
		Token:      spec.Token,
		RatePerSec: spec.RatePerSec,
		Burst:      spec.Burst,
	})
	if err != nil {
		return nil, err
	}

	renderer := trackingsvc.NewTemplateRenderer(spec.Templates)
	links := Links{BaseURL: client.BaseURL()}
	var changer *StateChanger
	if mode == trackingsvc.StateChanging {
		changer = NewStateChanger(client, spec.Keywords, spec.StateChanges)
	}

	return trackingsvc.NewSpecProvider(spec, b, func(_ context.Context, repo domain.Repository) (trackingsvc.Config, error) {
		cfg := trackingsvc.Config{
			Name:       spec.Name,
			Repository: repo,
			Matcher:    matcher,
			Links:      links,
			Mode:       mode,
		}
		if mode != trackingsvc.ReadOnly {
			cfg.Commentator = Commentator{API: client}
			cfg.References = renderer
		}
		if changer != nil {
			cfg.StateChanger = changer
			cfg.StateChanges = renderer
		}
		return cfg, nil
	}), nil
}
