package jira

import (
	"context"
	"sort"
	"strings"

	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/services/tracking/domain"
)

// API is the part of Client the tracker pieces use
type API interface {
	AddComment(ctx context.Context, issueKey, body string) error
	Transitions(ctx context.Context, issueKey string) ([]Transition, error)
	DoTransition(ctx context.Context, issueKey, id string) error
}

var _ API = (*Client)(nil)

// Commentator posts comments through the REST API
type Commentator struct{ API API }

var _ domain.Commentator = Commentator{}

// Comment implements domain.Commentator
func (c Commentator) Comment(ctx context.Context, issueKey, text string) error {
	return c.API.AddComment(ctx, issueKey, text)
}

// StateChanger maps trigger words to workflow transitions
// A word is usable only while its transition is available on the issue
type StateChanger struct {
	api      API
	keywords map[string]string // lower case word -> transition or target status name
	toggles  domain.StateChangeToggles
}

var (
	_ domain.StateChanger          = (*StateChanger)(nil)
	_ domain.StateChangeActivation = (*StateChanger)(nil)
)

// NewStateChanger returns a changer for keywords (word to transition name)
func NewStateChanger(api API, keywords map[string]string, toggles domain.StateChangeToggles) *StateChanger {
	kw := make(map[string]string, len(keywords))
	for w, t := range keywords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" && strings.TrimSpace(t) != "" {
			kw[w] = strings.TrimSpace(t)
		}
	}
	return &StateChanger{api: api, keywords: kw, toggles: toggles}
}

// StateChangeActive implements domain.StateChangeActivation
func (s *StateChanger) StateChangeActive(t domain.ObjectType) bool { return s.toggles.Active(t) }

// KeyWords returns the configured words whose transition issueKey currently offers, sorted
func (s *StateChanger) KeyWords(ctx context.Context, issueKey string) ([]string, error) {
	if len(s.keywords) == 0 {
		return nil, nil
	}
	ts, err := s.api.Transitions(ctx, issueKey)
	if err != nil {
		return nil, err
	}
	var out []string
	for w, name := range s.keywords {
		if _, ok := match(ts, name); ok {
			out = append(out, w)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ChangeState runs the transition mapped to keyword
func (s *StateChanger) ChangeState(ctx context.Context, issueKey, keyword string) error {
	name, ok := s.keywords[strings.ToLower(keyword)]
	if !ok {
		return perr.WithField(perr.InvalidArgf("unknown state change keyword %q", keyword), "keyword")
	}
	ts, err := s.api.Transitions(ctx, issueKey)
	if err != nil {
		return err
	}
	t, ok := match(ts, name)
	if !ok {
		return perr.Conflictf("transition %q is not available for %s", name, issueKey)
	}
	return s.api.DoTransition(ctx, issueKey, t.ID)
}

// match finds the transition named name, or leading to the status named name
func match(ts []Transition, name string) (Transition, bool) {
	for _, t := range ts {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	for _, t := range ts {
		if strings.EqualFold(t.To.Name, name) {
			return t, true
		}
	}
	return Transition{}, false
}

// Links builds <url>/browse/<key>
type Links struct{ BaseURL string }

var _ domain.LinkFactory = Links{}

// CreateLink implements domain.LinkFactory
func (l Links) CreateLink(issueKey string) string {
	return strings.TrimRight(l.BaseURL, "/") + "/browse/" + issueKey
}
