package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"issuebridge/internal/core/issuekeys"
	"issuebridge/internal/platform/keylock"
	"issuebridge/internal/platform/logger"
	"issuebridge/internal/platform/store/kv"
	"issuebridge/internal/services/tracking/domain"
)

var errRemote = errors.New("remote down")

type call struct {
	Key, Text string
}

type fakeCommentator struct {
	mu      sync.Mutex
	calls   []call
	fail    error
	failKey string
}

func (f *fakeCommentator) Comment(_ context.Context, key, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil || key == f.failKey {
		return errRemote
	}
	f.calls = append(f.calls, call{key, text})
	return nil
}

func (f *fakeCommentator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeStateChanger struct {
	mu          sync.Mutex
	keywords    []string
	keywordsErr error
	fail        error
	changes     []call
	active      map[domain.ObjectType]bool
}

func (f *fakeStateChanger) ChangeState(_ context.Context, key, keyword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.changes = append(f.changes, call{key, keyword})
	return nil
}

func (f *fakeStateChanger) KeyWords(context.Context, string) ([]string, error) {
	return f.keywords, f.keywordsErr
}

func (f *fakeStateChanger) StateChangeActive(t domain.ObjectType) bool {
	if f.active == nil {
		return true
	}
	return f.active[t]
}

func (f *fakeStateChanger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.changes)
}

type fakeRenderer struct{ fail error }

func (r fakeRenderer) RenderReference(key string, obj domain.ReferencingObject) (string, error) {
	return fmt.Sprintf("ref %s %s/%s", key, obj.Type, obj.ID), r.fail
}

func (r fakeRenderer) RenderStateChange(key, keyword string, obj domain.ReferencingObject) (string, error) {
	return fmt.Sprintf("state %s %s %s/%s", key, keyword, obj.Type, obj.ID), r.fail
}

type links struct{}

func (links) CreateLink(key string) string { return "https://jira.example.com/browse/" + key }

type fakeEnqueuer struct {
	mu     sync.Mutex
	queued []string
	fail   error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, repo, tracker, key, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.queued = append(f.queued, repo+"|"+tracker+"|"+key+"|"+text)
	return nil
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *recordingAuditor) Record(_ context.Context, ev domain.AuditEvent) {
	a.mu.Lock()
	a.events = append(a.events, ev)
	a.mu.Unlock()
}

func (a *recordingAuditor) kinds() []domain.AuditKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AuditKind, len(a.events))
	for i, e := range a.events {
		out[i] = e.Kind
	}
	return out
}

var repo1 = domain.Repository{ID: "repo-1", Namespace: "hitchhiker", Name: "heart-of-gold"}

func object(typ domain.ObjectType, id string, texts ...string) domain.ReferencingObject {
	obj := domain.ReferencingObject{
		Repository: repo1,
		Type:       typ,
		ID:         id,
		Author:     domain.Person{Name: "trillian", DisplayName: "Tricia McMillan"},
		Date:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Link:       "https://scm.example.com/" + id,
	}
	for _, t := range texts {
		obj.Content = append(obj.Content, domain.Content{Type: "description", Value: t})
	}
	return obj
}

type harness struct {
	backend  *kv.Memory
	comments *fakeCommentator
	changer  *fakeStateChanger
	audit    *recordingAuditor
}

func newHarness() *harness {
	return &harness{
		backend:  kv.NewMemory(),
		comments: &fakeCommentator{},
		changer:  &fakeStateChanger{keywords: []string{"fixed", "closed"}},
		audit:    &recordingAuditor{},
	}
}

func (h *harness) config(mode Mode) Config {
	return Config{
		Name:         "jira",
		Repository:   repo1,
		Matcher:      issuekeys.Jira(),
		Links:        links{},
		Mode:         mode,
		Commentator:  h.comments,
		References:   fakeRenderer{},
		StateChanger: h.changer,
		StateChanges: fakeRenderer{},
	}
}

func (h *harness) processor(mode Mode) *Processor {
	locks := keylock.New()
	p, err := NewProcessor(h.config(mode), NewProcessedStore(h.backend, locks, "jira", repo1.ID), locks, h.audit, logger.Nop())
	if err != nil {
		panic(err)
	}
	return p
}
