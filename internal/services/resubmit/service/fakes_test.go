package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"issuebridge/internal/platform/logger"
	"issuebridge/internal/platform/store/kv"
	"issuebridge/internal/services/resubmit/domain"
	tracking "issuebridge/internal/services/tracking/domain"
)

var errDown = errors.New("tracker down")

type repoMap map[string]tracking.Repository

func (m repoMap) Repository(_ context.Context, id string) (tracking.Repository, bool, error) {
	r, ok := m[id]
	return r, ok, nil
}

type brokenRepos struct{}

func (brokenRepos) Repository(context.Context, string) (tracking.Repository, bool, error) {
	return tracking.Repository{}, false, errDown
}

// fakeResubmitter fails for keys in fail, panics for keys in panics and blocks on gate when set
type fakeResubmitter struct {
	mu     sync.Mutex
	fail   map[string]bool
	panics map[string]bool
	sent   []string
	gate  chan struct{}
	start chan struct{}
}

func (f *fakeResubmitter) Resubmit(_ context.Context, key, text string) error {
	if f.start != nil {
		f.start <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panics[key] {
		panic("tracker client bug on " + key)
	}
	if f.fail[key] {
		return errDown
	}
	f.sent = append(f.sent, key+": "+text)
	return nil
}

func (f *fakeResubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type panickingRepos struct{}

func (panickingRepos) Repository(context.Context, string) (tracking.Repository, bool, error) {
	panic("repository lookup bug")
}

// failingBackend is a memory backend whose reads or writes fail once switched on
type failingBackend struct {
	*kv.Memory
	failGet atomic.Bool
	failPut atomic.Bool
}

func newFailingBackend() *failingBackend { return &failingBackend{Memory: kv.NewMemory()} }

func (b *failingBackend) Get(ctx context.Context, ns kv.Namespace, key string) ([]byte, bool, error) {
	if b.failGet.Load() {
		return nil, false, errDown
	}
	return b.Memory.Get(ctx, ns, key)
}

func (b *failingBackend) Put(ctx context.Context, ns kv.Namespace, key string, value []byte) error {
	if b.failPut.Load() {
		return errDown
	}
	return b.Memory.Put(ctx, ns, key, value)
}

type fakeTracker struct {
	name string
	rs   tracking.Resubmitter
}

func (t fakeTracker) Name() string                                            { return t.name }
func (t fakeTracker) Process(context.Context, tracking.ReferencingObject)     {}
func (t fakeTracker) FindIssues(tracking.ReferencingObject) map[string]string { return nil }
func (t fakeTracker) Resubmitter() (tracking.Resubmitter, bool)               { return t.rs, t.rs != nil }

// trackerMap resolves "<repository>/<tracker>"
type trackerMap map[string]tracking.Tracker

func (m trackerMap) Tracker(_ context.Context, repo tracking.Repository, name string) (tracking.Tracker, bool, error) {
	t, ok := m[repo.ID+"/"+name]
	return t, ok, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	comments []domain.QueuedComment
	batches  []string
}

func (n *recordingNotifier) NotifyComment(_ context.Context, c domain.QueuedComment) {
	n.mu.Lock()
	n.comments = append(n.comments, c)
	n.mu.Unlock()
}

func (n *recordingNotifier) NotifyResubmit(_ context.Context, tracker string, removed, requeued int) {
	n.mu.Lock()
	n.batches = append(n.batches, tracker)
	n.mu.Unlock()
}

type recordingAuditor struct {
	mu    sync.Mutex
	kinds []tracking.AuditKind
}

func (a *recordingAuditor) Record(_ context.Context, ev tracking.AuditEvent) {
	a.mu.Lock()
	a.kinds = append(a.kinds, ev.Kind)
	a.mu.Unlock()
}

var (
	repo1 = tracking.Repository{ID: "repo-1", Namespace: "hitchhiker", Name: "heart-of-gold"}
	repo2 = tracking.Repository{ID: "repo-2", Namespace: "hitchhiker", Name: "bistromath"}
)

func newTestQueue(capacity int) (*Queue, *recordingNotifier) {
	n := &recordingNotifier{}
	return NewQueue(kv.NewMemory(), nil, capacity, n, logger.Nop()), n
}

func mustAppend(q *Queue, cs ...domain.QueuedComment) {
	for _, c := range cs {
		if err := q.Append(context.Background(), c); err != nil {
			panic(err)
		}
	}
}

func keys(cs []domain.QueuedComment) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.IssueKey
	}
	return out
}
