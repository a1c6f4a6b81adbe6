package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/platform/logger"
	"issuebridge/internal/platform/testkit"
	"issuebridge/internal/services/resubmit/domain"
)

func newTestDispatcher(q *Queue, rs *fakeResubmitter, backlog int) *Dispatcher {
	trackers := trackerMap{
		"repo-1/jira":    fakeTracker{name: "jira", rs: rs},
		"repo-1/redmine": fakeTracker{name: "redmine", rs: rs},
	}
	return NewDispatcher(func() *Processor {
		return NewProcessor(q, repoMap{"repo-1": repo1}, trackers, nil, logger.Nop())
	}, q, backlog, logger.Nop())
}

func TestDispatcherResubmitSyncsQueue(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueue(0)
	mustAppend(q,
		domain.NewQueuedComment("repo-1", "jira", "ABC-1", "one"),
		domain.NewQueuedComment("repo-1", "jira", "ABC-2", "two"),
	)
	rs := &fakeResubmitter{fail: map[string]bool{"ABC-2": true}}
	d := newTestDispatcher(q, rs, 0)
	defer d.Close()

	res, err := d.Resubmit(context.Background(), "jira")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if len(res.Remove) != 1 || len(res.Requeue) != 1 {
		t.Fatalf("result = %+v", res)
	}
	got, _ := q.Comments(context.Background(), "jira")
	if len(got) != 1 || got[0].IssueKey != "ABC-2" || got[0].Retries != 1 {
		t.Fatalf("queue = %+v", got)
	}
	if d.IsInProgress() {
		t.Fatalf("in progress after batch")
	}
}

func TestDispatcherSingleFlight(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueue(0)
	mustAppend(q,
		domain.NewQueuedComment("repo-1", "jira", "ABC-1", "one"),
		domain.NewQueuedComment("repo-1", "redmine", "#7", "two"),
	)
	rs := &fakeResubmitter{gate: make(chan struct{}), start: make(chan struct{})}
	d := newTestDispatcher(q, rs, 0)
	defer d.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _, _ = d.Resubmit(context.Background(), "jira") }()
	<-rs.start
	if !d.IsInProgress() {
		t.Fatalf("not in progress while a batch runs")
	}
	go func() { defer wg.Done(); _, _ = d.Resubmit(context.Background(), "redmine") }()

	// the second batch must not start while the first holds the slot
	select {
	case <-rs.start:
		t.Fatalf("second batch interleaved with the first")
	case <-time.After(50 * time.Millisecond):
	}
	rs.gate <- struct{}{}
	<-rs.start
	rs.gate <- struct{}{}
	wg.Wait()

	if rs.count() != 2 {
		t.Fatalf("delivered = %d", rs.count())
	}
}

func TestDispatcherWaitHonorsContext(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueue(0)
	mustAppend(q, domain.NewQueuedComment("repo-1", "jira", "ABC-1", "one"))
	rs := &fakeResubmitter{gate: make(chan struct{}), start: make(chan struct{})}
	d := newTestDispatcher(q, rs, 0)
	defer d.Close()

	go func() { _, _ = d.Resubmit(context.Background(), "jira") }()
	<-rs.start

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := d.Resubmit(ctx, "jira")
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("err = %v", err)
	}
	rs.gate <- struct{}{}
}

func TestDispatcherAsync(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueue(0)
	mustAppend(q, domain.NewQueuedComment("repo-1", "jira", "ABC-1", "one"))
	rs := &fakeResubmitter{}
	d := newTestDispatcher(q, rs, 0)

	id, err := d.ResubmitAsync("jira")
	if err != nil || id == "" {
		t.Fatalf("async = %q, %v", id, err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if rs.count() != 1 {
		t.Fatalf("delivered = %d", rs.count())
	}
	if got, _ := q.Comments(context.Background(), "jira"); len(got) != 0 {
		t.Fatalf("queue = %+v", got)
	}

	_, err = d.ResubmitAsync("jira")
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("after close err = %v", err)
	}
}

func TestDispatcherAsyncBacklogFull(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueue(0)
	mustAppend(q, domain.NewQueuedComment("repo-1", "jira", "ABC-1", "one"))
	rs := &fakeResubmitter{gate: make(chan struct{}), start: make(chan struct{})}
	d := newTestDispatcher(q, rs, 1)

	if _, err := d.ResubmitAsync("jira"); err != nil {
		t.Fatalf("first: %v", err)
	}
	<-rs.start // worker holds the first job
	if _, err := d.ResubmitAsync("jira"); err != nil {
		t.Fatalf("second: %v", err)
	}
	_, err := d.ResubmitAsync("jira")
	if !perr.IsCode(err, perr.ErrorCodeTooManyRequests) {
		t.Fatalf("third err = %v", err)
	}

	rs.gate <- struct{}{}
	// the second job finds the queue empty and never reaches the resubmitter
	testkit.Eventually(t, time.Second, func() bool { return !d.IsInProgress() && len(d.jobs) == 0 })
	_ = d.Close()
}

func TestDispatcherRequiresTracker(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueue(0)
	d := newTestDispatcher(q, &fakeResubmitter{}, 0)
	defer d.Close()
	if _, err := d.ResubmitAsync(""); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

// mustAcquireQuickly fails unless a new batch gets the slot without waiting
func mustAcquireQuickly(t *testing.T, d *Dispatcher, tracker string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := d.Resubmit(ctx, tracker); perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("slot still held: %v", err)
	}
}

func TestDispatcherReleasesAfterSyncError(t *testing.T) {
	t.Parallel()
	b := newFailingBackend()
	q := NewQueue(b, nil, 0, nil, logger.Nop())
	mustAppend(q, domain.NewQueuedComment("repo-1", "jira", "ABC-1", "one"))
	rs := &fakeResubmitter{}
	d := newTestDispatcher(q, rs, 0)
	defer d.Close()

	b.failPut.Store(true)
	if _, err := d.Resubmit(context.Background(), "jira"); !errors.Is(err, errDown) {
		t.Fatalf("err = %v", err)
	}
	if d.IsInProgress() {
		t.Fatalf("in progress after failed sync")
	}

	b.failPut.Store(false)
	mustAcquireQuickly(t, d, "jira")
	if got, _ := q.Comments(context.Background(), "jira"); len(got) != 0 {
		t.Fatalf("queue = %+v", got)
	}
}

func TestDispatcherReleasesAfterReadError(t *testing.T) {
	t.Parallel()
	b := newFailingBackend()
	q := NewQueue(b, nil, 0, nil, logger.Nop())
	mustAppend(q, domain.NewQueuedComment("repo-1", "jira", "ABC-1", "one"))
	rs := &fakeResubmitter{}
	d := newTestDispatcher(q, rs, 0)
	defer d.Close()

	b.failGet.Store(true)
	if _, err := d.Resubmit(context.Background(), "jira"); !errors.Is(err, errDown) {
		t.Fatalf("err = %v", err)
	}
	if d.IsInProgress() || rs.count() != 0 {
		t.Fatalf("in progress = %v, delivered = %d", d.IsInProgress(), rs.count())
	}

	b.failGet.Store(false)
	mustAcquireQuickly(t, d, "jira")
	if rs.count() != 1 {
		t.Fatalf("delivered = %d", rs.count())
	}
}

func TestDispatcherSurvivesPanickingBatch(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueue(0)
	mustAppend(q, domain.NewQueuedComment("repo-1", "jira", "ABC-1", "one"))
	rs := &fakeResubmitter{}
	d := NewDispatcher(func() *Processor {
		return NewProcessor(q, panickingRepos{}, trackerMap{}, nil, logger.Nop())
	}, q, 0, logger.Nop())

	_, err := d.Resubmit(context.Background(), "jira")
	if !perr.IsCode(err, perr.ErrorCodePanic) {
		t.Fatalf("err = %v", err)
	}
	if d.IsInProgress() {
		t.Fatalf("in progress after panic")
	}

	// the background worker must keep running after a panicking job
	if _, err := d.ResubmitAsync("jira"); err != nil {
		t.Fatalf("async: %v", err)
	}
	if _, err := d.ResubmitAsync("jira"); err != nil {
		t.Fatalf("async again: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got, _ := q.Comments(context.Background(), "jira"); len(got) != 1 || got[0].Retries != 0 {
		t.Fatalf("queue = %+v", got)
	}
	if rs.count() != 0 {
		t.Fatalf("delivered = %d", rs.count())
	}
}

func TestDispatcherAsyncPanickingResubmitterRequeues(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueue(0)
	mustAppend(q, domain.NewQueuedComment("repo-1", "jira", "ABC-1", "one"))
	rs := &fakeResubmitter{panics: map[string]bool{"ABC-1": true}}
	d := newTestDispatcher(q, rs, 0)

	if _, err := d.ResubmitAsync("jira"); err != nil {
		t.Fatalf("async: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	got, _ := q.Comments(context.Background(), "jira")
	if len(got) != 1 || got[0].Retries != 1 {
		t.Fatalf("queue = %+v", got)
	}
}
