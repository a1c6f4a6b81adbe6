// Package service keeps failed comments in per tracker queues and redelivers them in batches
package service

import (
	"context"

	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/platform/keylock"
	"issuebridge/internal/platform/logger"
	"issuebridge/internal/platform/store/kv"
	"issuebridge/internal/services/resubmit/domain"
	tracking "issuebridge/internal/services/tracking/domain"
)

// QueueNamespace holds one TrackerQueue per tracker name
var QueueNamespace = kv.Namespace{Name: "issue-tracker-resubmit-queue"}

// DefaultCapacity bounds each tracker queue unless configured otherwise
const DefaultCapacity = 1000

// Queue is the durable resubmit queue
// append, clear and sync of one tracker are serialized; other trackers never wait
type Queue struct {
	recs     kv.Store[domain.TrackerQueue]
	locks    *keylock.Locker
	capacity int
	notify   domain.Notifier
	log      logger.Logger
}

var _ tracking.Enqueuer = (*Queue)(nil)

// NewQueue returns a queue over b; capacity <= 0 means DefaultCapacity and a nil notifier is silent
func NewQueue(b kv.Backend, locks *keylock.Locker, capacity int, notify domain.Notifier, log logger.Logger) *Queue {
	if locks == nil {
		locks = keylock.New()
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if notify == nil {
		notify = nopNotifier{}
	}
	return &Queue{
		recs:     kv.New[domain.TrackerQueue](b, QueueNamespace),
		locks:    locks,
		capacity: capacity,
		notify:   notify,
		log:      log,
	}
}

// Capacity returns the per tracker bound
func (q *Queue) Capacity() int { return q.capacity }

func (q *Queue) lock(tracker string) func() { return q.locks.Lock("resubmit|" + tracker) }

func (q *Queue) entry(ctx context.Context, tracker string) (domain.TrackerQueue, error) {
	rec, ok, err := q.recs.GetOptional(ctx, tracker)
	if err != nil {
		return rec, err
	}
	if !ok {
		rec = domain.TrackerQueue{}
	}
	rec.Capacity = q.capacity
	return rec, nil
}

// Enqueue implements the tracking Enqueuer port
func (q *Queue) Enqueue(ctx context.Context, repositoryID, tracker, issueKey, comment string) error {
	return q.Append(ctx, domain.NewQueuedComment(repositoryID, tracker, issueKey, comment))
}

// Append pushes c to the tail of its tracker's queue, evicting the oldest entries on overflow
func (q *Queue) Append(ctx context.Context, c domain.QueuedComment) error {
	if c.IssueTracker == "" {
		return perr.WithField(perr.InvalidArgf("issue tracker is required"), "issue_tracker")
	}
	if err := q.append(ctx, c); err != nil {
		return err
	}
	q.notify.NotifyComment(ctx, c)
	return nil
}

func (q *Queue) append(ctx context.Context, c domain.QueuedComment) error {
	unlock := q.lock(c.IssueTracker)
	defer unlock()

	rec, err := q.entry(ctx, c.IssueTracker)
	if err != nil {
		return err
	}
	if n := rec.Push(c); n > 0 {
		q.log.Warn().
			Str("tracker", c.IssueTracker).
			Int("evicted", n).
			Int("capacity", q.capacity).
			Msg("resubmit queue full, oldest comments dropped")
	}
	return q.recs.Put(ctx, c.IssueTracker, rec)
}

// Comments returns a snapshot of tracker's queue, oldest first
func (q *Queue) Comments(ctx context.Context, tracker string) ([]domain.QueuedComment, error) {
	rec, _, err := q.recs.GetOptional(ctx, tracker)
	if err != nil {
		return nil, err
	}
	return rec.Comments, nil
}

// All returns a snapshot of every tracker's queue
func (q *Queue) All(ctx context.Context) (map[string][]domain.QueuedComment, error) {
	recs, err := q.recs.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]domain.QueuedComment, len(recs))
	for name, rec := range recs {
		out[name] = rec.Comments
	}
	return out, nil
}

// Clear empties tracker's queue
func (q *Queue) Clear(ctx context.Context, tracker string) error {
	unlock := q.lock(tracker)
	defer unlock()

	rec, err := q.entry(ctx, tracker)
	if err != nil {
		return err
	}
	rec.Comments = nil
	return q.recs.Put(ctx, tracker, rec)
}

// Sync drops the entries equal to one in remove and counts a retry on those equal to one in requeue
// Matching is by value, so an entry appended after the batch read its snapshot is dropped or
// counted as well when it equals a batch comment; entries equal to none are kept untouched
func (q *Queue) Sync(ctx context.Context, tracker string, remove, requeue []domain.QueuedComment) error {
	for _, c := range requeue {
		if domain.Contains(remove, c) {
			return perr.InvalidArgf("%s: comment for %s both removed and requeued", tracker, c.IssueKey)
		}
	}
	if err := q.sync(ctx, tracker, remove, requeue); err != nil {
		return err
	}
	q.notify.NotifyResubmit(ctx, tracker, len(remove), len(requeue))
	return nil
}

func (q *Queue) sync(ctx context.Context, tracker string, remove, requeue []domain.QueuedComment) error {
	unlock := q.lock(tracker)
	defer unlock()

	rec, err := q.entry(ctx, tracker)
	if err != nil {
		return err
	}
	kept := rec.Comments[:0:0]
	for _, c := range rec.Comments {
		if domain.Contains(remove, c) {
			continue
		}
		if domain.Contains(requeue, c) {
			c.Retried()
		}
		kept = append(kept, c)
	}
	rec.Comments = kept
	return q.recs.Put(ctx, tracker, rec)
}

type nopNotifier struct{}

func (nopNotifier) NotifyComment(context.Context, domain.QueuedComment) {}
func (nopNotifier) NotifyResubmit(context.Context, string, int, int)    {}
