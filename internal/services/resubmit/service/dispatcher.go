package service

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/platform/logger"
	"issuebridge/internal/services/resubmit/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// DefaultBacklog is how many async batches may wait behind the running one
const DefaultBacklog = 16

type job struct {
	id      string
	tracker string
}

// Dispatcher runs at most one resubmit batch at a time across every tracker
type Dispatcher struct {
	newProcessor func() *Processor
	queue        *Queue
	log          logger.Logger

	sem        *semaphore.Weighted
	inProgress atomic.Bool

	mu     sync.Mutex
	closed bool
	jobs   chan job
	done   chan struct{}
}

// NewDispatcher starts the background worker; backlog <= 0 means DefaultBacklog
func NewDispatcher(newProcessor func() *Processor, q *Queue, backlog int, log logger.Logger) *Dispatcher {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	d := &Dispatcher{
		newProcessor: newProcessor,
		queue:        q,
		log:          log,
		sem:          semaphore.NewWeighted(1),
		jobs:         make(chan job, backlog),
		done:         make(chan struct{}),
	}
	go d.work()
	return d
}

func (d *Dispatcher) work() {
	defer close(d.done)
	for j := range d.jobs {
		log := d.log.With().Str("batch_id", j.id).Str("tracker", j.tracker).Logger()
		if _, err := d.Resubmit(context.Background(), j.tracker); err != nil {
			log.Error().Err(err).Msg("resubmit batch failed")
			continue
		}
		log.Debug().Msg("resubmit batch done")
	}
}

// Resubmit runs a batch for tracker and persists its outcome, waiting for a running batch first
// ctx bounds only the wait; a started batch runs to completion
// A panicking batch is returned as a Panic error and leaves the queue as it was
func (d *Dispatcher) Resubmit(ctx context.Context, tracker string) (res domain.Result, err error) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return domain.Result{IssueTracker: tracker}, perr.Wrap(err, perr.ErrorCodeUnavailable, "waiting for running resubmit batch")
	}
	defer d.sem.Release(1)

	d.inProgress.Store(true)
	defer d.inProgress.Store(false)

	defer func() {
		if v := recover(); v != nil {
			d.log.Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Str("tracker", tracker).
				Msg("resubmit batch panicked")
			res, err = domain.Result{IssueTracker: tracker}, perr.Newf(perr.ErrorCodePanic, "resubmit batch for %s panicked", tracker)
		}
	}()

	ctx = context.WithoutCancel(ctx)
	res, err = d.newProcessor().Resubmit(ctx, tracker)
	if err != nil {
		return res, err
	}
	if err := d.queue.Sync(ctx, tracker, res.Remove, res.Requeue); err != nil {
		return res, err
	}
	return res, nil
}

// ResubmitAsync schedules a batch for tracker and returns its id at once
// A full backlog is rejected rather than blocking the caller
func (d *Dispatcher) ResubmitAsync(tracker string) (string, error) {
	if tracker == "" {
		return "", perr.WithField(perr.InvalidArgf("issue tracker is required"), "issue_tracker")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return "", perr.Unavailablef("resubmit dispatcher is shut down")
	}
	j := job{id: uuid.NewString(), tracker: tracker}
	select {
	case d.jobs <- j:
		d.log.Info().Str("batch_id", j.id).Str("tracker", tracker).Msg("resubmit batch accepted")
		return j.id, nil
	default:
		return "", perr.Newf(perr.ErrorCodeTooManyRequests, "resubmit backlog full (%d batches waiting)", cap(d.jobs))
	}
}

// IsInProgress reports whether a batch is running; callers poll it for display only
func (d *Dispatcher) IsInProgress() bool { return d.inProgress.Load() }

// Close stops accepting batches and waits for the accepted ones to finish
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()
	<-d.done
	return nil
}
