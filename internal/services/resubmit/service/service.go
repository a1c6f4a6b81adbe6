package service

import (
	"context"
	"sort"

	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/platform/logger"
	"issuebridge/internal/services/resubmit/domain"
)

// Service is what the http layer, the scheduler and the admin cli call
type Service struct {
	queue      *Queue
	dispatcher *Dispatcher
	config     *ConfigStore
	log        logger.Logger
}

// New returns the resubmit service
func New(q *Queue, d *Dispatcher, c *ConfigStore, log logger.Logger) *Service {
	return &Service{queue: q, dispatcher: d, config: c, log: log}
}

// Status lists every tracker queue; InProgress is the global batch flag
func (s *Service) Status(ctx context.Context) ([]domain.QueueStatus, error) {
	all, err := s.queue.All(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	running := s.dispatcher.IsInProgress()
	out := make([]domain.QueueStatus, 0, len(names))
	for _, name := range names {
		out = append(out, domain.QueueStatus{
			IssueTracker: name,
			QueueSize:    len(all[name]),
			InProgress:   running,
		})
	}
	return out, nil
}

// Comments returns tracker's queued comments, oldest first
func (s *Service) Comments(ctx context.Context, tracker string) ([]domain.QueuedComment, error) {
	if tracker == "" {
		return nil, perr.WithField(perr.InvalidArgf("issue tracker is required"), "issue_tracker")
	}
	out, err := s.queue.Comments(ctx, tracker)
	if out == nil && err == nil {
		out = []domain.QueuedComment{}
	}
	return out, err
}

// ResubmitAsync accepts a batch for tracker
func (s *Service) ResubmitAsync(tracker string) (domain.Accepted, error) {
	id, err := s.dispatcher.ResubmitAsync(tracker)
	if err != nil {
		return domain.Accepted{}, err
	}
	return domain.Accepted{BatchID: id, IssueTracker: tracker}, nil
}

// Resubmit runs a batch for tracker in the caller's goroutine
func (s *Service) Resubmit(ctx context.Context, tracker string) (domain.Result, error) {
	if tracker == "" {
		return domain.Result{}, perr.WithField(perr.InvalidArgf("issue tracker is required"), "issue_tracker")
	}
	return s.dispatcher.Resubmit(ctx, tracker)
}

// Clear empties tracker's queue
func (s *Service) Clear(ctx context.Context, tracker string) error {
	if tracker == "" {
		return perr.WithField(perr.InvalidArgf("issue tracker is required"), "issue_tracker")
	}
	if err := s.queue.Clear(ctx, tracker); err != nil {
		return err
	}
	s.log.Info().Str("tracker", tracker).Msg("resubmit queue cleared")
	return nil
}

// Config returns the notification configuration
func (s *Service) Config(ctx context.Context) (domain.Configuration, error) { return s.config.Get(ctx) }

// SetConfig saves the notification configuration
func (s *Service) SetConfig(ctx context.Context, cfg domain.Configuration) error {
	return s.config.Set(ctx, cfg)
}

// Close stops the dispatcher after its accepted batches
func (s *Service) Close() error { return s.dispatcher.Close() }
