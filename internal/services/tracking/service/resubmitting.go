package service

import (
	"context"
	"time"

	"issuebridge/internal/platform/logger"
	"issuebridge/internal/services/tracking/domain"
)

// ResubmittingCommentator queues comments its inner commentator fails to deliver
// A queued comment counts as delivered, so the caller marks it processed
type ResubmittingCommentator struct {
	inner        domain.Commentator
	queue        domain.Enqueuer
	audit        domain.Auditor
	tracker      string
	repositoryID string
	log          logger.Logger
}

var (
	_ domain.Commentator = (*ResubmittingCommentator)(nil)
	_ domain.Resubmitter = (*ResubmittingCommentator)(nil)
)

// NewResubmittingCommentator wraps inner for tracker in repositoryID
func NewResubmittingCommentator(inner domain.Commentator, queue domain.Enqueuer, audit domain.Auditor, tracker, repositoryID string, log logger.Logger) *ResubmittingCommentator {
	if audit == nil {
		audit = nopAuditor{}
	}
	return &ResubmittingCommentator{
		inner:        inner,
		queue:        queue,
		audit:        audit,
		tracker:      tracker,
		repositoryID: repositoryID,
		log:          log,
	}
}

// Comment delivers text or queues it for a later batch
func (c *ResubmittingCommentator) Comment(ctx context.Context, issueKey, text string) error {
	err := c.inner.Comment(ctx, issueKey, text)
	if err == nil {
		return nil
	}
	c.log.Warn().Err(err).
		Str("tracker", c.tracker).
		Str("issue_key", issueKey).
		Msg("comment failed, queued for resubmission")

	if qerr := c.queue.Enqueue(ctx, c.repositoryID, c.tracker, issueKey, text); qerr != nil {
		// nothing kept the comment; let the processor leave the key unmarked
		return qerr
	}
	c.audit.Record(ctx, domain.AuditEvent{
		At:           time.Now().UTC(),
		Kind:         domain.AuditQueued,
		Tracker:      c.tracker,
		RepositoryID: c.repositoryID,
		IssueKey:     issueKey,
		Error:        err.Error(),
	})
	return nil
}

// Resubmit delivers text without queueing on failure
func (c *ResubmittingCommentator) Resubmit(ctx context.Context, issueKey, text string) error {
	return c.inner.Comment(ctx, issueKey, text)
}
