package service

import (
	"context"
	"time"

	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/platform/logger"
	"issuebridge/internal/services/resubmit/domain"
	tracking "issuebridge/internal/services/tracking/domain"
)

// Processor runs one reconciliation batch for a tracker name
type Processor struct {
	queue    *Queue
	repos    domain.Repositories
	trackers domain.Trackers
	audit    tracking.Auditor
	log      logger.Logger
}

// NewProcessor returns a batch processor; a nil auditor records nothing
func NewProcessor(q *Queue, repos domain.Repositories, trackers domain.Trackers, audit tracking.Auditor, log logger.Logger) *Processor {
	if audit == nil {
		audit = nopAuditor{}
	}
	return &Processor{queue: q, repos: repos, trackers: trackers, audit: audit, log: log}
}

type group struct {
	repositoryID string
	comments     []domain.QueuedComment
}

// Resubmit redelivers every queued comment of tracker and partitions the outcome
//   - repository gone: remove
//   - tracker or its resubmitter missing: requeue
//   - delivery ok: remove, delivery failed: requeue
func (p *Processor) Resubmit(ctx context.Context, tracker string) (domain.Result, error) {
	res := domain.Result{IssueTracker: tracker}
	comments, err := p.queue.Comments(ctx, tracker)
	if err != nil {
		return res, err
	}
	for _, g := range groupByRepository(comments) {
		p.resubmitGroup(ctx, tracker, g, &res)
	}
	p.log.Info().
		Str("tracker", tracker).
		Int("remove", len(res.Remove)).
		Int("requeue", len(res.Requeue)).
		Msg("resubmit batch finished")
	return res, nil
}

func (p *Processor) resubmitGroup(ctx context.Context, tracker string, g group, res *domain.Result) {
	log := p.log.With().Str("tracker", tracker).Str("repository", g.repositoryID).Logger()

	repo, ok, err := p.repos.Repository(ctx, g.repositoryID)
	if err != nil {
		log.Warn().Err(err).Msg("repository lookup failed, requeue")
		res.Requeue = append(res.Requeue, g.comments...)
		return
	}
	if !ok {
		log.Info().Int("comments", len(g.comments)).Msg("repository no longer exists, dropping comments")
		for _, c := range g.comments {
			p.record(ctx, tracking.AuditDropped, c, "repository not found")
		}
		res.Remove = append(res.Remove, g.comments...)
		return
	}

	t, ok, err := p.trackers.Tracker(ctx, repo, tracker)
	if err != nil || !ok {
		log.Warn().Err(err).Msg("tracker not configured for repository, requeue")
		res.Requeue = append(res.Requeue, g.comments...)
		return
	}
	rs, ok := t.Resubmitter()
	if !ok {
		log.Warn().Msg("tracker cannot resubmit, requeue")
		res.Requeue = append(res.Requeue, g.comments...)
		return
	}

	for _, c := range g.comments {
		if err := deliver(ctx, rs, c); err != nil {
			log.Warn().Err(err).Str("issue_key", c.IssueKey).Int("retries", c.Retries).Msg("resubmit failed, requeue")
			p.record(ctx, tracking.AuditFailed, c, err.Error())
			res.Requeue = append(res.Requeue, c)
			continue
		}
		p.record(ctx, tracking.AuditResubmitted, c, "")
		res.Remove = append(res.Remove, c)
	}
}

// deliver turns a panicking resubmitter into a failed delivery
func deliver(ctx context.Context, rs tracking.Resubmitter, c domain.QueuedComment) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = perr.Newf(perr.ErrorCodePanic, "resubmit of %s panicked: %v", c.IssueKey, v)
		}
	}()
	return rs.Resubmit(ctx, c.IssueKey, c.Comment)
}

func (p *Processor) record(ctx context.Context, kind tracking.AuditKind, c domain.QueuedComment, msg string) {
	p.audit.Record(ctx, tracking.AuditEvent{
		At:           time.Now().UTC(),
		Kind:         kind,
		Tracker:      c.IssueTracker,
		RepositoryID: c.RepositoryID,
		IssueKey:     c.IssueKey,
		Error:        msg,
	})
}

// groupByRepository keeps first appearance order and collapses equal comments
func groupByRepository(comments []domain.QueuedComment) []group {
	idx := map[string]int{}
	var out []group
	for _, c := range comments {
		i, ok := idx[c.RepositoryID]
		if !ok {
			i = len(out)
			idx[c.RepositoryID] = i
			out = append(out, group{repositoryID: c.RepositoryID})
		}
		if domain.Contains(out[i].comments, c) {
			continue
		}
		out[i].comments = append(out[i].comments, c)
	}
	return out
}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, tracking.AuditEvent) {}
