package domain

import (
	"context"

	tracking "issuebridge/internal/services/tracking/domain"
)

// Repositories resolves repositories by id
type Repositories = tracking.Repositories

// Trackers resolves the tracker called name for a repository
type Trackers interface {
	Tracker(ctx context.Context, repo tracking.Repository, name string) (tracking.Tracker, bool, error)
}

// Notifier tells administrators about queue activity; failures stay inside the notifier
type Notifier interface {
	NotifyComment(ctx context.Context, c QueuedComment)
	NotifyResubmit(ctx context.Context, tracker string, removed, requeued int)
}
