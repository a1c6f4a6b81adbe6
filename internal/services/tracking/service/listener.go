package service

import (
	"context"

	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/platform/logger"
	"issuebridge/internal/platform/store/kv"
)

// RepositoryListener purges tracker state when a repository is deleted
type RepositoryListener struct {
	backend kv.Backend
	factory *Factory
	log     logger.Logger
}

// NewRepositoryListener returns a listener over backend; factory may be nil
func NewRepositoryListener(b kv.Backend, f *Factory, log logger.Logger) *RepositoryListener {
	return &RepositoryListener{backend: b, factory: f, log: log}
}

// RepositoryDeleted removes every mark stored for repositoryID
func (l *RepositoryListener) RepositoryDeleted(ctx context.Context, repositoryID string) error {
	if repositoryID == "" {
		return perr.WithField(perr.InvalidArgf("repository id is required"), "id")
	}
	if err := l.backend.DropRepository(ctx, repositoryID); err != nil {
		return perr.WithOp(err, "drop_repository")
	}
	if l.factory != nil {
		l.factory.Forget(repositoryID)
	}
	l.log.Info().Str("repository", repositoryID).Msg("tracker state purged")
	return nil
}
