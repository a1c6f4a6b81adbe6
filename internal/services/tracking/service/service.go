package service

import (
	"context"

	perr "issuebridge/internal/platform/errors"
	"issuebridge/internal/platform/logger"
	"issuebridge/internal/services/tracking/domain"
)

// Service is the entry point the http layer and the host hooks call
type Service struct {
	repos     domain.Repositories
	composite *Composite
	listener  *RepositoryListener
	log       logger.Logger
}

// New returns the tracking service
func New(repos domain.Repositories, f *Factory, l *RepositoryListener, log logger.Logger) *Service {
	return &Service{repos: repos, composite: NewComposite(f), listener: l, log: log}
}

func (s *Service) object(ctx context.Context, in domain.ReferenceInput) (domain.ReferencingObject, error) {
	repo, ok, err := s.repos.Repository(ctx, in.RepositoryID)
	if err != nil {
		return domain.ReferencingObject{}, err
	}
	if !ok {
		return domain.ReferencingObject{}, perr.WithField(perr.NotFoundf("repository %q not found", in.RepositoryID), "repository_id")
	}
	return in.Object(repo), nil
}

// Reference processes the object on every tracker and returns the issues found
func (s *Service) Reference(ctx context.Context, in domain.ReferenceInput) (domain.ReferenceResult, error) {
	obj, err := s.object(ctx, in)
	if err != nil {
		return domain.ReferenceResult{}, err
	}
	s.composite.Process(ctx, obj)
	return domain.ReferenceResult{Issues: s.composite.FindIssues(ctx, obj)}, nil
}

// Issues returns the issues the object references without side effects
func (s *Service) Issues(ctx context.Context, in domain.ReferenceInput) (domain.ReferenceResult, error) {
	obj, err := s.object(ctx, in)
	if err != nil {
		return domain.ReferenceResult{}, err
	}
	return domain.ReferenceResult{Issues: s.composite.FindIssues(ctx, obj)}, nil
}

// RepositoryDeleted purges the repository's marks
func (s *Service) RepositoryDeleted(ctx context.Context, repositoryID string) error {
	return s.listener.RepositoryDeleted(ctx, repositoryID)
}
