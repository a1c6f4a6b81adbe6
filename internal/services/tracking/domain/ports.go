package domain

import "context"

// Commentator posts a comment on an issue
type Commentator interface {
	Comment(ctx context.Context, issueKey, text string) error
}

// StateChanger moves an issue through its workflow
type StateChanger interface {
	ChangeState(ctx context.Context, issueKey, keyword string) error

	// KeyWords returns the trigger words currently usable for issueKey
	KeyWords(ctx context.Context, issueKey string) ([]string, error)
}

// StateChangeActivation is optionally implemented by a StateChanger to switch object types off
type StateChangeActivation interface {
	StateChangeActive(t ObjectType) bool
}

// Resubmitter redelivers a comment that previously failed
type Resubmitter interface {
	Resubmit(ctx context.Context, issueKey, text string) error
}

// LinkFactory builds the browser link of an issue
type LinkFactory interface {
	CreateLink(issueKey string) string
}

// ReferenceRenderer renders the comment announcing that obj references issueKey
type ReferenceRenderer interface {
	RenderReference(issueKey string, obj ReferencingObject) (string, error)
}

// StateChangeRenderer renders the comment accompanying a transition
type StateChangeRenderer interface {
	RenderStateChange(issueKey, keyword string, obj ReferencingObject) (string, error)
}

// Tracker is one configured issue tracker serving one repository
type Tracker interface {
	Name() string
	Process(ctx context.Context, obj ReferencingObject)
	FindIssues(obj ReferencingObject) map[string]string

	// Resubmitter returns the redelivery capability, when the tracker has one
	Resubmitter() (Resubmitter, bool)
}

// Provider yields the tracker instance for a repository, if it serves it
type Provider interface {
	Name() string
	Tracker(ctx context.Context, repo Repository) (Tracker, bool, error)
}

// Repositories resolves repositories by id
type Repositories interface {
	Repository(ctx context.Context, id string) (Repository, bool, error)
}

// Enqueuer accepts a comment whose delivery failed
type Enqueuer interface {
	Enqueue(ctx context.Context, repositoryID, tracker, issueKey, comment string) error
}

// Auditor records delivery outcomes; implementations must not block for long
type Auditor interface {
	Record(ctx context.Context, ev AuditEvent)
}
