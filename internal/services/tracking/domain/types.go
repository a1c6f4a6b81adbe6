// Package domain holds the tracking types and the ports concrete issue trackers implement
package domain

import "time"

// ObjectType names the kind of referencing object
type ObjectType string

const (
	// Changeset is a commit
	Changeset ObjectType = "changeset"
	// PullRequest is a pull request
	PullRequest ObjectType = "pull-request"
	// Comment is a review or pull request comment
	Comment ObjectType = "comment"
)

// Repository is a source repository trackers are attached to
type Repository struct {
	ID        string `json:"id" yaml:"id"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Name      string `json:"name" yaml:"name"`
}

// FullName is namespace/name
func (r Repository) FullName() string { return r.Namespace + "/" + r.Name }

// Person is an author or contributor
type Person struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Mail        string `json:"mail,omitempty"`
}

// Content is one labelled block of text, e.g. a commit description
type Content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ReferencingObject is an event whose text may mention issue keys
// (Type, ID) identifies it for idempotency within one tracker
type ReferencingObject struct {
	Repository          Repository          `json:"repository"`
	Type                ObjectType          `json:"type"`
	ID                  string              `json:"id"`
	Author              Person              `json:"author"`
	Contributors        map[string][]Person `json:"contributors,omitempty"`
	Date                time.Time           `json:"date"`
	Content             []Content           `json:"content"`
	Link                string              `json:"link,omitempty"`
	TriggersStateChange bool                `json:"triggers_state_change"`

	// Origin is the host event; passed through to renderers untouched
	Origin any `json:"-"`
}

// Texts returns the content values in order
func (o ReferencingObject) Texts() []string {
	out := make([]string, len(o.Content))
	for i, c := range o.Content {
		out[i] = c.Value
	}
	return out
}

// ContentMap indexes content values by type; later blocks win
func (o ReferencingObject) ContentMap() map[string]string {
	out := make(map[string]string, len(o.Content))
	for _, c := range o.Content {
		out[c.Type] = c.Value
	}
	return out
}

// Mark records that an action for an object, and optionally a keyword, already happened
type Mark struct {
	Type    ObjectType `json:"type"`
	ID      string     `json:"id"`
	Keyword string     `json:"keyword,omitempty"`
}

// MarkOf returns the plain comment mark of o
func MarkOf(o ReferencingObject) Mark { return Mark{Type: o.Type, ID: o.ID} }

// Marks is the persisted record of one issue key
type Marks struct {
	Marks []Mark `json:"marks"`
}

// Has reports membership
func (m Marks) Has(x Mark) bool {
	for _, y := range m.Marks {
		if y == x {
			return true
		}
	}
	return false
}

// AuditKind classifies delivery audit events
type AuditKind string

const (
	AuditComment     AuditKind = "comment"
	AuditStateChange AuditKind = "state_change"
	AuditQueued      AuditKind = "queued"
	AuditResubmitted AuditKind = "resubmitted"
	AuditDropped     AuditKind = "dropped"
	AuditFailed      AuditKind = "failed"
)

// AuditEvent is one delivery outcome
type AuditEvent struct {
	At           time.Time
	Kind         AuditKind
	Tracker      string
	RepositoryID string
	IssueKey     string
	ObjectType   ObjectType
	ObjectID     string
	Keyword      string
	Error        string
}

// TrackerSpec is the configuration of one tracker instance as read from the catalog
type TrackerSpec struct {
	Name         string
	Kind         string
	URL          string
	Username     string
	Token        string
	Repositories []string
	KeyPattern   string
	KeyGroup     int
	Comments     bool
	StateChanges StateChangeToggles
	Keywords     map[string]string
	Templates    string
	RatePerSec   float64
	Burst        int
}

// Serves reports whether the tracker is attached to repositoryID
func (s TrackerSpec) Serves(repositoryID string) bool {
	for _, r := range s.Repositories {
		if r == repositoryID || r == "*" {
			return true
		}
	}
	return false
}

// StateChangeToggles switches state changes per object type
type StateChangeToggles struct {
	Commits      bool `yaml:"commits"`
	PullRequests bool `yaml:"pull_requests"`
}

// Active reports whether t may trigger a state change; other types always may
func (s StateChangeToggles) Active(t ObjectType) bool {
	switch t {
	case Changeset:
		return s.Commits
	case PullRequest:
		return s.PullRequests
	}
	return true
}
