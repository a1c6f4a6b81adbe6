// Package domain holds the resubmit queue records and the ports the batch needs
package domain

import "time"

// QueuedComment is a comment whose delivery failed
// Equality ignores Retries and Date
type QueuedComment struct {
	RepositoryID string    `json:"repository_id" example:"repo-1"`
	IssueTracker string    `json:"issue_tracker" example:"jira"`
	IssueKey     string    `json:"issue_key" example:"ABC-42"`
	Comment      string    `json:"comment" example:"Referenced by changeset 9f2c1e0"`
	Retries      int       `json:"retries" example:"0"`
	Date         time.Time `json:"date"`
}

// NewQueuedComment stamps a fresh comment with now
func NewQueuedComment(repositoryID, tracker, issueKey, comment string) QueuedComment {
	return QueuedComment{
		RepositoryID: repositoryID,
		IssueTracker: tracker,
		IssueKey:     issueKey,
		Comment:      comment,
		Date:         time.Now().UTC(),
	}
}

// Equal compares the delivery identity of two comments
func (c QueuedComment) Equal(o QueuedComment) bool {
	return c.RepositoryID == o.RepositoryID &&
		c.IssueTracker == o.IssueTracker &&
		c.IssueKey == o.IssueKey &&
		c.Comment == o.Comment
}

// Retried counts one more failed attempt
func (c *QueuedComment) Retried() { c.Retries++ }

// Contains reports whether set holds a comment equal to c
func Contains(set []QueuedComment, c QueuedComment) bool {
	for _, x := range set {
		if x.Equal(c) {
			return true
		}
	}
	return false
}

// TrackerQueue is the persisted queue of one tracker, oldest first
type TrackerQueue struct {
	Capacity int             `json:"capacity"`
	Comments []QueuedComment `json:"comments"`
}

// Push appends c and evicts from the head until capacity holds; it returns the evicted count
func (q *TrackerQueue) Push(c QueuedComment) int {
	q.Comments = append(q.Comments, c)
	if q.Capacity <= 0 || len(q.Comments) <= q.Capacity {
		return 0
	}
	n := len(q.Comments) - q.Capacity
	q.Comments = append([]QueuedComment(nil), q.Comments[n:]...)
	return n
}

// Configuration is the notification setup of the resubmit queue
type Configuration struct {
	Addresses []string `json:"addresses" validate:"max=50,dive,required,email" example:"ops@example.com"`
}

// QueueStatus is one row of the queue listing
type QueueStatus struct {
	IssueTracker string `json:"issue_tracker" example:"jira"`
	QueueSize    int    `json:"queue_size" example:"3"`
	InProgress   bool   `json:"in_progress" example:"false"`
}

// Result partitions one batch; a comment is never in both sets
type Result struct {
	IssueTracker string          `json:"issue_tracker"`
	Remove       []QueuedComment `json:"remove"`
	Requeue      []QueuedComment `json:"requeue"`
}

// Accepted acknowledges an asynchronous batch
type Accepted struct {
	BatchID      string `json:"batch_id" example:"0b8f3f0e-5c2e-4e0f-9a59-2b1f9f3b9d61"`
	IssueTracker string `json:"issue_tracker" example:"jira"`
}
