package domain

import "time"

// ContentInput is one content block of a reference request
type ContentInput struct {
	Type  string `json:"type" validate:"required,max=64" example:"description"`
	Value string `json:"value" validate:"max=65536" example:"ABC-42 fixed the login redirect"`
}

// PersonInput is an author or contributor of a reference request
type PersonInput struct {
	Name        string `json:"name" validate:"required,max=200" example:"jdoe"`
	DisplayName string `json:"display_name,omitempty" validate:"max=200" example:"Jane Doe"`
	Mail        string `json:"mail,omitempty" validate:"omitempty,email" example:"jane@example.com"`
}

// ReferenceInput is the body of POST /references
type ReferenceInput struct {
	RepositoryID        string                   `json:"repository_id" validate:"required,max=200" example:"repo-1"`
	Type                ObjectType               `json:"type" validate:"required,oneof=changeset pull-request comment" example:"changeset"`
	ID                  string                   `json:"id" validate:"required,max=200" example:"9f2c1e0"`
	Author              PersonInput              `json:"author"`
	Contributors        map[string][]PersonInput `json:"contributors,omitempty" validate:"omitempty,dive,dive"`
	Date                time.Time                `json:"date"`
	Content             []ContentInput           `json:"content" validate:"required,min=1,max=32,dive"`
	Link                string                   `json:"link,omitempty" validate:"omitempty,url" example:"https://scm.example.com/repo-1/commits/9f2c1e0"`
	TriggersStateChange bool                     `json:"triggers_state_change" example:"true"`
}

// Object converts the input for repo
func (in ReferenceInput) Object(repo Repository) ReferencingObject {
	obj := ReferencingObject{
		Repository:          repo,
		Type:                in.Type,
		ID:                  in.ID,
		Author:              in.Author.person(),
		Date:                in.Date,
		Link:                in.Link,
		TriggersStateChange: in.TriggersStateChange,
	}
	if obj.Date.IsZero() {
		obj.Date = time.Now().UTC()
	}
	for _, c := range in.Content {
		obj.Content = append(obj.Content, Content{Type: c.Type, Value: c.Value})
	}
	if len(in.Contributors) > 0 {
		obj.Contributors = make(map[string][]Person, len(in.Contributors))
		for role, ps := range in.Contributors {
			for _, p := range ps {
				obj.Contributors[role] = append(obj.Contributors[role], p.person())
			}
		}
	}
	return obj
}

func (p PersonInput) person() Person {
	return Person{Name: p.Name, DisplayName: p.DisplayName, Mail: p.Mail}
}

// IssueLink is one issue found in an object
type IssueLink struct {
	Key  string `json:"key" example:"ABC-42"`
	Link string `json:"link" example:"https://jira.example.com/browse/ABC-42"`
}

// ReferenceResult is the response of the reference endpoints
type ReferenceResult struct {
	Issues []IssueLink `json:"issues"`
}
