package model

import (
	"encoding/json"
	"time"
)

// IntegrationType identifies the provider that delivered an event.
type IntegrationType string

const (
	IntegrationGitHub IntegrationType = "github"
	IntegrationGitea  IntegrationType = "gitea"
)

// Valid reports whether t is a supported provider.
func (t IntegrationType) Valid() bool {
	return t == IntegrationGitHub || t == IntegrationGitea
}

// EventType is the canonical kind of an integration event.
type EventType string

const (
	EventBranchPush  EventType = "branch_push"
	EventPROpened    EventType = "pr_opened"
	EventPRMerged    EventType = "pr_merged"
	EventIssueOpened EventType = "issue_opened"
	EventIssueClosed EventType = "issue_closed"
)

// EventTypes lists every canonical event type.
var EventTypes = []EventType{
	EventBranchPush, EventPROpened, EventPRMerged, EventIssueOpened, EventIssueClosed,
}

// Valid reports whether e is one of the canonical event types.
func (e EventType) Valid() bool {
	for _, known := range EventTypes {
		if e == known {
			return true
		}
	}
	return false
}

// WorkflowRule moves tasks of a project into ColumnID when an event of
// EventType arrives from IntegrationType. At most one rule exists per
// (ProjectID, IntegrationType, EventType).
type WorkflowRule struct {
	ID              string          `json:"id" db:"id"`
	ProjectID       string          `json:"projectId" db:"project_id"`
	IntegrationType IntegrationType `json:"integrationType" db:"integration_type"`
	EventType       EventType       `json:"eventType" db:"event_type"`
	ColumnID        string          `json:"columnId" db:"column_id"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// Issue is the subset of an issue payload the service consumes.
type Issue struct {
	Number  int      `json:"number"`
	Title   string   `json:"title"`
	Body    *string  `json:"body"`
	HTMLURL string   `json:"html_url"`
	Author  string   `json:"author"`
	Labels  []string `json:"labels"`
}

// Ref carries the branch and pull request text of push and PR events,
// which is where task cross-references live.
type Ref struct {
	Branch string `json:"branch"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// IntegrationEvent is a webhook delivery normalized to a provider-neutral
// shape. It is built once per delivery and never persisted.
type IntegrationEvent struct {
	IntegrationType    IntegrationType `json:"integrationType"`
	EventType          EventType       `json:"eventType"`
	ProjectID          string          `json:"projectId"`
	ExternalResourceID string          `json:"externalResourceId"`
	Repository         string          `json:"repository"`
	Labels             []string        `json:"labels"`

	// Issue is set for issue events.
	Issue *Issue `json:"issue,omitempty"`

	// Ref is set for pull request and push events.
	Ref *Ref `json:"ref,omitempty"`

	RawPayload json.RawMessage `json:"rawPayload,omitempty"`
}
