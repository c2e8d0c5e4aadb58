package model

import "time"

// Priority is the normalized urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every valid priority, lowest first.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// Status is a board lane. Column slugs and statuses are interchangeable.
type Status string

const (
	StatusToDo       Status = "to-do"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
	StatusPlanned    Status = "planned"
	StatusArchived   Status = "archived"
)

// Statuses lists every valid status in default board order.
var Statuses = []Status{StatusToDo, StatusInProgress, StatusDone, StatusPlanned, StatusArchived}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Task is a card on a project board.
type Task struct {
	// ID is the internal unique identifier for this task.
	ID string `json:"id" db:"id"`

	// ProjectID is the board this task belongs to.
	ProjectID string `json:"project_id" db:"project_id"`

	// Number is the per-project sequence number shown as <slug>-<number>.
	Number int `json:"number" db:"number"`

	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`

	// ColumnID is the board lane the task currently sits in. It is the only
	// field automation ever writes.
	ColumnID string `json:"column_id" db:"column_id"`

	Priority Priority `json:"priority" db:"priority"`
	Author   string   `json:"author" db:"author"`

	// IntegrationType, Repository and IssueNumber identify the external
	// issue a task was imported from. They are empty for local tasks.
	IntegrationType string `json:"integration_type,omitempty" db:"integration_type"`
	Repository      string `json:"repository,omitempty" db:"repository"`
	IssueNumber     int    `json:"issue_number,omitempty" db:"issue_number"`
	ExternalURL     string `json:"external_url,omitempty" db:"external_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Labels is populated by queries that join with task_labels.
	Labels []TaskLabel `json:"labels,omitempty" db:"-"`
}

// IsImported reports whether the task mirrors an external issue.
func (t Task) IsImported() bool {
	return t.IntegrationType != "" && t.IssueNumber > 0
}

// TaskLabel is a label attached to a task, usually copied from an issue.
type TaskLabel struct {
	ID     string `json:"id" db:"id"`
	TaskID string `json:"task_id" db:"task_id"`
	Name   string `json:"name" db:"name"`
	Color  string `json:"color" db:"color"`
}
