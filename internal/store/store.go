package store

import (
	"context"
	"errors"

	"github.com/nhle/kaneo-automation/internal/model"
)

var (
	// ErrNotFound is wrapped by lookups that address a single row by key.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRule is returned when a workflow rule names an unknown
	// integration or event type.
	ErrInvalidRule = errors.New("invalid workflow rule")

	// ErrDuplicate is returned when an insert collides with a row that
	// already holds the same natural key, such as a second task for one
	// external issue.
	ErrDuplicate = errors.New("already exists")
)

// Store defines the persistence interface for boards, tasks, workflow
// rules, task links, integrations and notifications.
type Store interface {
	// === Projects ===

	CreateProject(ctx context.Context, name, slug string) (*model.Project, error)
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	GetProjects(ctx context.Context) ([]model.Project, error)
	GetColumns(ctx context.Context, projectID string) ([]model.Column, error)
	GetColumnByID(ctx context.Context, id string) (*model.Column, error)
	GetColumnBySlug(ctx context.Context, projectID, slug string) (*model.Column, error)

	// === Tasks ===

	CreateTask(ctx context.Context, task model.Task) (*model.Task, error)
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetTaskByNumber(ctx context.Context, projectID string, number int) (*model.Task, error)
	GetTaskByExternalIssue(
		ctx context.Context,
		projectID string,
		integrationType model.IntegrationType,
		repository string,
		issueNumber int,
	) (*model.Task, error)
	GetTasks(ctx context.Context, projectID string) ([]model.Task, error)
	UpdateTaskColumn(ctx context.Context, taskID, columnID string) error
	DeleteTask(ctx context.Context, id string) error

	// === Labels ===

	SetTaskLabels(ctx context.Context, taskID string, labels []model.TaskLabel) error
	GetLabelsForTask(ctx context.Context, taskID string) ([]model.TaskLabel, error)

	// === Workflow rules ===

	UpsertWorkflowRule(
		ctx context.Context,
		projectID string,
		integrationType model.IntegrationType,
		eventType model.EventType,
		columnID string,
	) (*model.WorkflowRule, error)
	GetWorkflowRules(ctx context.Context, projectID string) ([]model.WorkflowRule, error)
	FindWorkflowRule(
		ctx context.Context,
		projectID string,
		integrationType model.IntegrationType,
		eventType model.EventType,
	) (*model.WorkflowRule, error)
	DeleteWorkflowRule(ctx context.Context, id string) error

	// === Task links ===

	CreateTaskLink(ctx context.Context, link model.TaskLink) (*model.TaskLink, error)
	GetTaskLink(ctx context.Context, id string) (*model.TaskLink, error)
	DeleteTaskLink(ctx context.Context, id string) error
	GetLinksForTask(ctx context.Context, taskID string) ([]LinkRow, error)

	// === Integrations ===

	CreateIntegration(ctx context.Context, in model.Integration) (*model.Integration, error)
	GetIntegrations(ctx context.Context) ([]model.Integration, error)
	GetIntegrationByRepository(
		ctx context.Context,
		integrationType model.IntegrationType,
		repository string,
	) (*model.Integration, error)
	DeleteIntegration(ctx context.Context, id string) error

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}
