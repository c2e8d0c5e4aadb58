package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/kaneo-automation/internal/crossref"
	"github.com/nhle/kaneo-automation/internal/integration"
	"github.com/nhle/kaneo-automation/internal/labels"
	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/store"
)

// TaskStore is the persistence the engine reads and imports through.
type TaskStore interface {
	RuleLookup

	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	GetColumnByID(ctx context.Context, id string) (*model.Column, error)
	GetColumnBySlug(ctx context.Context, projectID, slug string) (*model.Column, error)
	GetColumns(ctx context.Context, projectID string) ([]model.Column, error)

	CreateTask(ctx context.Context, task model.Task) (*model.Task, error)
	GetTaskByNumber(ctx context.Context, projectID string, number int) (*model.Task, error)
	GetTaskByExternalIssue(
		ctx context.Context,
		projectID string,
		integrationType model.IntegrationType,
		repository string,
		issueNumber int,
	) (*model.Task, error)
	SetTaskLabels(ctx context.Context, taskID string, labels []model.TaskLabel) error

	CreateNotification(ctx context.Context, n model.Notification) error
}

// TaskMutator applies a transition to a task's persisted column.
type TaskMutator interface {
	UpdateTaskColumn(ctx context.Context, taskID, columnID string) error
}

// Result summarises what one delivery did.
type Result struct {
	EventType   model.EventType    `json:"eventType"`
	Imported    *model.Task        `json:"imported,omitempty"`
	Decisions   []Decision         `json:"decisions"`
	Transitions []ColumnTransition `json:"transitions"`
}

// Moved reports whether any task changed column.
func (r Result) Moved() bool {
	return len(r.Transitions) > 0
}

// Engine processes normalized events end to end: it resolves the affected
// tasks, evaluates rules and applies the resulting transitions.
type Engine struct {
	store     TaskStore
	mutator   TaskMutator
	evaluator *Evaluator
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewEngine creates an Engine. A nil publisher discards board events.
func NewEngine(
	s TaskStore,
	mutator TaskMutator,
	publisher Publisher,
	logger *zap.Logger,
) *Engine {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Engine{
		store:     s,
		mutator:   mutator,
		evaluator: NewEvaluator(s),
		publisher: publisher,
		logger:    logger.Named("workflow"),
		now:       time.Now,
	}
}

// Process handles one normalized event. Delivering the same event twice
// yields the same transitions.
func (e *Engine) Process(ctx context.Context, event model.IntegrationEvent) (Result, error) {
	result := Result{
		EventType:   event.EventType,
		Decisions:   []Decision{},
		Transitions: []ColumnTransition{},
	}
	log := e.logger.With(
		zap.String("project_id", event.ProjectID),
		zap.String("integration", string(event.IntegrationType)),
		zap.String("event", string(event.EventType)),
		zap.String("resource", event.ExternalResourceID),
	)

	tasks, imported, err := e.resolveTasks(ctx, event)
	if err != nil {
		return result, err
	}
	result.Imported = imported
	if len(tasks) == 0 {
		log.Debug("no task affected")
		return result, nil
	}

	for _, task := range tasks {
		decision, err := e.evaluator.Evaluate(ctx, event, task)
		if err != nil {
			return result, fmt.Errorf("evaluating rules for task %s: %w", task.ID, err)
		}
		result.Decisions = append(result.Decisions, decision)
		if decision.Action != Move {
			continue
		}
		if err := e.apply(ctx, event, task, *decision.Transition); err != nil {
			return result, err
		}
		result.Transitions = append(result.Transitions, *decision.Transition)
		log.Info("task moved",
			zap.String("task_id", task.ID),
			zap.String("column_id", decision.Transition.TargetColumnID),
			zap.String("rule_id", decision.Transition.RuleID),
		)
	}

	return result, nil
}

// resolveTasks finds the tasks an event refers to. For issue_opened the
// issue is imported first when no task mirrors it yet.
func (e *Engine) resolveTasks(
	ctx context.Context,
	event model.IntegrationEvent,
) ([]model.Task, *model.Task, error) {
	switch event.EventType {
	case model.EventIssueOpened:
		task, imported, err := e.importIssue(ctx, event)
		if err != nil {
			return nil, nil, err
		}
		var created *model.Task
		if imported {
			created = task
		}
		return []model.Task{*task}, created, nil

	case model.EventIssueClosed:
		number, err := strconv.Atoi(event.ExternalResourceID)
		if err != nil {
			return nil, nil, fmt.Errorf("issue number %q: %w", event.ExternalResourceID, err)
		}
		task, err := e.store.GetTaskByExternalIssue(ctx,
			event.ProjectID, event.IntegrationType, event.Repository, number)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, nil
		}
		if err != nil {
			return nil, nil, err
		}
		return []model.Task{*task}, nil, nil

	case model.EventPROpened, model.EventPRMerged, model.EventBranchPush:
		tasks, err := e.referencedTasks(ctx, event)
		return tasks, nil, err

	default:
		return nil, nil, &integration.UnsupportedEventKindError{
			IntegrationType: event.IntegrationType,
			Event:           string(event.EventType),
		}
	}
}

// importIssue returns the task mirroring the event's issue, creating it
// when absent. The bool reports whether a task was created.
func (e *Engine) importIssue(
	ctx context.Context,
	event model.IntegrationEvent,
) (*model.Task, bool, error) {
	issue := event.Issue
	if issue == nil {
		return nil, false, fmt.Errorf("issue_opened event without issue")
	}

	existing, err := e.store.GetTaskByExternalIssue(ctx,
		event.ProjectID, event.IntegrationType, event.Repository, issue.Number)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	class := labels.Classify(event.Labels)
	columnID, err := e.initialColumn(ctx, event.ProjectID, class.Status)
	if err != nil {
		return nil, false, err
	}

	task, err := e.store.CreateTask(ctx, model.Task{
		ProjectID:       event.ProjectID,
		Title:           issue.Title,
		Description:     integration.FormatTaskDescription(*issue),
		ColumnID:        columnID,
		Priority:        class.Priority,
		Author:          issue.Author,
		IntegrationType: string(event.IntegrationType),
		Repository:      event.Repository,
		IssueNumber:     issue.Number,
		ExternalURL:     issue.HTMLURL,
	})
	if errors.Is(err, store.ErrDuplicate) {
		// Another delivery imported the issue between lookup and insert.
		existing, err := e.store.GetTaskByExternalIssue(ctx,
			event.ProjectID, event.IntegrationType, event.Repository, issue.Number)
		if err != nil {
			return nil, false, fmt.Errorf("loading concurrently imported issue %d: %w", issue.Number, err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("importing issue %d: %w", issue.Number, err)
	}

	taskLabels := make([]model.TaskLabel, 0, len(event.Labels))
	for _, name := range event.Labels {
		taskLabels = append(taskLabels, model.TaskLabel{Name: name, Color: labels.Color(name)})
	}
	if err := e.store.SetTaskLabels(ctx, task.ID, taskLabels); err != nil {
		return nil, false, fmt.Errorf("labelling task %s: %w", task.ID, err)
	}
	task.Labels = taskLabels

	e.publisher.Publish(BoardEvent{
		Type:      EventTaskImported,
		ProjectID: task.ProjectID,
		TaskID:    task.ID,
		Title:     task.Title,
		ColumnID:  task.ColumnID,
		At:        e.now().UTC(),
	})
	e.logger.Info("issue imported",
		zap.String("task_id", task.ID),
		zap.Int("issue", issue.Number),
		zap.String("priority", string(task.Priority)),
	)
	return task, true, nil
}

// initialColumn picks the column matching status, falling back to the
// project's first column when the board has no such lane.
func (e *Engine) initialColumn(ctx context.Context, projectID string, status model.Status) (string, error) {
	column, err := e.store.GetColumnBySlug(ctx, projectID, string(status))
	if err == nil {
		return column.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	columns, err := e.store.GetColumns(ctx, projectID)
	if err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("project %s has no columns", projectID)
	}
	return columns[0].ID, nil
}

// referencedTasks resolves the tasks a pull request or push mentions.
// "#n" matches an imported issue first and a task number second;
// "<slug>-n" matches a task number.
func (e *Engine) referencedTasks(ctx context.Context, event model.IntegrationEvent) ([]model.Task, error) {
	if event.Ref == nil {
		return nil, nil
	}

	project, err := e.store.GetProjectByID(ctx, event.ProjectID)
	if err != nil {
		return nil, err
	}
	refs := crossref.MatchRefs(event.Ref.Branch, event.Ref.Title, event.Ref.Body, project.Slug)

	var tasks []model.Task
	seen := make(map[string]bool)
	add := func(task *model.Task) {
		if task != nil && !seen[task.ID] {
			seen[task.ID] = true
			tasks = append(tasks, *task)
		}
	}

	for _, n := range refs.IssueNumbers {
		task, err := e.store.GetTaskByExternalIssue(ctx,
			event.ProjectID, event.IntegrationType, event.Repository, n)
		if errors.Is(err, store.ErrNotFound) {
			task, err = e.store.GetTaskByNumber(ctx, event.ProjectID, n)
		}
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		add(task)
	}
	for _, n := range refs.TaskNumbers {
		task, err := e.store.GetTaskByNumber(ctx, event.ProjectID, n)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		add(task)
	}
	return tasks, nil
}

// apply writes one transition, records it and announces it. The column
// write happens exactly once and is not retried.
func (e *Engine) apply(
	ctx context.Context,
	event model.IntegrationEvent,
	task model.Task,
	t ColumnTransition,
) error {
	if err := e.mutator.UpdateTaskColumn(ctx, t.TaskID, t.TargetColumnID); err != nil {
		return fmt.Errorf("moving task %s to column %s: %w", t.TaskID, t.TargetColumnID, err)
	}

	columnName := t.TargetColumnID
	if column, err := e.store.GetColumnByID(ctx, t.TargetColumnID); err == nil {
		columnName = column.Name
	}
	message := fmt.Sprintf("%q moved to %s by %s %s",
		task.Title, columnName, event.IntegrationType, event.EventType)
	if err := e.store.CreateNotification(ctx, model.Notification{
		TaskID:  task.ID,
		Message: message,
	}); err != nil {
		// A failed notification never fails an applied move.
		e.logger.Warn("recording notification", zap.String("task_id", task.ID), zap.Error(err))
	}

	e.publisher.Publish(BoardEvent{
		Type:      EventTaskMoved,
		ProjectID: task.ProjectID,
		TaskID:    task.ID,
		Title:     task.Title,
		ColumnID:  t.TargetColumnID,
		RuleID:    t.RuleID,
		At:        e.now().UTC(),
	})
	return nil
}
