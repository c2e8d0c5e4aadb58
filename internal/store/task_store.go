package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nhle/kaneo-automation/internal/model"
)

const taskColumns = `
	id, project_id, number, title, description, column_id, priority, author,
	integration_type, repository, issue_number, external_url,
	created_at, updated_at`

// CreateTask inserts a task, assigning the next per-project number.
// Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, fmt.Errorf("task title must not be empty")
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if !task.Priority.Valid() {
		task.Priority = model.PriorityMedium
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var maxNumber int
	err = tx.GetContext(ctx, &maxNumber,
		"SELECT COALESCE(MAX(number), 0) FROM tasks WHERE project_id = ?", task.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("getting max task number: %w", err)
	}
	task.Number = maxNumber + 1

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.ProjectID, task.Number, task.Title, task.Description,
		task.ColumnID, task.Priority, task.Author,
		task.IntegrationType, task.Repository, task.IssueNumber, task.ExternalURL,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		if task.IssueNumber > 0 && isUniqueViolation(err) {
			return nil, fmt.Errorf("task for %s issue %s#%d: %w",
				task.IntegrationType, task.Repository, task.IssueNumber, ErrDuplicate)
		}
		return nil, fmt.Errorf("creating task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing task: %w", err)
	}
	return &task, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// GetTaskByID retrieves a single task by its ID.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := s.db.GetContext(ctx, &task,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if err != nil {
		return nil, notFound(err, "task", id)
	}
	return &task, nil
}

// GetTaskByNumber retrieves a task by its per-project number.
func (s *SQLiteStore) GetTaskByNumber(
	ctx context.Context,
	projectID string,
	number int,
) (*model.Task, error) {
	var task model.Task
	err := s.db.GetContext(ctx, &task,
		"SELECT "+taskColumns+" FROM tasks WHERE project_id = ? AND number = ?",
		projectID, number)
	if err != nil {
		return nil, notFound(err, "task", fmt.Sprintf("%s#%d", projectID, number))
	}
	return &task, nil
}

// GetTaskByExternalIssue retrieves the task imported from the given issue.
func (s *SQLiteStore) GetTaskByExternalIssue(
	ctx context.Context,
	projectID string,
	integrationType model.IntegrationType,
	repository string,
	issueNumber int,
) (*model.Task, error) {
	var task model.Task
	err := s.db.GetContext(ctx, &task, `
		SELECT `+taskColumns+` FROM tasks
		WHERE project_id = ? AND integration_type = ? AND repository = ? AND issue_number = ?
		ORDER BY created_at
		LIMIT 1`,
		projectID, string(integrationType), repository, issueNumber)
	if err != nil {
		return nil, notFound(err, "task",
			fmt.Sprintf("%s:%s#%d", integrationType, repository, issueNumber))
	}
	return &task, nil
}

// GetTasks retrieves every task on a project ordered by number.
func (s *SQLiteStore) GetTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	tasks := []model.Task{}
	err := s.db.SelectContext(ctx, &tasks,
		"SELECT "+taskColumns+" FROM tasks WHERE project_id = ? ORDER BY number", projectID)
	if err != nil {
		return nil, fmt.Errorf("querying tasks for project %s: %w", projectID, err)
	}
	return tasks, nil
}

// UpdateTaskColumn moves a task into columnID.
func (s *SQLiteStore) UpdateTaskColumn(ctx context.Context, taskID, columnID string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET column_id = ?, updated_at = ? WHERE id = ?",
		columnID, time.Now().UTC(), taskID)
	if err != nil {
		return fmt.Errorf("moving task %s: %w", taskID, err)
	}
	return requireAffected(result, "task", taskID)
}

// DeleteTask removes a task. CASCADE on task_labels and task_links removes
// its labels and every link touching it.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return requireAffected(result, "task", id)
}
