package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/kaneo-automation/internal/model"
)

// LinkRow is a stored link together with the titles of both endpoints.
type LinkRow struct {
	model.TaskLink
	FromTitle string `db:"from_title"`
	ToTitle   string `db:"to_title"`
}

// CreateTaskLink inserts a directed link between two tasks.
func (s *SQLiteStore) CreateTaskLink(
	ctx context.Context,
	link model.TaskLink,
) (*model.TaskLink, error) {
	if link.ID == "" {
		link.ID = uuid.New().String()
	}
	link.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_links (id, from_task_id, to_task_id, type, created_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?)`,
		link.ID, link.FromTaskID, link.ToTaskID, string(link.Type),
		link.CreatedAt, link.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating link: %w", err)
	}
	return &link, nil
}

// GetTaskLink retrieves a single link by ID.
func (s *SQLiteStore) GetTaskLink(ctx context.Context, id string) (*model.TaskLink, error) {
	var link model.TaskLink
	err := s.db.GetContext(ctx, &link, `
		SELECT id, from_task_id, to_task_id, type, created_at, created_by
		FROM task_links WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "link", id)
	}
	return &link, nil
}

// DeleteTaskLink removes a link by ID. The linked tasks are untouched.
func (s *SQLiteStore) DeleteTaskLink(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM task_links WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting link %s: %w", id, err)
	}
	return requireAffected(result, "link", id)
}

// GetLinksForTask retrieves every link in which the task is either
// endpoint, with both endpoint titles.
func (s *SQLiteStore) GetLinksForTask(
	ctx context.Context,
	taskID string,
) ([]LinkRow, error) {
	links := []LinkRow{}
	err := s.db.SelectContext(ctx, &links, `
		SELECT l.id, l.from_task_id, l.to_task_id, l.type, l.created_at, l.created_by,
			COALESCE(f.title, '') AS from_title,
			COALESCE(t.title, '') AS to_title
		FROM task_links l
		LEFT JOIN tasks f ON l.from_task_id = f.id
		LEFT JOIN tasks t ON l.to_task_id = t.id
		WHERE l.from_task_id = ? OR l.to_task_id = ?
		ORDER BY l.created_at`, taskID, taskID)
	if err != nil {
		return nil, fmt.Errorf("querying links for task %s: %w", taskID, err)
	}
	return links, nil
}
