package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nhle/kaneo-automation/internal/model"
)

// SetTaskLabels replaces all labels attached to a task. Labels with an
// empty name are skipped.
func (s *SQLiteStore) SetTaskLabels(
	ctx context.Context,
	taskID string,
	labels []model.TaskLabel,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Remove existing labels.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM task_labels WHERE task_id = ?", taskID); err != nil {
		return fmt.Errorf("clearing task labels: %w", err)
	}

	for _, label := range labels {
		if strings.TrimSpace(label.Name) == "" {
			continue
		}
		if label.ID == "" {
			label.ID = uuid.New().String()
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO task_labels (id, task_id, name, color) VALUES (?, ?, ?, ?)",
			label.ID, taskID, label.Name, label.Color); err != nil {
			return fmt.Errorf("setting label %s on task %s: %w", label.Name, taskID, err)
		}
	}

	return tx.Commit()
}

// GetLabelsForTask retrieves all labels attached to a task, ordered by name.
func (s *SQLiteStore) GetLabelsForTask(
	ctx context.Context,
	taskID string,
) ([]model.TaskLabel, error) {
	labels := []model.TaskLabel{}
	err := s.db.SelectContext(ctx, &labels, `
		SELECT id, task_id, name, color FROM task_labels
		WHERE task_id = ?
		ORDER BY name`, taskID)
	if err != nil {
		return nil, fmt.Errorf("querying labels for task %s: %w", taskID, err)
	}
	return labels, nil
}
