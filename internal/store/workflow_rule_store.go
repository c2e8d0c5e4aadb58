package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/kaneo-automation/internal/model"
)

const ruleColumns = `id, project_id, integration_type, event_type, column_id, created_at, updated_at`

func validateRuleKey(integrationType model.IntegrationType, eventType model.EventType) error {
	if !integrationType.Valid() {
		return fmt.Errorf("%w: unknown integration type %q", ErrInvalidRule, integrationType)
	}
	if !eventType.Valid() {
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidRule, eventType)
	}
	return nil
}

// UpsertWorkflowRule creates the rule for (projectID, integrationType,
// eventType) or retargets the existing one to columnID. The unique index on
// the key triple makes the statement atomic, so concurrent upserts on the
// same key leave exactly one row holding the last written column. The
// returned rule is the row as this call wrote it.
func (s *SQLiteStore) UpsertWorkflowRule(
	ctx context.Context,
	projectID string,
	integrationType model.IntegrationType,
	eventType model.EventType,
	columnID string,
) (*model.WorkflowRule, error) {
	if err := validateRuleKey(integrationType, eventType); err != nil {
		return nil, err
	}
	if projectID == "" || columnID == "" {
		return nil, fmt.Errorf("%w: project and column are required", ErrInvalidRule)
	}

	now := time.Now().UTC()
	var rule model.WorkflowRule
	err := s.db.GetContext(ctx, &rule, `
		INSERT INTO workflow_rules (`+ruleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, integration_type, event_type) DO UPDATE SET
			column_id = excluded.column_id,
			updated_at = excluded.updated_at
		RETURNING `+ruleColumns,
		uuid.New().String(), projectID, string(integrationType), string(eventType),
		columnID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting workflow rule: %w", err)
	}
	return &rule, nil
}

// GetWorkflowRules retrieves every rule of a project, ordered by
// integration and event type.
func (s *SQLiteStore) GetWorkflowRules(
	ctx context.Context,
	projectID string,
) ([]model.WorkflowRule, error) {
	rules := []model.WorkflowRule{}
	err := s.db.SelectContext(ctx, &rules, `
		SELECT `+ruleColumns+` FROM workflow_rules
		WHERE project_id = ?
		ORDER BY integration_type, event_type`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying workflow rules for project %s: %w", projectID, err)
	}
	return rules, nil
}

// FindWorkflowRule returns the rule for the key triple, or nil when none
// exists. A missing rule is not an error.
func (s *SQLiteStore) FindWorkflowRule(
	ctx context.Context,
	projectID string,
	integrationType model.IntegrationType,
	eventType model.EventType,
) (*model.WorkflowRule, error) {
	var rule model.WorkflowRule
	err := s.db.GetContext(ctx, &rule, `
		SELECT `+ruleColumns+` FROM workflow_rules
		WHERE project_id = ? AND integration_type = ? AND event_type = ?`,
		projectID, string(integrationType), string(eventType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding workflow rule %s/%s/%s: %w",
			projectID, integrationType, eventType, err)
	}
	return &rule, nil
}

// DeleteWorkflowRule removes a rule by ID. Deleting an unknown ID succeeds.
func (s *SQLiteStore) DeleteWorkflowRule(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM workflow_rules WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting workflow rule %s: %w", id, err)
	}
	return nil
}
