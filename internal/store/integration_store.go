package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/kaneo-automation/internal/model"
)

const integrationColumns = `id, project_id, type, repository, base_url, import_issues, created_at`

// CreateIntegration connects a repository to a project.
func (s *SQLiteStore) CreateIntegration(
	ctx context.Context,
	in model.Integration,
) (*model.Integration, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("unknown integration type %q", in.Type)
	}
	in.Repository = strings.TrimSpace(in.Repository)
	if in.Repository == "" {
		return nil, fmt.Errorf("integration repository must not be empty")
	}
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	in.BaseURL = strings.TrimRight(in.BaseURL, "/")
	in.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO integrations (`+integrationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.ProjectID, string(in.Type), in.Repository, in.BaseURL,
		boolToInt(in.ImportIssues), in.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating integration: %w", err)
	}
	return &in, nil
}

// GetIntegrations retrieves all integrations ordered by repository.
func (s *SQLiteStore) GetIntegrations(ctx context.Context) ([]model.Integration, error) {
	integrations := []model.Integration{}
	err := s.db.SelectContext(ctx, &integrations,
		"SELECT "+integrationColumns+" FROM integrations ORDER BY type, repository")
	if err != nil {
		return nil, fmt.Errorf("querying integrations: %w", err)
	}
	return integrations, nil
}

// GetIntegrationByRepository resolves the integration receiving deliveries
// for a repository. Repository names compare case-insensitively, matching
// how providers treat them.
func (s *SQLiteStore) GetIntegrationByRepository(
	ctx context.Context,
	integrationType model.IntegrationType,
	repository string,
) (*model.Integration, error) {
	var in model.Integration
	err := s.db.GetContext(ctx, &in, `
		SELECT `+integrationColumns+` FROM integrations
		WHERE type = ? AND repository = ? COLLATE NOCASE`,
		string(integrationType), repository)
	if err != nil {
		return nil, notFound(err, "integration", string(integrationType)+":"+repository)
	}
	return &in, nil
}

// DeleteIntegration removes an integration by ID.
func (s *SQLiteStore) DeleteIntegration(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM integrations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting integration %s: %w", id, err)
	}
	return requireAffected(result, "integration", id)
}
