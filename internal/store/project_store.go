package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/kaneo-automation/internal/model"
)

// CreateProject inserts a new project and seeds one column per status,
// in board order.
func (s *SQLiteStore) CreateProject(
	ctx context.Context,
	name, slug string,
) (*model.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("project name must not be empty")
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, fmt.Errorf("project slug must not be empty")
	}

	project := model.Project{
		ID:        uuid.New().String(),
		Name:      name,
		Slug:      slug,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO projects (id, name, slug, created_at) VALUES (?, ?, ?, ?)",
		project.ID, project.Name, project.Slug, project.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	for i, status := range model.Statuses {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO columns (id, project_id, slug, name, position)
			VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), project.ID, string(status),
			model.DefaultColumnName(status), i,
		)
		if err != nil {
			return nil, fmt.Errorf("seeding column %s: %w", status, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing project: %w", err)
	}
	return &project, nil
}

// GetProjectByID retrieves a single project by ID.
func (s *SQLiteStore) GetProjectByID(
	ctx context.Context,
	id string,
) (*model.Project, error) {
	var project model.Project
	err := s.db.GetContext(ctx, &project,
		"SELECT id, name, slug, created_at FROM projects WHERE id = ?", id)
	if err != nil {
		return nil, notFound(err, "project", id)
	}
	return &project, nil
}

// GetProjects retrieves all projects ordered by name.
func (s *SQLiteStore) GetProjects(ctx context.Context) ([]model.Project, error) {
	projects := []model.Project{}
	err := s.db.SelectContext(ctx, &projects,
		"SELECT id, name, slug, created_at FROM projects ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	return projects, nil
}

// GetColumns retrieves a project's columns in board order.
func (s *SQLiteStore) GetColumns(
	ctx context.Context,
	projectID string,
) ([]model.Column, error) {
	columns := []model.Column{}
	err := s.db.SelectContext(ctx, &columns, `
		SELECT id, project_id, slug, name, position
		FROM columns
		WHERE project_id = ?
		ORDER BY position`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying columns for project %s: %w", projectID, err)
	}
	return columns, nil
}

// GetColumnByID retrieves a single column by ID.
func (s *SQLiteStore) GetColumnByID(
	ctx context.Context,
	id string,
) (*model.Column, error) {
	var column model.Column
	err := s.db.GetContext(ctx, &column,
		"SELECT id, project_id, slug, name, position FROM columns WHERE id = ?", id)
	if err != nil {
		return nil, notFound(err, "column", id)
	}
	return &column, nil
}

// GetColumnBySlug retrieves a project's column by its slug.
func (s *SQLiteStore) GetColumnBySlug(
	ctx context.Context,
	projectID, slug string,
) (*model.Column, error) {
	var column model.Column
	err := s.db.GetContext(ctx, &column, `
		SELECT id, project_id, slug, name, position
		FROM columns
		WHERE project_id = ? AND slug = ?`, projectID, slug)
	if err != nil {
		return nil, notFound(err, "column", projectID+"/"+slug)
	}
	return &column, nil
}
