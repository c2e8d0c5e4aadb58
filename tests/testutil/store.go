package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Board is a seeded project with its columns indexed by slug.
type Board struct {
	Project *model.Project
	Columns map[model.Status]model.Column
}

// Column returns the ID of the column for status.
func (b Board) Column(status model.Status) string {
	return b.Columns[status].ID
}

// SeedBoard creates a project with the default status columns.
func SeedBoard(t *testing.T, s store.Store, name, slug string) Board {
	t.Helper()

	ctx := context.Background()
	project, err := s.CreateProject(ctx, name, slug)
	require.NoError(t, err)

	columns, err := s.GetColumns(ctx, project.ID)
	require.NoError(t, err)

	board := Board{Project: project, Columns: map[model.Status]model.Column{}}
	for _, c := range columns {
		board.Columns[model.Status(c.Slug)] = c
	}
	return board
}

// SeedTask creates a task with the given title in the to-do column.
func SeedTask(t *testing.T, s store.Store, board Board, title string) *model.Task {
	t.Helper()

	task, err := s.CreateTask(context.Background(), model.Task{
		ProjectID: board.Project.ID,
		Title:     title,
		ColumnID:  board.Column(model.StatusToDo),
	})
	require.NoError(t, err)
	return task
}
