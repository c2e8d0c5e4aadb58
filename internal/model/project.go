package model

import "time"

// Project is a board grouping tasks into columns.
type Project struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Column is a lane on a project board.
type Column struct {
	ID        string `json:"id" db:"id"`
	ProjectID string `json:"project_id" db:"project_id"`
	Slug      string `json:"slug" db:"slug"`
	Name      string `json:"name" db:"name"`
	Position  int    `json:"position" db:"position"`
}

// DefaultColumnName returns the display name for a seeded status column.
func DefaultColumnName(s Status) string {
	switch s {
	case StatusToDo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	case StatusPlanned:
		return "Planned"
	case StatusArchived:
		return "Archived"
	default:
		return string(s)
	}
}
