package model

import "time"

// LinkType is the relation carried by a task link.
type LinkType string

const (
	LinkBlocks     LinkType = "blocks"
	LinkBlockedBy  LinkType = "blocked_by"
	LinkRelatesTo  LinkType = "relates_to"
	LinkDuplicates LinkType = "duplicates"
	LinkParent     LinkType = "parent"
	LinkChild      LinkType = "child"
)

// LinkTypes lists every valid link type.
var LinkTypes = []LinkType{
	LinkBlocks, LinkBlockedBy, LinkRelatesTo, LinkDuplicates, LinkParent, LinkChild,
}

// Valid reports whether t is one of the known link types.
func (t LinkType) Valid() bool {
	for _, known := range LinkTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Direction describes a link from the point of view of one endpoint.
type Direction string

const (
	DirectionOut        Direction = "out"
	DirectionIn         Direction = "in"
	DirectionUndirected Direction = "undirected"
)

// TaskLink is a single stored, directed edge between two tasks.
// Inverse views (blocked_by for a stored blocks edge) are never stored.
type TaskLink struct {
	ID         string    `json:"id" db:"id"`
	FromTaskID string    `json:"from_task_id" db:"from_task_id"`
	ToTaskID   string    `json:"to_task_id" db:"to_task_id"`
	Type       LinkType  `json:"type" db:"type"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	CreatedBy  string    `json:"created_by" db:"created_by"`
}
