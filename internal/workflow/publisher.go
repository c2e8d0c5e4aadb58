package workflow

import "time"

// Board event types.
const (
	EventTaskMoved    = "task.moved"
	EventTaskImported = "task.imported"
)

// BoardEvent is published whenever automation changes a board.
type BoardEvent struct {
	Type      string    `json:"type"`
	ProjectID string    `json:"projectId"`
	TaskID    string    `json:"taskId"`
	Title     string    `json:"title,omitempty"`
	ColumnID  string    `json:"columnId,omitempty"`
	RuleID    string    `json:"ruleId,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher fans board events out to listeners. Publish must not block.
type Publisher interface {
	Publish(BoardEvent)
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(BoardEvent) {}
