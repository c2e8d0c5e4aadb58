// Package tasklink manages typed relations between tasks. Each relation is
// stored once, as a directed edge; the view from the other endpoint is
// derived at read time.
package tasklink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/store"
)

var (
	// ErrSelfLink is returned when both endpoints are the same task.
	ErrSelfLink = errors.New("a task cannot be linked to itself")

	// ErrInvalidLinkType is returned for a type outside model.LinkTypes.
	ErrInvalidLinkType = errors.New("invalid link type")
)

var inverses = map[model.LinkType]model.LinkType{
	model.LinkBlocks:     model.LinkBlockedBy,
	model.LinkBlockedBy:  model.LinkBlocks,
	model.LinkParent:     model.LinkChild,
	model.LinkChild:      model.LinkParent,
	model.LinkRelatesTo:  model.LinkRelatesTo,
	model.LinkDuplicates: model.LinkDuplicates,
}

// Inverse returns the relation as seen from the other endpoint. Symmetric
// types are their own inverse. Unknown types are returned unchanged.
func Inverse(t model.LinkType) model.LinkType {
	if inv, ok := inverses[t]; ok {
		return inv
	}
	return t
}

// Symmetric reports whether t reads the same from both endpoints.
func Symmetric(t model.LinkType) bool {
	return Inverse(t) == t
}

// LinkView is a link as displayed on one task's detail panel.
type LinkView struct {
	ID          string          `json:"id"`
	Type        model.LinkType  `json:"type"`
	DisplayType model.LinkType  `json:"displayType"`
	Direction   model.Direction `json:"direction"`
	TaskID      string          `json:"taskId"`
	TaskTitle   string          `json:"taskTitle"`
	CreatedBy   string          `json:"createdBy"`
	Link        model.TaskLink  `json:"link"`
}

// Project renders a stored link for viewerID. The viewer sees the stored
// type on outgoing edges and its inverse on incoming ones; symmetric types
// are undirected. The second return is false if the link does not touch
// the viewer.
func Project(link model.TaskLink, viewerID string) (LinkView, bool) {
	view := LinkView{
		ID:        link.ID,
		Type:      link.Type,
		CreatedBy: link.CreatedBy,
		Link:      link,
	}

	switch viewerID {
	case link.FromTaskID:
		view.Direction = model.DirectionOut
		view.DisplayType = link.Type
		view.TaskID = link.ToTaskID
	case link.ToTaskID:
		view.Direction = model.DirectionIn
		view.DisplayType = Inverse(link.Type)
		view.TaskID = link.FromTaskID
	default:
		return LinkView{}, false
	}

	if Symmetric(link.Type) {
		view.Direction = model.DirectionUndirected
	}
	return view, true
}

// Store is the persistence the service needs.
type Store interface {
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	CreateTaskLink(ctx context.Context, link model.TaskLink) (*model.TaskLink, error)
	GetTaskLink(ctx context.Context, id string) (*model.TaskLink, error)
	DeleteTaskLink(ctx context.Context, id string) error
	GetLinksForTask(ctx context.Context, taskID string) ([]store.LinkRow, error)
}

// Service creates, lists and deletes task links.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a Service.
func NewService(s Store, logger *zap.Logger) *Service {
	return &Service{store: s, logger: logger.Named("tasklink")}
}

// CreateLink stores one directed edge from fromTaskID to toTaskID. Both
// tasks must exist. Repeating a link creates another edge.
func (s *Service) CreateLink(
	ctx context.Context,
	fromTaskID, toTaskID string,
	linkType model.LinkType,
	createdBy string,
) (*model.TaskLink, error) {
	if fromTaskID == toTaskID {
		return nil, ErrSelfLink
	}
	if !linkType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLinkType, linkType)
	}
	for _, id := range []string{fromTaskID, toTaskID} {
		if _, err := s.store.GetTaskByID(ctx, id); err != nil {
			return nil, err
		}
	}

	link, err := s.store.CreateTaskLink(ctx, model.TaskLink{
		FromTaskID: fromTaskID,
		ToTaskID:   toTaskID,
		Type:       linkType,
		CreatedBy:  strings.TrimSpace(createdBy),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("link created",
		zap.String("link_id", link.ID),
		zap.String("from", fromTaskID),
		zap.String("to", toTaskID),
		zap.String("type", string(linkType)),
	)
	return link, nil
}

// DeleteLink removes exactly one edge. The link must touch taskID; a link
// that does not, or does not exist, is reported as store.ErrNotFound.
// Linked tasks are never touched.
func (s *Service) DeleteLink(ctx context.Context, taskID, linkID string) error {
	link, err := s.store.GetTaskLink(ctx, linkID)
	if err != nil {
		return err
	}
	if link.FromTaskID != taskID && link.ToTaskID != taskID {
		return fmt.Errorf("link %s on task %s: %w", linkID, taskID, store.ErrNotFound)
	}
	if err := s.store.DeleteTaskLink(ctx, linkID); err != nil {
		return err
	}
	s.logger.Info("link deleted", zap.String("link_id", linkID), zap.String("task_id", taskID))
	return nil
}

// ListLinks returns every link touching taskID as seen from that task.
func (s *Service) ListLinks(ctx context.Context, taskID string) ([]LinkView, error) {
	rows, err := s.store.GetLinksForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	views := make([]LinkView, 0, len(rows))
	for _, row := range rows {
		view, ok := Project(row.TaskLink, taskID)
		if !ok {
			continue
		}
		view.TaskTitle = row.ToTitle
		if view.TaskID == row.FromTaskID {
			view.TaskTitle = row.FromTitle
		}
		views = append(views, view)
	}
	return views, nil
}
