package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/store"
)

// maxJSONBody caps request bodies of the JSON API.
const maxJSONBody = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		writeJSONError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

type upsertRuleRequest struct {
	IntegrationType model.IntegrationType `json:"integrationType"`
	EventType       model.EventType       `json:"eventType"`
	ColumnID        string                `json:"columnId"`
}

func (s *Server) handleUpsertRule(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")

	var req upsertRuleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.ColumnID) == "" {
		writeJSONError(w, http.StatusBadRequest, "columnId is required")
		return
	}

	if _, err := s.store.GetProjectByID(r.Context(), projectID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	column, err := s.store.GetColumnByID(r.Context(), req.ColumnID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusBadRequest, "unknown column "+req.ColumnID)
		return
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if column.ProjectID != projectID {
		writeJSONError(w, http.StatusBadRequest, "column does not belong to project")
		return
	}

	rule, err := s.store.UpsertWorkflowRule(r.Context(), projectID, req.IntegrationType, req.EventType, req.ColumnID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.logger.Info("workflow rule saved",
		zap.String("rule_id", rule.ID),
		zap.String("project_id", projectID),
		zap.String("integration", string(rule.IntegrationType)),
		zap.String("event", string(rule.EventType)),
		zap.String("column_id", rule.ColumnID),
	)
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.store.GetWorkflowRules(r.Context(), r.PathValue("projectId"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if rules == nil {
		rules = []model.WorkflowRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteWorkflowRule(r.Context(), r.PathValue("id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createLinkRequest struct {
	TargetTaskID string         `json:"targetTaskId"`
	Type         model.LinkType `json:"type"`
	CreatedBy    string         `json:"createdBy"`
}

func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.TargetTaskID) == "" {
		writeJSONError(w, http.StatusBadRequest, "targetTaskId is required")
		return
	}

	link, err := s.links.CreateLink(r.Context(), r.PathValue("taskId"), req.TargetTaskID, req.Type, req.CreatedBy)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (s *Server) handleListLinks(w http.ResponseWriter, r *http.Request) {
	views, err := s.links.ListLinks(r.Context(), r.PathValue("taskId"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	if err := s.links.DeleteLink(r.Context(), r.PathValue("taskId"), r.PathValue("linkId")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := s.store.GetUnreadNotifications(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := s.store.MarkNotificationRead(r.Context(), r.PathValue("id")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
