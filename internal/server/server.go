// Package server exposes the workflow rule, task link and webhook HTTP API.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/kaneo-automation/internal/integration"
	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/store"
	"github.com/nhle/kaneo-automation/internal/tasklink"
	"github.com/nhle/kaneo-automation/internal/workflow"
)

// Store is the persistence the handlers use directly.
type Store interface {
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	GetColumnByID(ctx context.Context, id string) (*model.Column, error)
	UpsertWorkflowRule(
		ctx context.Context,
		projectID string,
		integrationType model.IntegrationType,
		eventType model.EventType,
		columnID string,
	) (*model.WorkflowRule, error)
	GetWorkflowRules(ctx context.Context, projectID string) ([]model.WorkflowRule, error)
	DeleteWorkflowRule(ctx context.Context, id string) error
	GetIntegrationByRepository(
		ctx context.Context,
		integrationType model.IntegrationType,
		repository string,
	) (*model.Integration, error)
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Processor handles one normalized event.
type Processor interface {
	Process(ctx context.Context, event model.IntegrationEvent) (workflow.Result, error)
}

// SecretLookup returns the credential stored under key, or "" if none.
type SecretLookup func(key string) (string, error)

// Server is the HTTP front of the automation service.
type Server struct {
	cfg     model.ServerConfig
	mux     *http.ServeMux
	httpSrv *http.Server
	logger  *zap.Logger

	store   Store
	links   *tasklink.Service
	engine  Processor
	secrets SecretLookup
	hub     *Hub
}

// New creates a Server and registers its routes. The listener is not
// opened until Start.
func New(
	cfg model.ServerConfig,
	s Store,
	links *tasklink.Service,
	engine Processor,
	secrets SecretLookup,
	hub *Hub,
	logger *zap.Logger,
) *Server {
	srv := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		logger:  logger.Named("server"),
		store:   s,
		links:   links,
		engine:  engine,
		secrets: secrets,
		hub:     hub,
	}
	srv.registerRoutes()

	addr := cfg.Addr
	if addr == "" {
		addr = ":1337"
	}
	timeout := time.Duration(cfg.ReadHeaderTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	srv.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: timeout,
	}
	return srv
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Start begins listening and blocks until the server stops. A clean
// shutdown returns nil, including one that happened before Start.
func (s *Server) Start() error {
	s.logger.Info("server listening", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes the listener, waits for in-flight requests and then
// disconnects event subscribers.
func (s *Server) Stop(ctx context.Context) error {
	err := s.httpSrv.Shutdown(ctx)
	if s.hub != nil {
		s.hub.Close()
	}
	return err
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("PUT /workflow-rule/{projectId}", s.handleUpsertRule)
	s.mux.HandleFunc("GET /workflow-rule/{projectId}", s.handleListRules)
	s.mux.HandleFunc("DELETE /workflow-rule/{id}", s.handleDeleteRule)

	s.mux.HandleFunc("POST /task-link/{taskId}", s.handleCreateLink)
	s.mux.HandleFunc("GET /task-link/{taskId}", s.handleListLinks)
	s.mux.HandleFunc("DELETE /task-link/{taskId}/{linkId}", s.handleDeleteLink)

	s.mux.HandleFunc("GET /notifications", s.handleListNotifications)
	s.mux.HandleFunc("POST /notifications/{id}/read", s.handleMarkNotificationRead)

	s.mux.HandleFunc("POST /webhook/github", s.webhookHandler(model.IntegrationGitHub))
	s.mux.HandleFunc("POST /webhook/gitea", s.webhookHandler(model.IntegrationGitea))

	if s.hub != nil {
		s.mux.HandleFunc("GET /events", s.hub.ServeWS)
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidRule),
		errors.Is(err, tasklink.ErrSelfLink),
		errors.Is(err, tasklink.ErrInvalidLinkType):
		return http.StatusBadRequest
	case errors.Is(err, integration.ErrUnsupportedEventKind):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes err with its mapped status. Internal errors are
// logged and reported generically.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSONError(w, status, "internal error")
		return
	}
	writeJSONError(w, status, err.Error())
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack passes connection takeover through for websocket upgrades.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
