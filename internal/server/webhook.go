package server

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/nhle/kaneo-automation/internal/integration"
	"github.com/nhle/kaneo-automation/internal/model"
)

// webhookHandler returns the intake handler for one provider. The
// delivery is authenticated against the secret of the integration that
// owns the repository before anything is processed.
func (s *Server) webhookHandler(t model.IntegrationType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With(zap.String("integration", string(t)))

		limit := s.cfg.MaxWebhookBodyBytes
		if limit <= 0 {
			limit = 5 << 20
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "payload too large")
				return
			}
			writeJSONError(w, http.StatusBadRequest, "failed to read body")
			return
		}

		eventName := r.Header.Get(integration.EventHeader(t))
		if eventName == "" {
			writeJSONError(w, http.StatusBadRequest, "missing "+integration.EventHeader(t)+" header")
			return
		}
		if integration.IsPing(eventName) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "pong"})
			return
		}

		repository, err := integration.ExtractRepository(body)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		in, err := s.store.GetIntegrationByRepository(r.Context(), t, repository)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		secret, err := s.secrets(in.WebhookSecretKey())
		if err != nil {
			logger.Error("loading webhook secret", zap.String("integration_id", in.ID), zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !integration.VerifySignature(secret, body, r.Header.Get(integration.SignatureHeader(t))) {
			logger.Warn("rejected webhook with invalid signature", zap.String("repository", repository))
			writeJSONError(w, http.StatusUnauthorized, "invalid signature")
			return
		}

		event, err := integration.Normalize(t, eventName, body, in.ProjectID)
		if errors.Is(err, integration.ErrUnsupportedEventKind) {
			logger.Info("ignoring unsupported event", zap.String("event", eventName), zap.Error(err))
			writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		event.Repository = in.Repository

		result, err := s.engine.Process(r.Context(), event)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		logger.Info("webhook processed",
			zap.String("repository", in.Repository),
			zap.String("event", string(event.EventType)),
			zap.Int("moved", len(result.Transitions)),
			zap.Bool("imported", result.Imported != nil),
		)
		writeJSON(w, http.StatusOK, result)
	}
}
