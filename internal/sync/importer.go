// Package sync imports open issues from connected repositories on a
// schedule, feeding them through the same workflow engine as webhooks.
package sync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	gosync "sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/source"
	"github.com/nhle/kaneo-automation/internal/workflow"
)

// SyncState represents the current state of an integration import.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncRunning:
		return "running"
	case SyncError:
		return "error"
	default:
		return "unknown"
	}
}

// SyncStatus holds the import state for a single integration.
type SyncStatus struct {
	IntegrationID string
	Repository    string
	State         SyncState
	LastSync      time.Time
	Imported      int
	Error         error
}

// fetchTimeout is the maximum time allowed for listing one repository.
const fetchTimeout = 60 * time.Second

// IntegrationStore lists the integrations to import from.
type IntegrationStore interface {
	GetIntegrations(ctx context.Context) ([]model.Integration, error)
}

// Processor handles one normalized event.
type Processor interface {
	Process(ctx context.Context, event model.IntegrationEvent) (workflow.Result, error)
}

// SourceFactory builds the issue source for an integration.
type SourceFactory func(in model.Integration) (source.IssueSource, error)

// Summary reports one import pass.
type Summary struct {
	Integrations int `json:"integrations"`
	Issues       int `json:"issues"`
	Imported     int `json:"imported"`
	Moved        int `json:"moved"`
}

// Importer orchestrates scheduled imports of every integration with
// ImportIssues enabled.
type Importer struct {
	store     IntegrationStore
	processor Processor
	factory   SourceFactory
	logger    *zap.Logger

	mu       gosync.Mutex
	statuses map[string]*SyncStatus
	cron     *cron.Cron
}

// New creates an Importer.
func New(s IntegrationStore, p Processor, factory SourceFactory, logger *zap.Logger) *Importer {
	return &Importer{
		store:     s,
		processor: p,
		factory:   factory,
		logger:    logger.Named("importer"),
		statuses:  make(map[string]*SyncStatus),
	}
}

// Start schedules RunOnce according to schedule, a cron expression or a
// descriptor such as "@every 10m". Overlapping runs are skipped.
func (i *Importer) Start(ctx context.Context, schedule string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cron != nil {
		return fmt.Errorf("importer already started")
	}

	logger := cronLogger{i.logger.Sugar()}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.SkipIfStillRunning(logger)))
	_, err := c.AddFunc(schedule, func() {
		if _, err := i.RunOnce(ctx); err != nil {
			i.logger.Warn("import pass finished with errors", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("parsing import schedule %q: %w", schedule, err)
	}

	c.Start()
	i.cron = c
	i.logger.Info("importer started", zap.String("schedule", schedule))
	return nil
}

// Stop halts the schedule and returns a context that is done once any
// running pass has finished.
func (i *Importer) Stop() context.Context {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	ctx := i.cron.Stop()
	i.cron = nil
	return ctx
}

// RunOnce imports every enabled integration once. Failures of one
// integration do not stop the others; they are joined into the error.
func (i *Importer) RunOnce(ctx context.Context) (Summary, error) {
	var summary Summary

	integrations, err := i.store.GetIntegrations(ctx)
	if err != nil {
		return summary, fmt.Errorf("listing integrations: %w", err)
	}

	var errs []error
	for _, in := range integrations {
		if !in.ImportIssues {
			continue
		}
		summary.Integrations++

		issues, imported, moved, err := i.importIntegration(ctx, in)
		summary.Issues += issues
		summary.Imported += imported
		summary.Moved += moved
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", in.Type, in.Repository, err))
		}
	}

	return summary, errors.Join(errs...)
}

// importIntegration lists open issues of one integration and processes
// each as an issue_opened event.
func (i *Importer) importIntegration(ctx context.Context, in model.Integration) (int, int, int, error) {
	i.setStatus(in, SyncRunning, 0, nil)
	log := i.logger.With(zap.String("integration_id", in.ID), zap.String("repository", in.Repository))

	src, err := i.factory(in)
	if err != nil {
		i.setStatus(in, SyncError, 0, err)
		return 0, 0, 0, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	issues, err := src.ListOpenIssues(fetchCtx, in.Repository)
	cancel()
	if err != nil {
		// Detect auth errors and log a specific hint.
		if source.IsAuthError(err) {
			log.Error("authentication failed; update the integration token", zap.Error(err))
		}
		i.setStatus(in, SyncError, 0, err)
		return 0, 0, 0, err
	}

	imported, moved := 0, 0
	for _, issue := range issues {
		event := model.IntegrationEvent{
			IntegrationType:    in.Type,
			EventType:          model.EventIssueOpened,
			ProjectID:          in.ProjectID,
			ExternalResourceID: strconv.Itoa(issue.Number),
			Repository:         in.Repository,
			Labels:             issue.Labels,
			Issue:              &issue,
		}
		result, err := i.processor.Process(ctx, event)
		if err != nil {
			i.setStatus(in, SyncError, imported, err)
			return len(issues), imported, moved, fmt.Errorf("issue %d: %w", issue.Number, err)
		}
		if result.Imported != nil {
			imported++
		}
		moved += len(result.Transitions)
	}

	i.setStatus(in, SyncIdle, imported, nil)
	log.Info("import finished", zap.Int("issues", len(issues)), zap.Int("imported", imported))
	return len(issues), imported, moved, nil
}

// Statuses returns the import status of every integration seen so far.
func (i *Importer) Statuses() []SyncStatus {
	i.mu.Lock()
	defer i.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(i.statuses))
	for _, s := range i.statuses {
		statuses = append(statuses, *s)
	}
	return statuses
}

// setStatus updates the sync status for an integration.
func (i *Importer) setStatus(in model.Integration, state SyncState, imported int, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	status, ok := i.statuses[in.ID]
	if !ok {
		status = &SyncStatus{IntegrationID: in.ID, Repository: in.Repository}
		i.statuses[in.ID] = status
	}

	status.State = state
	status.Error = err
	status.Imported = imported
	if state == SyncIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// cronLogger routes cron's own logging into zap.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
