package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nhle/kaneo-automation/internal/integration"
	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/store"
	"github.com/nhle/kaneo-automation/internal/workflow"
	"github.com/nhle/kaneo-automation/tests/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []workflow.BoardEvent
}

func (p *recordingPublisher) Publish(e workflow.BoardEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// countingMutator wraps the store and counts column writes.
type countingMutator struct {
	next  workflow.TaskMutator
	err   error
	calls int
}

func (m *countingMutator) UpdateTaskColumn(ctx context.Context, taskID, columnID string) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	return m.next.UpdateTaskColumn(ctx, taskID, columnID)
}

type fixture struct {
	store     *store.SQLiteStore
	board     testutil.Board
	mutator   *countingMutator
	publisher *recordingPublisher
	engine    *workflow.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := testutil.NewTestStore(t)
	f := &fixture{
		store:     s,
		board:     testutil.SeedBoard(t, s, "Kaneo", "kan"),
		mutator:   &countingMutator{next: s},
		publisher: &recordingPublisher{},
	}
	f.engine = workflow.NewEngine(s, f.mutator, f.publisher, zaptest.NewLogger(t))
	return f
}

func (f *fixture) rule(t *testing.T, event model.EventType, status model.Status) *model.WorkflowRule {
	t.Helper()
	rule, err := f.store.UpsertWorkflowRule(context.Background(),
		f.board.Project.ID, model.IntegrationGitHub, event, f.board.Column(status))
	require.NoError(t, err)
	return rule
}

func (f *fixture) normalize(t *testing.T, eventName, payload string) model.IntegrationEvent {
	t.Helper()
	event, err := integration.Normalize(model.IntegrationGitHub, eventName, []byte(payload), f.board.Project.ID)
	require.NoError(t, err)
	return event
}

const openedPayload = `{
	"action": "opened",
	"issue": {
		"number": 42,
		"title": "Login button broken",
		"body": null,
		"html_url": "https://github.com/acme/web/issues/42",
		"user": {"login": "octocat"},
		"labels": [{"name": "priority:urgent"}, "status:planned", {"name": "bug"}]
	},
	"repository": {"full_name": "acme/web"}
}`

const closedPayload = `{
	"action": "closed",
	"issue": {"number": 42, "title": "Login button broken"},
	"repository": {"full_name": "acme/web"}
}`

func TestProcess_IssueOpenedImportsTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.engine.Process(ctx, f.normalize(t, "issues", openedPayload))
	require.NoError(t, err)
	require.NotNil(t, result.Imported)
	assert.False(t, result.Moved(), "no rule configured")

	task, err := f.store.GetTaskByID(ctx, result.Imported.ID)
	require.NoError(t, err)
	assert.Equal(t, "Login button broken", task.Title)
	assert.Equal(t, model.PriorityUrgent, task.Priority)
	assert.Equal(t, f.board.Column(model.StatusPlanned), task.ColumnID)
	assert.Equal(t, "octocat", task.Author)
	assert.Equal(t,
		"No description provided\n\n---\n*Created from GitHub issue: https://github.com/acme/web/issues/42*",
		task.Description)

	taskLabels, err := f.store.GetLabelsForTask(ctx, task.ID)
	require.NoError(t, err)
	colors := map[string]string{}
	for _, l := range taskLabels {
		colors[l.Name] = l.Color
	}
	assert.Equal(t, map[string]string{
		"priority:urgent": "EF4444",
		"status:planned":  "8B5CF6",
		"bug":             "D73A4A",
	}, colors)

	assert.Equal(t, []string{workflow.EventTaskImported}, f.publisher.types())
}

func TestProcess_IssueOpenedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.rule(t, model.EventIssueOpened, model.StatusInProgress)

	event := f.normalize(t, "issues", openedPayload)
	first, err := f.engine.Process(ctx, event)
	require.NoError(t, err)
	second, err := f.engine.Process(ctx, event)
	require.NoError(t, err)

	require.NotNil(t, first.Imported)
	assert.Nil(t, second.Imported, "redelivery must not import again")
	assert.Equal(t, first.Transitions, second.Transitions)

	tasks, err := f.store.GetTasks(ctx, f.board.Project.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, f.board.Column(model.StatusInProgress), tasks[0].ColumnID)
}

func TestProcess_IssueClosedMovesAndRepeatsIdentically(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	imported, err := f.engine.Process(ctx, f.normalize(t, "issues", openedPayload))
	require.NoError(t, err)
	taskID := imported.Imported.ID
	require.NoError(t, f.store.UpdateTaskColumn(ctx, taskID, f.board.Column(model.StatusInProgress)))

	rule := f.rule(t, model.EventIssueClosed, model.StatusDone)
	closed := f.normalize(t, "issues", closedPayload)

	first, err := f.engine.Process(ctx, closed)
	require.NoError(t, err)
	want := workflow.ColumnTransition{
		TaskID: taskID, TargetColumnID: f.board.Column(model.StatusDone), RuleID: rule.ID,
	}
	assert.Equal(t, []workflow.ColumnTransition{want}, first.Transitions)

	second, err := f.engine.Process(ctx, closed)
	require.NoError(t, err)
	assert.Equal(t, first.Transitions, second.Transitions)
	assert.Equal(t, 2, f.mutator.calls, "exactly one write per delivery")

	task, err := f.store.GetTaskByID(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, f.board.Column(model.StatusDone), task.ColumnID)

	notes, err := f.store.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestProcess_IssueClosedUnknownTaskIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.rule(t, model.EventIssueClosed, model.StatusDone)

	result, err := f.engine.Process(context.Background(), f.normalize(t, "issues", closedPayload))
	require.NoError(t, err)
	assert.False(t, result.Moved())
	assert.Zero(t, f.mutator.calls)
}

func TestProcess_NoRuleNeverWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := testutil.SeedTask(t, f.store, f.board, "Refactor auth")

	result, err := f.engine.Process(ctx, f.normalize(t, "push",
		`{"ref":"refs/heads/kan-1-auth","repository":{"full_name":"acme/web"}}`))
	require.NoError(t, err)
	require.Len(t, result.Decisions, 1)
	assert.Equal(t, workflow.NoOp, result.Decisions[0].Action)
	assert.Zero(t, f.mutator.calls)

	got, err := f.store.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ColumnID, got.ColumnID)
}

func TestProcess_PullRequestResolvesCrossReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	imported, err := f.engine.Process(ctx, f.normalize(t, "issues", openedPayload))
	require.NoError(t, err)
	local := testutil.SeedTask(t, f.store, f.board, "Local task")
	require.Equal(t, 2, local.Number)

	f.rule(t, model.EventPRMerged, model.StatusDone)

	result, err := f.engine.Process(ctx, f.normalize(t, "pull_request", `{
		"action": "closed",
		"pull_request": {
			"number": 5, "merged": true,
			"title": "Fix login (KAN-2)",
			"body": "Closes #42",
			"head": {"ref": "kan-2-login"}
		},
		"repository": {"full_name": "acme/web"}
	}`))
	require.NoError(t, err)
	require.Len(t, result.Transitions, 2)

	moved := map[string]bool{}
	for _, tr := range result.Transitions {
		moved[tr.TaskID] = true
		assert.Equal(t, f.board.Column(model.StatusDone), tr.TargetColumnID)
	}
	assert.True(t, moved[imported.Imported.ID], "#42 resolves the imported issue")
	assert.True(t, moved[local.ID], "KAN-2 resolves task number 2")
	assert.Equal(t, 2, f.mutator.calls, "each task is written once")
}

func TestProcess_IssueNumberFallsBackToTaskNumber(t *testing.T) {
	f := newFixture(t)
	task := testutil.SeedTask(t, f.store, f.board, "Only local")
	f.rule(t, model.EventPROpened, model.StatusInProgress)

	result, err := f.engine.Process(context.Background(), f.normalize(t, "pull_request",
		`{"action":"opened","pull_request":{"number":9,"title":"Work on #1"},"repository":{"full_name":"acme/web"}}`))
	require.NoError(t, err)
	require.Len(t, result.Transitions, 1)
	assert.Equal(t, task.ID, result.Transitions[0].TaskID)
}

func TestProcess_MutatorFailureIsReturned(t *testing.T) {
	f := newFixture(t)
	testutil.SeedTask(t, f.store, f.board, "Stuck")
	f.rule(t, model.EventBranchPush, model.StatusInProgress)
	f.mutator.err = errors.New("disk full")

	_, err := f.engine.Process(context.Background(), f.normalize(t, "push",
		`{"ref":"refs/heads/kan-1","repository":{"full_name":"acme/web"}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, f.mutator.err)
	assert.Equal(t, 1, f.mutator.calls, "no retry")
	assert.Empty(t, f.publisher.types())
}

// staleLookupStore misses the first external-issue lookup, as when another
// delivery inserts the task right after this one looked.
type staleLookupStore struct {
	*store.SQLiteStore
	missed bool
}

func (s *staleLookupStore) GetTaskByExternalIssue(
	ctx context.Context,
	projectID string,
	integrationType model.IntegrationType,
	repository string,
	issueNumber int,
) (*model.Task, error) {
	if !s.missed {
		s.missed = true
		return nil, store.ErrNotFound
	}
	return s.SQLiteStore.GetTaskByExternalIssue(ctx, projectID, integrationType, repository, issueNumber)
}

func TestProcess_IssueOpenedRacingImportReusesTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.normalize(t, "issues", openedPayload)

	first, err := f.engine.Process(ctx, event)
	require.NoError(t, err)
	require.NotNil(t, first.Imported)

	stale := &staleLookupStore{SQLiteStore: f.store}
	engine := workflow.NewEngine(stale, f.store, nil, zaptest.NewLogger(t))
	second, err := engine.Process(ctx, event)
	require.NoError(t, err)
	assert.True(t, stale.missed)
	assert.Nil(t, second.Imported, "a concurrent import is not a new import")

	tasks, err := f.store.GetTasks(ctx, f.board.Project.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, first.Imported.ID, tasks[0].ID)
}
