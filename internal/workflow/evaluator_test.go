package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/kaneo-automation/internal/model"
)

type ruleKey struct {
	project     string
	integration model.IntegrationType
	event       model.EventType
}

// fakeRules is an in-memory RuleLookup.
type fakeRules struct {
	rules map[ruleKey]model.WorkflowRule
	err   error
	calls int
}

func (f *fakeRules) FindWorkflowRule(
	_ context.Context,
	projectID string,
	integrationType model.IntegrationType,
	eventType model.EventType,
) (*model.WorkflowRule, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rule, ok := f.rules[ruleKey{projectID, integrationType, eventType}]
	if !ok {
		return nil, nil
	}
	return &rule, nil
}

func TestEvaluate_NoRuleIsNoOp(t *testing.T) {
	rules := &fakeRules{rules: map[ruleKey]model.WorkflowRule{
		{"P", model.IntegrationGitHub, model.EventIssueClosed}: {ID: "r1", ColumnID: "done"},
	}}
	ev := NewEvaluator(rules)
	task := model.Task{ID: "T", ColumnID: "todo"}

	misses := []model.IntegrationEvent{
		{ProjectID: "Q", IntegrationType: model.IntegrationGitHub, EventType: model.EventIssueClosed},
		{ProjectID: "P", IntegrationType: model.IntegrationGitea, EventType: model.EventIssueClosed},
		{ProjectID: "P", IntegrationType: model.IntegrationGitHub, EventType: model.EventPRMerged},
	}
	for _, event := range misses {
		decision, err := ev.Evaluate(context.Background(), event, task)
		require.NoError(t, err)
		assert.Equal(t, NoOp, decision.Action)
		assert.Nil(t, decision.Transition)
	}
}

func TestEvaluate_MatchMovesRegardlessOfCurrentColumn(t *testing.T) {
	rules := &fakeRules{rules: map[ruleKey]model.WorkflowRule{
		{"P", model.IntegrationGitHub, model.EventIssueClosed}: {ID: "r1", ColumnID: "done"},
	}}
	ev := NewEvaluator(rules)
	event := model.IntegrationEvent{
		ProjectID: "P", IntegrationType: model.IntegrationGitHub, EventType: model.EventIssueClosed,
	}

	for _, current := range []string{"in-progress", "done", ""} {
		decision, err := ev.Evaluate(context.Background(), event, model.Task{ID: "T", ColumnID: current})
		require.NoError(t, err)
		assert.Equal(t, Move, decision.Action)
		assert.Equal(t, &ColumnTransition{TaskID: "T", TargetColumnID: "done", RuleID: "r1"}, decision.Transition)
	}
}

func TestEvaluate_PropagatesLookupFailure(t *testing.T) {
	boom := errors.New("database is locked")
	ev := NewEvaluator(&fakeRules{err: boom})

	_, err := ev.Evaluate(context.Background(), model.IntegrationEvent{}, model.Task{ID: "T"})
	assert.Same(t, boom, err)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "noop", NoOp.String())
	assert.Equal(t, "move", Move.String())
	assert.Equal(t, "Action(9)", Action(9).String())
}
