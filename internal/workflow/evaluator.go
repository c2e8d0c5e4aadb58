// Package workflow turns normalized integration events into column
// transitions using a project's workflow rules.
package workflow

import (
	"context"
	"fmt"

	"github.com/nhle/kaneo-automation/internal/model"
)

// RuleLookup finds the rule for a key triple. A missing rule is reported
// as nil with a nil error.
type RuleLookup interface {
	FindWorkflowRule(
		ctx context.Context,
		projectID string,
		integrationType model.IntegrationType,
		eventType model.EventType,
	) (*model.WorkflowRule, error)
}

// Action is the outcome of evaluating an event against a task.
type Action int

const (
	// NoOp leaves the task where it is.
	NoOp Action = iota
	// Move puts the task into the transition's target column.
	Move
)

func (a Action) String() string {
	switch a {
	case NoOp:
		return "noop"
	case Move:
		return "move"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// MarshalText renders the action by name in JSON responses.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// ColumnTransition moves one task into one column because of one rule.
type ColumnTransition struct {
	TaskID         string `json:"taskId"`
	TargetColumnID string `json:"targetColumnId"`
	RuleID         string `json:"ruleId"`
}

// Decision is the result of Evaluate. Transition is set only for Move.
type Decision struct {
	Action     Action            `json:"action"`
	Transition *ColumnTransition `json:"transition,omitempty"`
}

// Evaluator decides column transitions. It never writes.
type Evaluator struct {
	rules RuleLookup
}

// NewEvaluator returns an Evaluator reading rules from rules.
func NewEvaluator(rules RuleLookup) *Evaluator {
	return &Evaluator{rules: rules}
}

// Evaluate looks up the rule for the event's key triple. Without a rule the
// decision is NoOp. With one, the task moves to the rule's column even if
// it is already there. Lookup failures are returned unchanged.
func (e *Evaluator) Evaluate(
	ctx context.Context,
	event model.IntegrationEvent,
	task model.Task,
) (Decision, error) {
	rule, err := e.rules.FindWorkflowRule(ctx, event.ProjectID, event.IntegrationType, event.EventType)
	if err != nil {
		return Decision{}, err
	}
	if rule == nil {
		return Decision{Action: NoOp}, nil
	}
	return Decision{
		Action: Move,
		Transition: &ColumnTransition{
			TaskID:         task.ID,
			TargetColumnID: rule.ColumnID,
			RuleID:         rule.ID,
		},
	}, nil
}
