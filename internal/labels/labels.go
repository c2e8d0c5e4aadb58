// Package labels derives a task's priority and status from issue labels
// and assigns display colors to labels.
package labels

import (
	"strings"

	"github.com/nhle/kaneo-automation/internal/integration"
	"github.com/nhle/kaneo-automation/internal/model"
)

const (
	priorityPrefix = "priority:"
	statusPrefix   = "status:"
)

// Classification is the priority and status implied by a label set.
type Classification struct {
	Priority model.Priority `json:"priority"`
	Status   model.Status   `json:"status"`
}

// Default is the classification of a label set with no usable hints.
var Default = Classification{Priority: model.PriorityMedium, Status: model.StatusToDo}

// Classify scans labels in order. The first priority: label and the first
// status: label decide; later ones are ignored even when the first carries
// an unknown value, which falls back to the default.
func Classify(labels []string) Classification {
	result := Default

	var priority, status *string
	for i := range labels {
		switch {
		case priority == nil && strings.HasPrefix(labels[i], priorityPrefix):
			priority = &labels[i]
		case status == nil && strings.HasPrefix(labels[i], statusPrefix):
			status = &labels[i]
		}
		if priority != nil && status != nil {
			break
		}
	}

	if priority != nil {
		if p := model.Priority(strings.TrimPrefix(*priority, priorityPrefix)); p.Valid() {
			result.Priority = p
		}
	}
	if status != nil {
		if s := model.Status(strings.TrimPrefix(*status, statusPrefix)); s.Valid() {
			result.Status = s
		}
	}
	return result
}

// ClassifyRefs classifies labels in their raw payload form.
func ClassifyRefs(refs []integration.LabelRef) Classification {
	return Classify(integration.FlattenLabels(refs))
}
