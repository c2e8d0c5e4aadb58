package integration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nhle/kaneo-automation/internal/model"
)

// ErrUnsupportedEventKind is matched by every UnsupportedEventKindError.
var ErrUnsupportedEventKind = errors.New("unsupported event kind")

// UnsupportedEventKindError reports a delivery that maps to no canonical
// event type. Callers log it and drop the delivery.
type UnsupportedEventKindError struct {
	IntegrationType model.IntegrationType
	Event           string
	Action          string
}

func (e *UnsupportedEventKindError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("unsupported %s event %q", e.IntegrationType, e.Event)
	}
	return fmt.Sprintf("unsupported %s event %q with action %q", e.IntegrationType, e.Event, e.Action)
}

// Is makes errors.Is(err, ErrUnsupportedEventKind) hold.
func (e *UnsupportedEventKindError) Is(target error) bool {
	return target == ErrUnsupportedEventKind
}

// Event header names carrying the delivery kind.
const (
	GitHubEventHeader = "X-GitHub-Event"
	GiteaEventHeader  = "X-Gitea-Event"
)

// EventHeader returns the header carrying the event name for a provider.
func EventHeader(t model.IntegrationType) string {
	if t == model.IntegrationGitea {
		return GiteaEventHeader
	}
	return GitHubEventHeader
}

// IsPing reports whether a delivery is the provider's connectivity check.
func IsPing(eventName string) bool {
	return eventName == "ping"
}

// Normalize maps a raw delivery onto the canonical event shape. It is pure:
// the same inputs always produce an identical event.
func Normalize(
	integrationType model.IntegrationType,
	eventName string,
	payload []byte,
	projectID string,
) (model.IntegrationEvent, error) {
	if !integrationType.Valid() {
		return model.IntegrationEvent{}, &UnsupportedEventKindError{
			IntegrationType: integrationType, Event: eventName,
		}
	}

	p, err := decodePayload(payload)
	if err != nil {
		return model.IntegrationEvent{}, err
	}

	event := model.IntegrationEvent{
		IntegrationType: integrationType,
		ProjectID:       projectID,
		Repository:      p.Repository.FullName,
		Labels:          []string{},
		RawPayload:      append([]byte(nil), payload...),
	}
	unsupported := &UnsupportedEventKindError{
		IntegrationType: integrationType, Event: eventName, Action: p.Action,
	}

	switch eventName {
	case "issues":
		if p.Issue == nil {
			return model.IntegrationEvent{}, fmt.Errorf("issues event without issue object")
		}
		switch p.Action {
		case "opened":
			event.EventType = model.EventIssueOpened
		case "closed":
			event.EventType = model.EventIssueClosed
		default:
			return model.IntegrationEvent{}, unsupported
		}
		event.ExternalResourceID = strconv.Itoa(p.Issue.Number)
		event.Labels = FlattenLabels(p.Issue.Labels)
		event.Issue = &model.Issue{
			Number:  p.Issue.Number,
			Title:   p.Issue.Title,
			Body:    p.Issue.Body,
			HTMLURL: p.Issue.HTMLURL,
			Author:  p.Issue.User.name(),
			Labels:  event.Labels,
		}

	case "pull_request":
		if p.PullRequest == nil {
			return model.IntegrationEvent{}, fmt.Errorf("pull_request event without pull_request object")
		}
		switch {
		case p.Action == "opened":
			event.EventType = model.EventPROpened
		case p.Action == "closed" && p.PullRequest.Merged:
			event.EventType = model.EventPRMerged
		default:
			return model.IntegrationEvent{}, unsupported
		}
		number := p.PullRequest.Number
		if number == 0 {
			number = p.Number
		}
		event.ExternalResourceID = strconv.Itoa(number)
		event.Labels = FlattenLabels(p.PullRequest.Labels)
		event.Ref = &model.Ref{
			Branch: p.PullRequest.Head.Ref,
			Title:  p.PullRequest.Title,
			Body:   deref(p.PullRequest.Body),
		}

	case "push":
		branch, ok := strings.CutPrefix(p.Ref, "refs/heads/")
		if !ok || branch == "" {
			// Tag pushes and ref deletions carry no branch.
			return model.IntegrationEvent{}, unsupported
		}
		event.EventType = model.EventBranchPush
		event.ExternalResourceID = branch
		event.Ref = &model.Ref{Branch: branch}
		if p.HeadCommit != nil {
			event.Ref.Title = p.HeadCommit.Message
		}

	default:
		return model.IntegrationEvent{}, unsupported
	}

	return event, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
