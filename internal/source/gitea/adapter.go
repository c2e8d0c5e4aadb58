// Package gitea reads issues from a Gitea (or Forgejo) instance.
package gitea

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/kaneo-automation/internal/integration"
	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/source"
	"github.com/nhle/kaneo-automation/internal/source/rest"
)

const pageSize = 50

// Adapter implements source.IssueSource for Gitea.
type Adapter struct {
	client *rest.Client
}

var _ source.IssueSource = (*Adapter)(nil)

// NewAdapter creates a Gitea source. baseURL is the instance root, e.g.
// https://gitea.example.com; the API prefix is appended here.
func NewAdapter(baseURL, token string) (*Adapter, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("gitea integration requires a base URL")
	}
	if !strings.HasSuffix(baseURL, "/api/v1") {
		baseURL += "/api/v1"
	}
	auth := ""
	if token != "" {
		auth = "token " + token
	}
	return &Adapter{client: rest.NewClient(model.IntegrationGitea, baseURL, auth)}, nil
}

// Type returns the provider identifier for Gitea.
func (a *Adapter) Type() model.IntegrationType {
	return model.IntegrationGitea
}

// ValidateConnection verifies the token by fetching the authenticated user.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	var user User
	if err := a.client.Get(ctx, "/user", &user); err != nil {
		return "", fmt.Errorf("validating Gitea connection: %w", err)
	}
	if user.name() == "" {
		return "", fmt.Errorf("gitea returned an empty login; token may be invalid")
	}
	return user.name(), nil
}

// ListOpenIssues pages through the repository's open issues.
func (a *Adapter) ListOpenIssues(ctx context.Context, repository string) ([]model.Issue, error) {
	owner, name, ok := strings.Cut(strings.Trim(repository, "/"), "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("repository %q is not owner/name", repository)
	}

	var all []model.Issue
	for page := 1; ; page++ {
		path := fmt.Sprintf(
			"/repos/%s/%s/issues?state=open&type=issues&limit=%d&page=%d",
			owner, name, pageSize, page,
		)

		var items []Issue
		if err := a.client.Get(ctx, path, &items); err != nil {
			return nil, fmt.Errorf("listing issues of %s: %w", repository, err)
		}

		for _, item := range items {
			if item.PullRequest != nil {
				continue
			}
			all = append(all, model.Issue{
				Number:  item.Number,
				Title:   item.Title,
				Body:    item.Body,
				HTMLURL: item.HTMLURL,
				Author:  item.User.name(),
				Labels:  integration.FlattenLabels(item.Labels),
			})
		}

		if len(items) < pageSize {
			break
		}
	}
	return all, nil
}
