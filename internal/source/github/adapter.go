// Package github reads issues from the GitHub REST API.
package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/kaneo-automation/internal/integration"
	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/source"
	"github.com/nhle/kaneo-automation/internal/source/rest"
)

// DefaultBaseURL is the public GitHub API.
const DefaultBaseURL = "https://api.github.com"

const pageSize = 100

// Adapter implements source.IssueSource for GitHub and GitHub Enterprise.
type Adapter struct {
	client *rest.Client
}

var _ source.IssueSource = (*Adapter)(nil)

// NewAdapter creates a GitHub source. An empty baseURL targets github.com;
// an empty token sends unauthenticated requests, enough for public repos.
func NewAdapter(baseURL, token string) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	auth := ""
	if token != "" {
		auth = "Bearer " + token
	}
	return &Adapter{client: rest.NewClient(model.IntegrationGitHub, baseURL, auth)}
}

// Type returns the provider identifier for GitHub.
func (a *Adapter) Type() model.IntegrationType {
	return model.IntegrationGitHub
}

// ValidateConnection verifies the token by fetching the authenticated user.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	var user User
	if err := a.client.Get(ctx, "/user", &user); err != nil {
		return "", fmt.Errorf("validating GitHub connection: %w", err)
	}
	if user.Login == "" {
		return "", fmt.Errorf("GitHub returned an empty login; token may be invalid")
	}
	return user.Login, nil
}

// ListOpenIssues pages through the repository's open issues.
func (a *Adapter) ListOpenIssues(ctx context.Context, repository string) ([]model.Issue, error) {
	owner, name, err := splitRepository(repository)
	if err != nil {
		return nil, err
	}

	var all []model.Issue
	for page := 1; ; page++ {
		path := fmt.Sprintf(
			"/repos/%s/%s/issues?state=open&sort=created&direction=asc&per_page=%d&page=%d",
			owner, name, pageSize, page,
		)

		var items []Issue
		if err := a.client.Get(ctx, path, &items); err != nil {
			return nil, fmt.Errorf("listing issues of %s: %w", repository, err)
		}

		for _, item := range items {
			if item.IsPullRequest() {
				continue
			}
			all = append(all, model.Issue{
				Number:  item.Number,
				Title:   item.Title,
				Body:    item.Body,
				HTMLURL: item.HTMLURL,
				Author:  item.User.Login,
				Labels:  integration.FlattenLabels(item.Labels),
			})
		}

		if len(items) < pageSize {
			break
		}
	}
	return all, nil
}

func splitRepository(repository string) (string, string, error) {
	owner, name, ok := strings.Cut(strings.Trim(repository, "/"), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repository %q is not owner/name", repository)
	}
	return owner, name, nil
}
