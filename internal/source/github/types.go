package github

import (
	"encoding/json"

	"github.com/nhle/kaneo-automation/internal/integration"
)

// Issue is an item of GET /repos/{owner}/{repo}/issues. Pull requests are
// returned by the same endpoint and carry a pull_request object.
type Issue struct {
	Number      int                    `json:"number"`
	Title       string                 `json:"title"`
	Body        *string                `json:"body"`
	HTMLURL     string                 `json:"html_url"`
	State       string                 `json:"state"`
	User        User                   `json:"user"`
	Labels      []integration.LabelRef `json:"labels"`
	PullRequest json.RawMessage        `json:"pull_request,omitempty"`
}

// IsPullRequest reports whether the item is a pull request.
func (i Issue) IsPullRequest() bool {
	return len(i.PullRequest) > 0 && string(i.PullRequest) != "null"
}

// User is a GitHub account.
type User struct {
	Login string `json:"login"`
	Name  string `json:"name"`
}
