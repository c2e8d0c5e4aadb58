package gitea

import "github.com/nhle/kaneo-automation/internal/integration"

// Issue is an item of GET /repos/{owner}/{repo}/issues.
type Issue struct {
	Number      int                    `json:"number"`
	Title       string                 `json:"title"`
	Body        *string                `json:"body"`
	HTMLURL     string                 `json:"html_url"`
	State       string                 `json:"state"`
	User        User                   `json:"user"`
	Labels      []integration.LabelRef `json:"labels"`
	PullRequest *PullRequestMeta       `json:"pull_request"`
}

// PullRequestMeta is set when an issue item is a pull request.
type PullRequestMeta struct {
	Merged bool `json:"merged"`
}

// User is a Gitea account.
type User struct {
	Login    string `json:"login"`
	Username string `json:"username"`
}

func (u User) name() string {
	if u.Login != "" {
		return u.Login
	}
	return u.Username
}
