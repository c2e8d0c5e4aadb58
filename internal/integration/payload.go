package integration

import (
	"encoding/json"
	"fmt"
)

// webhookPayload is the union of the GitHub and Gitea delivery fields the
// service reads. Gitea mirrors GitHub's shapes for the events handled here.
type webhookPayload struct {
	Action      string         `json:"action"`
	Issue       *issuePayload  `json:"issue"`
	PullRequest *pullPayload   `json:"pull_request"`
	Number      int            `json:"number"`
	Ref         string         `json:"ref"`
	HeadCommit  *commitPayload `json:"head_commit"`
	Repository  repoPayload    `json:"repository"`
}

type issuePayload struct {
	Number  int         `json:"number"`
	Title   string      `json:"title"`
	Body    *string     `json:"body"`
	HTMLURL string      `json:"html_url"`
	User    userPayload `json:"user"`
	Labels  []LabelRef  `json:"labels"`
}

type pullPayload struct {
	Number  int         `json:"number"`
	Title   string      `json:"title"`
	Body    *string     `json:"body"`
	HTMLURL string      `json:"html_url"`
	Merged  bool        `json:"merged"`
	User    userPayload `json:"user"`
	Labels  []LabelRef  `json:"labels"`
	Head    struct {
		Ref string `json:"ref"`
	} `json:"head"`
}

type commitPayload struct {
	Message string `json:"message"`
}

type userPayload struct {
	Login string `json:"login"`

	// Gitea sends username alongside login on some versions.
	Username string `json:"username"`
}

func (u userPayload) name() string {
	if u.Login != "" {
		return u.Login
	}
	return u.Username
}

type repoPayload struct {
	FullName string `json:"full_name"`
}

func decodePayload(payload []byte) (*webhookPayload, error) {
	var p webhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decoding webhook payload: %w", err)
	}
	return &p, nil
}

// ExtractRepository returns repository.full_name from a delivery, used to
// route it to the integration that owns the repository.
func ExtractRepository(payload []byte) (string, error) {
	p, err := decodePayload(payload)
	if err != nil {
		return "", err
	}
	if p.Repository.FullName == "" {
		return "", fmt.Errorf("webhook payload has no repository.full_name")
	}
	return p.Repository.FullName, nil
}
