package model

import "time"

// Integration connects a repository on a provider to a project. Webhook
// deliveries are routed to ProjectID by (Type, Repository).
type Integration struct {
	ID         string          `json:"id" db:"id"`
	ProjectID  string          `json:"project_id" db:"project_id"`
	Type       IntegrationType `json:"type" db:"type"`
	Repository string          `json:"repository" db:"repository"`

	// BaseURL is the API root, required for Gitea and optional for GitHub
	// Enterprise.
	BaseURL string `json:"base_url" db:"base_url"`

	// ImportIssues enables the scheduled issue importer.
	ImportIssues bool      `json:"import_issues" db:"import_issues"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// WebhookSecretKey is the credential key holding the integration's
// webhook signing secret.
func (i Integration) WebhookSecretKey() string {
	return "webhook-" + i.ID
}

// TokenKey is the credential key holding the integration's API token.
func (i Integration) TokenKey() string {
	return "token-" + i.ID
}
