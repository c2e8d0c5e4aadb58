package integration

import "github.com/nhle/kaneo-automation/internal/model"

const noDescription = "No description provided"

// FormatTaskDescription builds the description of a task imported from an
// issue. The exact format is relied upon by existing boards, including the
// provider word, which reads "GitHub" for every provider.
func FormatTaskDescription(issue model.Issue) string {
	body := noDescription
	if issue.Body != nil && *issue.Body != "" {
		body = *issue.Body
	}
	return body + "\n\n---\n*Created from GitHub issue: " + issue.HTMLURL + "*"
}
