// Package source defines the contract for reading issues from a code host.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/kaneo-automation/internal/model"
)

// AuthError indicates that authentication has failed or expired for a
// provider. It is returned by clients when a 401 response is received.
type AuthError struct {
	Provider model.IntegrationType
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Provider, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IssueSource lists issues of a repository on one provider.
type IssueSource interface {
	// Type returns the provider this source reads from.
	Type() model.IntegrationType

	// ValidateConnection verifies credentials and connectivity.
	// Returns the authenticated user's login on success.
	ValidateConnection(ctx context.Context) (string, error)

	// ListOpenIssues returns every open issue of repository ("owner/name"),
	// excluding pull requests.
	ListOpenIssues(ctx context.Context, repository string) ([]model.Issue, error)
}
