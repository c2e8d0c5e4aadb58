package sync

import (
	"fmt"

	"github.com/nhle/kaneo-automation/internal/model"
	"github.com/nhle/kaneo-automation/internal/source"
	"github.com/nhle/kaneo-automation/internal/source/gitea"
	"github.com/nhle/kaneo-automation/internal/source/github"
)

// TokenLookup returns the credential stored under key, or "" if none.
type TokenLookup func(key string) (string, error)

// NewSourceFactory returns a SourceFactory that authenticates with the
// integration's stored API token.
func NewSourceFactory(tokens TokenLookup) SourceFactory {
	return func(in model.Integration) (source.IssueSource, error) {
		token, err := tokens(in.TokenKey())
		if err != nil {
			return nil, fmt.Errorf("reading token for %s: %w", in.Repository, err)
		}

		switch in.Type {
		case model.IntegrationGitHub:
			return github.NewAdapter(in.BaseURL, token), nil
		case model.IntegrationGitea:
			adapter, err := gitea.NewAdapter(in.BaseURL, token)
			if err != nil {
				return nil, err
			}
			return adapter, nil
		default:
			return nil, fmt.Errorf("unsupported integration type %q", in.Type)
		}
	}
}
