package driven

import (
	"context"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

// GitHubClient defines the driven port for reading user activity from
// the GitHub API. Non-success responses surface as errors, never as
// partial or empty results.
type GitHubClient interface {
	// ListCreatedRepos returns up to limit repositories owned by
	// username, most recently created first.
	ListCreatedRepos(ctx context.Context, username string, limit int) ([]model.RepoSummary, error)
	// ListStarredRepos returns up to limit repositories starred by
	// username, most recently starred first.
	ListStarredRepos(ctx context.Context, username string, limit int) ([]model.RepoSummary, error)
}
