package application

import (
	"fmt"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

// Message wording is a contract: the channel's readers (and the tests)
// rely on these exact shapes.

// formatRepoMessage renders the new-repository notification.
func formatRepoMessage(repo model.RepoSummary) string {
	return fmt.Sprintf("`%s` just published `%s`%s %s", repo.Owner, repo.Name, descriptionPart(repo), repo.URL)
}

// formatStarMessage renders the new-star notification, attributed to
// the watched user who starred the repository.
func formatStarMessage(username string, repo model.RepoSummary) string {
	return fmt.Sprintf("`%s` just starred `%s`%s %s", username, repo.Name, descriptionPart(repo), repo.URL)
}

func descriptionPart(repo model.RepoSummary) string {
	if repo.Description == "" {
		return ""
	}
	return " " + repo.Description
}
