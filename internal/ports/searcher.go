package ports

import (
	"context"
	"issuebot/internal/types"
)

// IssueSearcher queries the issue tracker for one repository.
type IssueSearcher interface {
	// SearchRepo returns the issues of repo matching keyword, in upstream order.
	// An empty token means an unauthenticated request.
	SearchRepo(ctx context.Context, repo, keyword, token string) ([]types.Issue, error)
}
