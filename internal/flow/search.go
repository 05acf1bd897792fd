package flow

import (
	"context"
	"fmt"
	"issuebot/internal/ports"
	"issuebot/internal/types"

	"golang.org/x/sync/errgroup"
)

// SearchIssues runs one search per registered repo concurrently and
// concatenates the results in rec.Repos order, each repo's hits kept in
// upstream order. The first failing repo fails the whole search and cancels
// the others; no partial result is returned. A panicking searcher counts
// as a failure.
func SearchIssues(ctx context.Context, searcher ports.IssueSearcher, rec types.UserRecord, keyword string) ([]types.Issue, error) {
	if rec.InValid() {
		return nil, types.ErrNoRepos
	}
	perRepo := make([][]types.Issue, len(rec.Repos))
	token := rec.TokenValue()

	g, gctx := errgroup.WithContext(ctx)
	for i, repo := range rec.Repos {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("search in %s panicked: %v", repo, r)
				}
			}()
			issues, err := searcher.SearchRepo(gctx, repo, keyword, token)
			if err != nil {
				return err
			}
			perRepo[i] = issues
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, issues := range perRepo {
		total += len(issues)
	}
	out := make([]types.Issue, 0, total)
	for _, issues := range perRepo {
		out = append(out, issues...)
	}
	return out, nil
}
