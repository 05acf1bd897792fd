package flow

import (
	"context"
	"errors"
	"fmt"
	"issuebot/internal/types"
	"sync"
	"time"
)

type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]types.Issue
	errs    map[string]error
	delays  map[string]time.Duration
	calls   []string
	tokens  []string
}

func (f *fakeSearcher) SearchRepo(ctx context.Context, repo, keyword, token string) ([]types.Issue, error) {
	f.mu.Lock()
	f.calls = append(f.calls, repo)
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
	if d := f.delays[repo]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[repo]; err != nil {
		return nil, err
	}
	return f.results[repo], nil
}

func issues(repo string, n int) []types.Issue {
	out := make([]types.Issue, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, types.Issue{
			Title:   fmt.Sprintf("%s #%d", repo, i),
			HTMLURL: fmt.Sprintf("https://github.com/%s/issues/%d", repo, i),
		})
	}
	return out
}

func (s *UnitTestSuite) TestSearchIssuesPreservesRepoAndResultOrder() {
	rec := types.UserRecord{ID: "1", Repos: []string{"o/a", "o/b", "o/c"}}
	f := &fakeSearcher{
		results: map[string][]types.Issue{
			"o/a": issues("o/a", 2),
			"o/b": {},
			"o/c": issues("o/c", 3),
		},
		// the first repo answers last; order must still follow rec.Repos
		delays: map[string]time.Duration{"o/a": 30 * time.Millisecond},
	}
	got, err := SearchIssues(context.Background(), f, rec, "bug")
	s.NoError(err)
	want := append(issues("o/a", 2), issues("o/c", 3)...)
	s.Equal(want, got)
	s.ElementsMatch([]string{"o/a", "o/b", "o/c"}, f.calls)
}

func (s *UnitTestSuite) TestSearchIssuesFailsFast() {
	rec := types.UserRecord{ID: "1", Repos: []string{"o/a", "o/b", "o/c"}}
	boom := &types.UpstreamError{StatusCode: 403, Message: "API rate limit exceeded"}
	f := &fakeSearcher{
		results: map[string][]types.Issue{
			"o/a": issues("o/a", 2),
			"o/c": issues("o/c", 3),
		},
		errs:   map[string]error{"o/b": boom},
		delays: map[string]time.Duration{"o/c": 5 * time.Second},
	}
	start := time.Now()
	got, err := SearchIssues(context.Background(), f, rec, "bug")
	s.Nil(got)
	s.True(errors.Is(err, types.ErrUpstream))
	s.Equal("API rate limit exceeded", err.Error())
	s.Less(time.Since(start), 2*time.Second, "siblings should be cancelled")
}

func (s *UnitTestSuite) TestSearchIssuesAllEmpty() {
	rec := types.UserRecord{ID: "1", Repos: []string{"octo/one", "octo/two"}}
	got, err := SearchIssues(context.Background(), &fakeSearcher{}, rec, "bug")
	s.NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func (s *UnitTestSuite) TestSearchIssuesPassesToken() {
	tok := "ghp_1"
	rec := types.UserRecord{ID: "1", Repos: []string{"octo/one"}, Token: &tok}
	f := &fakeSearcher{}
	_, err := SearchIssues(context.Background(), f, rec, "bug")
	s.NoError(err)
	s.Equal([]string{"ghp_1"}, f.tokens)
}

func (s *UnitTestSuite) TestSearchIssuesInvalidRecord() {
	f := &fakeSearcher{}
	_, err := SearchIssues(context.Background(), f, types.NewUserRecord("1"), "bug")
	s.ErrorIs(err, types.ErrNoRepos)
	s.Empty(f.calls)
}

func (s *UnitTestSuite) TestEndToEndScenario() {
	rec := types.UserRecord{ID: "1", Repos: []string{"octo/one", "octo/two"}}
	f := &fakeSearcher{results: map[string][]types.Issue{
		"octo/one": {{Title: "A", HTMLURL: "u1"}},
		"octo/two": {},
	}}
	got, err := SearchIssues(context.Background(), f, rec, "bug")
	s.NoError(err)
	s.Equal([]types.Issue{{Title: "A", HTMLURL: "u1"}}, got)
	s.Equal("1. A：u1", RenderIssues(Paginate(got, types.PageSize)[0]))
}

type panicSearcher struct{}

func (panicSearcher) SearchRepo(ctx context.Context, repo, keyword, token string) ([]types.Issue, error) {
	panic("nil map")
}

func (s *UnitTestSuite) TestSearchIssuesRecoversPanics() {
	rec := types.UserRecord{ID: "1", Repos: []string{"o/a"}}
	got, err := SearchIssues(context.Background(), panicSearcher{}, rec, "bug")
	s.Nil(got)
	s.ErrorContains(err, "search in o/a panicked: nil map")
}
