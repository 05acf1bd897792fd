package flow

import (
	"context"
	"errors"
	"issuebot/internal/types"
	"time"
)

func (s *UnitTestSuite) TestLoadDefaultsToEmptyRecord() {
	rec := s.registry.Load(context.Background(), "100")
	s.Equal("100", rec.ID)
	s.Equal([]string{}, rec.Repos)
	s.Nil(rec.Token)
	s.True(rec.InValid())
	s.Equal(0, s.store.puts, "loading must not persist")
}

func (s *UnitTestSuite) TestLoadFailsSoft() {
	s.store.failGet = errors.New("disk on fire")
	rec := s.registry.Load(context.Background(), "100")
	s.Equal(types.NewUserRecord("100"), rec)
}

func (s *UnitTestSuite) TestAddRepoIsIdempotent() {
	ctx := context.Background()
	rec := s.registry.Load(ctx, "1")
	s.registry.AddRepo(ctx, &rec, "octo/one")
	s.registry.AddRepo(ctx, &rec, "octo/one")
	s.registry.AddRepo(ctx, &rec, "octo/two")

	s.Equal([]string{"octo/one", "octo/two"}, rec.Repos)
	s.Equal(2, s.store.puts)

	stored := s.registry.Load(ctx, "1")
	s.Equal([]string{"octo/one", "octo/two"}, stored.Repos)
	s.False(stored.InValid())
}

func (s *UnitTestSuite) TestRemoveRepoTwiceIsNoOp() {
	ctx := context.Background()
	rec := s.registry.Load(ctx, "1")
	s.registry.AddRepo(ctx, &rec, "octo/one")
	s.registry.AddRepo(ctx, &rec, "octo/two")

	s.registry.RemoveRepo(ctx, &rec, "octo/one")
	s.Equal([]string{"octo/two"}, rec.Repos)
	puts := s.store.puts

	s.registry.RemoveRepo(ctx, &rec, "octo/one")
	s.Equal([]string{"octo/two"}, rec.Repos)
	s.Equal(puts, s.store.puts, "second removal must not write")
}

func (s *UnitTestSuite) TestClearReposMakesRecordInvalid() {
	ctx := context.Background()
	rec := s.registry.Load(ctx, "1")
	s.registry.AddRepo(ctx, &rec, "octo/one")
	s.registry.ClearRepos(ctx, &rec)
	s.True(rec.InValid())
	s.True(s.registry.Load(ctx, "1").InValid())
}

func (s *UnitTestSuite) TestTokenLifecycle() {
	ctx := context.Background()
	rec := s.registry.Load(ctx, "1")
	s.registry.SetToken(ctx, &rec, "ghp_old")
	s.registry.SetToken(ctx, &rec, "ghp_new")
	s.Equal("ghp_new", s.registry.Load(ctx, "1").TokenValue())

	s.registry.ClearToken(ctx, &rec)
	s.Nil(rec.Token)
	s.False(s.registry.Load(ctx, "1").HasToken())
}

func (s *UnitTestSuite) TestWriteFailureIsSwallowed() {
	ctx := context.Background()
	s.store.failPut = errors.New("read-only file system")
	rec := s.registry.Load(ctx, "1")
	s.registry.AddRepo(ctx, &rec, "octo/one")

	// in-memory state still reflects the change; nothing was published
	s.Equal([]string{"octo/one"}, rec.Repos)
	s.Empty(s.pub.payloads)
}

func (s *UnitTestSuite) TestChangeEventsArePublishedWithoutToken() {
	ctx := context.Background()
	SetTimeNowFn(func() time.Time { return time.Unix(1_700_000_000, 0) })
	rec := s.registry.Load(ctx, "7")
	s.registry.AddRepo(ctx, &rec, "octo/one")
	s.registry.SetToken(ctx, &rec, "ghp_secret")

	s.Len(s.pub.payloads, 2)
	s.JSONEq(`{"event":"repo_added","user_id":"7","repo":"octo/one","at":1700000000}`, s.pub.payloads[0])
	s.JSONEq(`{"event":"token_set","user_id":"7","at":1700000000}`, s.pub.payloads[1])
	s.NotContains(s.pub.payloads[1], "ghp_secret")
	s.Equal("arn:aws:sns:us-east-1:000000000000:issuebot", s.pub.topics[0])
}

func (s *UnitTestSuite) TestNoTopicNoEvents() {
	ctx := context.Background()
	r := NewRegistry(s.store, s.pub, "")
	rec := r.Load(ctx, "7")
	r.AddRepo(ctx, &rec, "octo/one")
	s.Empty(s.pub.payloads)
}
