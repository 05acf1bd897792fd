package redis

import (
	"context"
	"errors"
	"fmt"
	"issuebot/internal/types"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	userKeyNameTemplate = "_issuebot_user_%s"
)

// UserStore keeps one JSON value per user, so writes are atomic per user.
type UserStore struct {
	cli *redis.Client
}

func NewUserStore(cli *redis.Client) *UserStore {
	return &UserStore{cli: cli}
}

func (s *UserStore) GetUser(ctx context.Context, id string) (types.UserRecord, error) {
	out := s.cli.Get(ctx, getUserKey(id))
	if out.Err() != nil {
		if errors.Is(out.Err(), redis.Nil) {
			return types.UserRecord{}, types.ErrNotFound
		}
		return types.UserRecord{}, types.Err(types.ErrDataStoreAccess, out.Err(), "")
	}
	rec := types.NewUserRecord(id)
	if err := json.Unmarshal([]byte(out.Val()), &rec); err != nil {
		return types.UserRecord{}, types.Err(types.ErrDataStoreAccess, err, "user %s", id)
	}
	rec.ID = id
	if rec.Repos == nil {
		rec.Repos = []string{}
	}
	return rec, nil
}

func (s *UserStore) ListUsers(ctx context.Context) ([]string, error) {
	out := s.cli.Keys(ctx, getUserKey("*"))
	if out.Err() != nil {
		return nil, out.Err()
	}
	keys := out.Val()
	users := make([]string, 0, len(keys))
	prefixLen := len(getUserKey(""))
	for _, k := range keys {
		if len(k) > prefixLen {
			users = append(users, k[prefixLen:])
		}
	}
	return users, nil
}

func (s *UserStore) PutUser(ctx context.Context, rec types.UserRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("user id is required")
	}
	if rec.Repos == nil {
		rec.Repos = []string{}
	}
	out, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.cli.Set(ctx, getUserKey(rec.ID), string(out), 0).Err()
}

func (s *UserStore) ClearAll(ctx context.Context) error {
	out := s.cli.Keys(ctx, getUserKey("*"))
	if out.Err() != nil {
		return out.Err()
	}
	keys := out.Val()
	if len(keys) == 0 {
		return nil
	}
	return s.cli.Del(ctx, keys...).Err()
}

func getUserKey(id string) string {
	return fmt.Sprintf(userKeyNameTemplate, id)
}
