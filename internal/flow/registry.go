package flow

import (
	"context"
	"errors"
	"issuebot/internal/ports"
	"issuebot/internal/types"
	"slices"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// ChangeEvent is published after a registry mutation has been persisted.
// It never carries the token value.
type ChangeEvent struct {
	Event  string `json:"event"`
	UserID string `json:"user_id"`
	Repo   string `json:"repo,omitempty"`
	At     int64  `json:"at"`
}

// Registry mutates one user's repos and token and persists each change.
// Persistence is best effort: write failures are logged, never returned.
type Registry struct {
	store ports.UserStore
	pub   ports.Publisher
	topic string
}

// NewRegistry wires a registry. pub may be nil, and events are only
// published when topic is non-empty.
func NewRegistry(store ports.UserStore, pub ports.Publisher, topic string) *Registry {
	return &Registry{store: store, pub: pub, topic: topic}
}

// Load never fails: a missing, unreadable or corrupt record yields the
// default empty record for id.
func (r *Registry) Load(ctx context.Context, id string) types.UserRecord {
	rec, err := r.store.GetUser(ctx, id)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			log.WithError(err).WithField("userID", id).Warn("failed to load user, using empty record")
		}
		return types.NewUserRecord(id)
	}
	rec.ID = id
	return rec
}

// AddRepo appends repo unless it is already registered. repo must already
// be a valid repo path.
func (r *Registry) AddRepo(ctx context.Context, rec *types.UserRecord, repo string) {
	if rec.HasRepo(repo) {
		return
	}
	rec.Repos = append(rec.Repos, repo)
	r.persist(ctx, rec, EventRepoAdded, repo)
}

func (r *Registry) RemoveRepo(ctx context.Context, rec *types.UserRecord, repo string) {
	idx := slices.Index(rec.Repos, repo)
	if idx < 0 {
		return
	}
	rec.Repos = slices.Delete(rec.Repos, idx, idx+1)
	r.persist(ctx, rec, EventRepoRemoved, repo)
}

func (r *Registry) ClearRepos(ctx context.Context, rec *types.UserRecord) {
	rec.Repos = []string{}
	r.persist(ctx, rec, EventReposCleared, "")
}

// SetToken replaces any existing token. Blank tokens are rejected by the
// caller before this point.
func (r *Registry) SetToken(ctx context.Context, rec *types.UserRecord, token string) {
	rec.Token = &token
	r.persist(ctx, rec, EventTokenSet, "")
}

func (r *Registry) ClearToken(ctx context.Context, rec *types.UserRecord) {
	rec.Token = nil
	r.persist(ctx, rec, EventTokenCleared, "")
}

func (r *Registry) persist(ctx context.Context, rec *types.UserRecord, event, repo string) {
	if err := r.store.PutUser(ctx, *rec); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"userID": rec.ID,
			"event":  event,
		}).Error("failed to persist user")
		return
	}
	r.publish(ctx, ChangeEvent{Event: event, UserID: rec.ID, Repo: repo, At: EpochTime()})
}

func (r *Registry) publish(ctx context.Context, ev ChangeEvent) {
	if r.pub == nil || r.topic == "" {
		return
	}
	b, err := json.Marshal(ev)
	if err != nil {
		log.WithError(err).Error("failed to marshal change event")
		return
	}
	if err := r.pub.PublishRaw(ctx, r.topic, b); err != nil {
		log.WithError(err).WithField("event", ev.Event).Warn("failed to publish change event")
	}
}
