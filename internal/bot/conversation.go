package bot

import (
	"context"
	"issuebot/internal/flow"
	"time"

	log "github.com/sirupsen/logrus"
)

// PromptKind says what a pending reply prompt will do with the answer.
type PromptKind int

const (
	PromptRepoAdd PromptKind = iota
	PromptRepoDel
	PromptToken
)

var promptCommand = map[PromptKind]string{
	PromptRepoAdd: "repoadd",
	PromptRepoDel: "repodel",
	PromptToken:   "tokenadd",
}

// Prompt is a message the bot sent that is awaiting a reply. UserID is the
// user who issued the command; the answer is applied to that user's record.
type Prompt struct {
	Kind      PromptKind
	UserID    string
	ChatID    int64
	MessageID int
}

type promptKey struct {
	chatID    int64
	messageID int
}

// Conversations tracks prompts awaiting a reply. A prompt leaves the
// awaiting state exactly once: Resolve hands it to a single caller, and
// once its TTL has passed Expired or Abandon hands it out for cancellation.
type Conversations struct {
	pending *flow.TTL[promptKey, Prompt]
	ttl     time.Duration
}

func NewConversations(ttl time.Duration) *Conversations {
	return &Conversations{pending: flow.NewTTL[promptKey, Prompt](), ttl: ttl}
}

func (c *Conversations) Await(p Prompt) {
	c.pending.Set(promptKey{chatID: p.ChatID, messageID: p.MessageID}, p, c.ttl)
}

// Resolve consumes the prompt answered by a reply to messageID in chatID.
func (c *Conversations) Resolve(chatID int64, messageID int) (Prompt, bool) {
	return c.pending.Take(promptKey{chatID: chatID, messageID: messageID})
}

// Expired consumes the prompt answered by a reply that arrived after the
// prompt's TTL but before the sweeper removed it.
func (c *Conversations) Expired(chatID int64, messageID int) (Prompt, bool) {
	return c.pending.TakeExpired(promptKey{chatID: chatID, messageID: messageID})
}

// Abandon drops every expired prompt and returns them.
func (c *Conversations) Abandon() []Prompt {
	expired := c.pending.Sweep()
	out := make([]Prompt, 0, len(expired))
	for _, p := range expired {
		out = append(out, p)
	}
	return out
}

func (c *Conversations) Pending() int {
	return c.pending.Len()
}

// RunSweeper abandons expired prompts every interval until ctx is done.
// onAbandon, if set, is called for each abandoned prompt.
func (c *Conversations) RunSweeper(ctx context.Context, interval time.Duration, onAbandon func(Prompt)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, p := range c.Abandon() {
				log.WithFields(log.Fields{
					"chatID":  p.ChatID,
					"userID":  p.UserID,
					"command": promptCommand[p.Kind],
				}).Debug("Prompt abandoned")
				if onAbandon != nil {
					onAbandon(p)
				}
			}
		}
	}
}
