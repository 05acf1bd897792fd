package bot

import (
	"context"
	"fmt"
	"issuebot/internal/flow"
	"issuebot/internal/ports"
	"issuebot/internal/types"
	"regexp"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultSearchRPM = 10
	searchScopeFmt   = "SEARCH:%s"
)

var commandRe = regexp.MustCompile(`^/([a-z]+)(@[A-Za-z0-9_]+)?$`)

// Handler is the application context shared by every command handler.
type Handler struct {
	Messenger ports.Messenger
	Registry  *flow.Registry
	Searcher  ports.IssueSearcher
	Limiter   ports.RateLimiter
	Prompts   *Conversations
	// SearchRPM bounds searches per user per minute; 0 disables the limit.
	SearchRPM int
	// BotName is the bot's username. Commands with an @ suffix naming another
	// bot are ignored; an empty BotName accepts any suffix.
	BotName string

	commands map[string]func(context.Context, types.InboundMessage)
}

func NewHandler(
	messenger ports.Messenger,
	registry *flow.Registry,
	searcher ports.IssueSearcher,
	limiter ports.RateLimiter,
	prompts *Conversations,
	searchRPM int,
) *Handler {
	h := &Handler{
		Messenger: messenger,
		Registry:  registry,
		Searcher:  searcher,
		Limiter:   limiter,
		Prompts:   prompts,
		SearchRPM: searchRPM,
	}
	h.commands = map[string]func(context.Context, types.InboundMessage){
		"help":       h.doHelp,
		"start":      h.doHelp,
		"about":      h.doAbout,
		"tokenadd":   h.doTokenAdd,
		"tokenclear": h.doTokenClear,
		"repoadd":    h.doRepoAdd,
		"repodel":    h.doRepoDel,
		"repolist":   h.doRepoList,
		"repoclear":  h.doRepoClear,
	}
	return h
}

// HandleMessage dispatches one inbound message. A panic is logged and
// confined to this message.
func (h *Handler) HandleMessage(ctx context.Context, msg types.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"chatID":    msg.ChatID,
				"messageID": msg.MessageID,
			}).Errorf("panic while handling message: %v", r)
		}
	}()

	if msg.IsReply() {
		if p, ok := h.Prompts.Resolve(msg.ChatID, msg.ReplyToMessageID); ok {
			h.resolvePrompt(ctx, p, msg)
			return
		}
		if p, ok := h.Prompts.Expired(msg.ChatID, msg.ReplyToMessageID); ok {
			h.abandonPrompt(ctx, p)
			return
		}
	}
	if cmd, mention, ok := parseCommand(msg.Text); ok {
		if mention != "" && h.BotName != "" && !strings.EqualFold(mention, h.BotName) {
			// addressed to another bot in the same group
			return
		}
		if fn, known := h.commands[cmd]; known {
			fn(ctx, msg)
			return
		}
	}
	h.doSearch(ctx, msg)
}

// parseCommand splits "/cmd@botname" into the command and the bot name,
// which is empty when no @ suffix is given.
func parseCommand(text string) (cmd, mention string, ok bool) {
	m := commandRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimPrefix(m[2], "@"), true
}

func userID(msg types.InboundMessage) string {
	return strconv.FormatInt(msg.UserID, 10)
}

func (h *Handler) reply(ctx context.Context, out types.OutboundMessage) int {
	id, err := h.Messenger.Send(ctx, out)
	if err != nil {
		log.WithError(err).WithField("chatID", out.ChatID).Error("failed to send message")
	}
	return id
}

func (h *Handler) edit(ctx context.Context, messageID int, out types.OutboundMessage) {
	if err := h.Messenger.Edit(ctx, out.ChatID, messageID, out); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"chatID":    out.ChatID,
			"messageID": messageID,
		}).Error("failed to edit message")
	}
}

func (h *Handler) doHelp(ctx context.Context, msg types.InboundMessage) {
	h.reply(ctx, types.OutboundMessage{ChatID: msg.ChatID, Text: textHelp})
}

func (h *Handler) doAbout(ctx context.Context, msg types.InboundMessage) {
	h.reply(ctx, types.OutboundMessage{ChatID: msg.ChatID, Text: textAbout, Markdown: true})
}

func (h *Handler) doTokenAdd(ctx context.Context, msg types.InboundMessage) {
	rec := h.Registry.Load(ctx, userID(msg))
	text := textTokenPromptNew
	if rec.HasToken() {
		text = textTokenPromptReplace
	}
	h.prompt(ctx, msg, PromptToken, text)
}

func (h *Handler) doTokenClear(ctx context.Context, msg types.InboundMessage) {
	rec := h.Registry.Load(ctx, userID(msg))
	if !rec.HasToken() {
		h.reply(ctx, types.OutboundMessage{ChatID: msg.ChatID, Text: textTokenMissing})
		return
	}
	h.Registry.ClearToken(ctx, &rec)
	h.reply(ctx, types.OutboundMessage{ChatID: msg.ChatID, Text: textTokenCleared})
}

func (h *Handler) doRepoAdd(ctx context.Context, msg types.InboundMessage) {
	h.prompt(ctx, msg, PromptRepoAdd, textRepoAddPrompt)
}

func (h *Handler) doRepoDel(ctx context.Context, msg types.InboundMessage) {
	h.prompt(ctx, msg, PromptRepoDel, textRepoDelPrompt)
}

func (h *Handler) doRepoList(ctx context.Context, msg types.InboundMessage) {
	rec := h.Registry.Load(ctx, userID(msg))
	if len(rec.Repos) == 0 {
		h.reply(ctx, types.OutboundMessage{ChatID: msg.ChatID, Text: textNoRepo})
		return
	}
	h.reply(ctx, types.OutboundMessage{
		ChatID:         msg.ChatID,
		Text:           flow.RenderRepoList(rec.Repos),
		Markdown:       true,
		DisablePreview: true,
	})
}

func (h *Handler) doRepoClear(ctx context.Context, msg types.InboundMessage) {
	rec := h.Registry.Load(ctx, userID(msg))
	h.Registry.ClearRepos(ctx, &rec)
	h.reply(ctx, types.OutboundMessage{ChatID: msg.ChatID, Text: textReposCleared})
}

// prompt sends a force-reply message and registers it as awaiting a reply.
func (h *Handler) prompt(ctx context.Context, msg types.InboundMessage, kind PromptKind, text string) {
	id, err := h.Messenger.Send(ctx, types.OutboundMessage{
		ChatID:           msg.ChatID,
		Text:             text,
		Markdown:         true,
		ForceReply:       true,
		ReplyToMessageID: msg.MessageID,
	})
	if err != nil {
		log.WithError(err).WithField("chatID", msg.ChatID).Error("failed to send prompt")
		return
	}
	h.Prompts.Await(Prompt{Kind: kind, UserID: userID(msg), ChatID: msg.ChatID, MessageID: id})
}

func (h *Handler) resolvePrompt(ctx context.Context, p Prompt, msg types.InboundMessage) {
	if err := h.Messenger.Delete(ctx, p.ChatID, p.MessageID); err != nil {
		log.WithError(err).WithField("chatID", p.ChatID).Warn("failed to delete prompt")
	}
	answer := strings.TrimSpace(msg.Text)
	rec := h.Registry.Load(ctx, p.UserID)

	switch p.Kind {
	case PromptToken:
		if answer == "" {
			h.reply(ctx, types.OutboundMessage{ChatID: p.ChatID, Text: textTokenInvalid})
			return
		}
		h.Registry.SetToken(ctx, &rec, answer)
		h.reply(ctx, types.OutboundMessage{ChatID: p.ChatID, Text: textTokenAdded})

	case PromptRepoAdd, PromptRepoDel:
		if !types.ValidRepoPath(answer) {
			h.reply(ctx, types.OutboundMessage{ChatID: p.ChatID, Text: textRepoInvalid})
			return
		}
		prefix := textRepoAdded
		if p.Kind == PromptRepoAdd {
			h.Registry.AddRepo(ctx, &rec, answer)
		} else {
			h.Registry.RemoveRepo(ctx, &rec, answer)
			prefix = textRepoDeleted
		}
		h.reply(ctx, types.OutboundMessage{
			ChatID:         p.ChatID,
			Text:           prefix + flow.RenderRepoList(rec.Repos),
			Markdown:       true,
			DisablePreview: true,
		})
	}
}

// abandonPrompt removes the prompt message of a prompt that got no reply.
func (h *Handler) abandonPrompt(ctx context.Context, p Prompt) {
	if err := h.Messenger.Delete(ctx, p.ChatID, p.MessageID); err != nil {
		log.WithError(err).WithField("chatID", p.ChatID).Debug("failed to delete abandoned prompt")
	}
	h.reply(ctx, types.OutboundMessage{
		ChatID: p.ChatID,
		Text:   fmt.Sprintf(textPromptExpiredFormat, promptCommand[p.Kind]),
	})
}

func (h *Handler) doSearch(ctx context.Context, msg types.InboundMessage) {
	if msg.IsReply() {
		return
	}
	rec := h.Registry.Load(ctx, userID(msg))
	if rec.InValid() {
		h.reply(ctx, types.OutboundMessage{ChatID: msg.ChatID, Text: textAddRepoFirst})
		return
	}
	keyword := strings.TrimSpace(msg.Text)
	if types.KeywordLength(keyword) < types.MinKeywordLength {
		h.reply(ctx, types.OutboundMessage{ChatID: msg.ChatID, Text: textKeywordTooShort})
		return
	}
	if !h.acquireSearch(ctx, rec.ID) {
		h.reply(ctx, types.OutboundMessage{ChatID: msg.ChatID, Text: textRateLimited})
		return
	}

	placeholder, err := h.Messenger.Send(ctx, types.OutboundMessage{ChatID: msg.ChatID, Text: textSearching})
	if err != nil {
		log.WithError(err).WithField("chatID", msg.ChatID).Error("failed to send placeholder")
		return
	}

	started := time.Now()
	issues, err := flow.SearchIssues(ctx, h.Searcher, rec, keyword)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"userID": rec.ID,
			"repos":  len(rec.Repos),
		}).Warn("search failed")
		h.edit(ctx, placeholder, types.OutboundMessage{ChatID: msg.ChatID, Text: err.Error()})
		return
	}
	log.WithFields(log.Fields{
		"userID":  rec.ID,
		"repos":   len(rec.Repos),
		"matches": len(issues),
		"elapsed": time.Since(started).String(),
	}).Info("search completed")

	if len(issues) == 0 {
		h.edit(ctx, placeholder, types.OutboundMessage{
			ChatID:   msg.ChatID,
			Text:     fmt.Sprintf(textNoMatchTemplate, keyword),
			Markdown: true,
		})
		return
	}
	pages := flow.Paginate(issues, types.PageSize)
	h.edit(ctx, placeholder, types.OutboundMessage{
		ChatID:   msg.ChatID,
		Text:     fmt.Sprintf(textFoundTemplate, len(issues), keyword) + flow.RenderIssues(pages[0]),
		Markdown: true,
	})
	for _, page := range pages[1:] {
		h.reply(ctx, types.OutboundMessage{
			ChatID:         msg.ChatID,
			Text:           flow.RenderIssues(page),
			DisablePreview: true,
		})
	}
}

// acquireSearch applies the per-user search limit. Limiter failures let the
// search through.
func (h *Handler) acquireSearch(ctx context.Context, uid string) bool {
	if h.SearchRPM <= 0 || h.Limiter == nil {
		return true
	}
	ok, err := h.Limiter.Acquire(ctx, fmt.Sprintf(searchScopeFmt, uid), h.SearchRPM, time.Minute)
	if err != nil {
		log.WithError(err).WithField("userID", uid).Error("failed to acquire search rate limit")
		return true
	}
	return ok
}
