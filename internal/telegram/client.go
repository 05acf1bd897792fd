package telegram

import (
	"context"
	"errors"
	"issuebot/internal/types"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

const pollTimeoutSeconds = 60

func init() {
	tgbotapi.SetLogger(log.StandardLogger())
}

// Client adapts the Bot API to ports.Messenger and turns long-polled updates
// into types.InboundMessage values.
type Client struct {
	api *tgbotapi.BotAPI
}

// New authenticates against the public Bot API.
func New(token string) (*Client, error) {
	return NewWithEndpoint(token, tgbotapi.APIEndpoint)
}

// NewWithEndpoint authenticates against a Bot API compatible server. endpoint
// takes the token and the method name, e.g. "https://api.telegram.org/bot%s/%s".
func NewWithEndpoint(token, endpoint string) (*Client, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, err
	}
	log.WithField("username", api.Self.UserName).Info("authorized on telegram")
	return &Client{api: api}, nil
}

func (c *Client) Username() string {
	return c.api.Self.UserName
}

func (c *Client) Send(ctx context.Context, out types.OutboundMessage) (int, error) {
	sent, err := c.api.Send(BuildMessage(out))
	if err != nil && out.Markdown && isEntityError(err) {
		// resend as plain text when user-provided text breaks the markup
		out.Markdown = false
		sent, err = c.api.Send(BuildMessage(out))
	}
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (c *Client) Edit(ctx context.Context, chatID int64, messageID int, out types.OutboundMessage) error {
	_, err := c.api.Request(BuildEdit(chatID, messageID, out))
	if err != nil && out.Markdown && isEntityError(err) {
		out.Markdown = false
		_, err = c.api.Request(BuildEdit(chatID, messageID, out))
	}
	return err
}

func (c *Client) Delete(ctx context.Context, chatID int64, messageID int) error {
	_, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// Updates long-polls for updates until ctx is done. The returned channel is
// closed after polling stops.
func (c *Client) Updates(ctx context.Context) <-chan types.InboundMessage {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeoutSeconds
	raw := c.api.GetUpdatesChan(cfg)

	out := make(chan types.InboundMessage)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				c.api.StopReceivingUpdates()
				return
			case u, ok := <-raw:
				if !ok {
					return
				}
				msg, ok := ToInbound(u)
				if !ok {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					c.api.StopReceivingUpdates()
					return
				}
			}
		}
	}()
	return out
}

// ToInbound extracts a text message from u. Updates without a text message
// from a user are skipped.
func ToInbound(u tgbotapi.Update) (types.InboundMessage, bool) {
	m := u.Message
	if m == nil || m.From == nil || m.Chat == nil || m.Text == "" {
		return types.InboundMessage{}, false
	}
	msg := types.InboundMessage{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		UserID:    m.From.ID,
		Text:      m.Text,
	}
	if m.ReplyToMessage != nil {
		msg.ReplyToMessageID = m.ReplyToMessage.MessageID
	}
	return msg, true
}

func BuildMessage(out types.OutboundMessage) tgbotapi.MessageConfig {
	m := tgbotapi.NewMessage(out.ChatID, out.Text)
	if out.Markdown {
		m.ParseMode = tgbotapi.ModeMarkdown
	}
	m.DisableWebPagePreview = out.DisablePreview
	if out.ReplyToMessageID != 0 {
		m.ReplyToMessageID = out.ReplyToMessageID
		m.AllowSendingWithoutReply = true
	}
	if out.ForceReply {
		// Selective targets the sender of the replied-to message in groups.
		m.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true, Selective: out.ReplyToMessageID != 0}
	}
	return m
}

func BuildEdit(chatID int64, messageID int, out types.OutboundMessage) tgbotapi.EditMessageTextConfig {
	e := tgbotapi.NewEditMessageText(chatID, messageID, out.Text)
	if out.Markdown {
		e.ParseMode = tgbotapi.ModeMarkdown
	}
	e.DisableWebPagePreview = out.DisablePreview
	return e
}

func isEntityError(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == 400 && strings.Contains(apiErr.Message, "can't parse entities")
}
