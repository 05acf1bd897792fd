package types

// InboundMessage is a text message received from the chat.
// ReplyToMessageID is 0 when the message is not a reply.
type InboundMessage struct {
	ChatID           int64
	MessageID        int
	UserID           int64
	Text             string
	ReplyToMessageID int
}

func (m InboundMessage) IsReply() bool {
	return m.ReplyToMessageID != 0
}

// OutboundMessage is a text message sent to (or edited in) a chat.
type OutboundMessage struct {
	ChatID         int64
	Text           string
	Markdown       bool
	DisablePreview bool
	// ForceReply asks the client to open a reply to this message.
	ForceReply bool
	// ReplyToMessageID quotes an earlier message; 0 means none.
	ReplyToMessageID int
}
