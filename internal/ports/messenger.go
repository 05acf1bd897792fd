package ports

import (
	"context"
	"issuebot/internal/types"
)

// Messenger is the outbound side of the chat transport.
type Messenger interface {
	// Send posts a new message and returns its message id.
	Send(ctx context.Context, msg types.OutboundMessage) (int, error)

	// Edit replaces the text of a previously sent message.
	Edit(ctx context.Context, chatID int64, messageID int, msg types.OutboundMessage) error

	Delete(ctx context.Context, chatID int64, messageID int) error
}
