package ports

import "context"

// Publisher delivers raw event payloads to a topic.
type Publisher interface {
	PublishRaw(ctx context.Context, topic string, payload []byte) error
}
