package ports

import (
	"context"
	"issuebot/internal/types"
)

// UserStore persists one UserRecord per user id.
// Implementations MUST make PutUser replace the whole record for that id.
type UserStore interface {
	// GetUser returns the record for id.
	// MUST return types.ErrNotFound if nothing is stored for id.
	GetUser(ctx context.Context, id string) (types.UserRecord, error)

	PutUser(ctx context.Context, rec types.UserRecord) error

	ListUsers(ctx context.Context) ([]string, error)

	// ClearAll purges every stored record. Used in tests only.
	ClearAll(ctx context.Context) error
}
