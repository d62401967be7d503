package storage

import (
	"context"
	"time"

	"github.com/iudanet/babysteps/pkg/api"
)

// SessionStorage defines the local session cache of a native client.
// It holds the last token and user seen from the server; the cache is a
// first-paint hint only and is always revalidated against the server.
type SessionStorage interface {
	// SaveSession replaces the cached session
	SaveSession(ctx context.Context, entry *SessionEntry) error

	// GetSession returns the cached session
	// Returns ErrSessionNotFound if nothing is cached
	GetSession(ctx context.Context) (*SessionEntry, error)

	// DeleteSession removes the cached session; deleting an empty cache is not an error
	DeleteSession(ctx context.Context) error
}

// SessionEntry кешированная сессия: токен и пользователь
type SessionEntry struct {
	SavedAt time.Time `json:"saved_at"`
	Token   string    `json:"token"`
	User    api.User  `json:"user"`
}
