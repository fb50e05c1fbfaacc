package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/emberworks/echofall/pkg/session"
)

// SessionStore defines the interface for session persistence. The engine
// calls Save after every mutating request and treats a save failure as
// non-fatal but loggable.
type SessionStore interface {
	// Ping tests the store connection.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error

	// Save persists a session, refreshing its idle-timeout TTL.
	Save(ctx context.Context, s *session.Session) error

	// Load retrieves a session by ID.
	// Returns (nil, nil) when the session does not exist.
	Load(ctx context.Context, id uuid.UUID) (*session.Session, error)

	// Delete removes a session by ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns the IDs of stored sessions.
	List(ctx context.Context) ([]uuid.UUID, error)
}
