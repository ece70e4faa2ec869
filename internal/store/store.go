// Package store persists builder sessions.
package store

import (
	"context"

	"github.com/alfredjeanlab/formbuilder/internal/model"
)

// Store defines the persistence interface for builder sessions. Lookups of
// missing sessions return sql.ErrNoRows.
type Store interface {
	// SaveSession inserts or replaces a session.
	SaveSession(ctx context.Context, s *model.BuilderSession) error
	GetSession(ctx context.Context, id string) (*model.BuilderSession, error)
	// ListSessions returns every session, most recently updated first.
	ListSessions(ctx context.Context) ([]*model.BuilderSession, error)
	DeleteSession(ctx context.Context, id string) error

	// Lifecycle
	Close() error
}
