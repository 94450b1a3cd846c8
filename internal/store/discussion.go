package store

import (
	"context"
	"database/sql"

	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/google/uuid"
)

// DiscussionStore defines the interface for shared discussion
// persistence. Discussions outlive the tasks that reference them.
type DiscussionStore interface {
	// GetByID retrieves a discussion by its unique ID.
	// Returns ErrDiscussionNotFound if the discussion does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Discussion, error)

	// GetAllByIDs retrieves the discussions matching the given IDs.
	// Missing IDs are skipped, not reported.
	GetAllByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Discussion, error)

	// Save inserts or updates a discussion (upsert by ID).
	Save(ctx context.Context, discussion *domain.Discussion) error

	// WithTx returns a new DiscussionStore instance that uses the
	// provided transaction.
	WithTx(tx *sql.Tx) DiscussionStore
}
