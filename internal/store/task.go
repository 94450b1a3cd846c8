package store

import (
	"context"
	"database/sql"

	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/google/uuid"
)

// TaskStore defines the interface for task persistence.
//
// Columns are read back position-ordered; the board service is
// responsible for keeping positions dense within each segment and
// writes whole columns back through SaveAll after reindexing.
type TaskStore interface {
	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetAllByIDs retrieves the tasks matching the given IDs. Missing
	// IDs are skipped, not reported; callers that need existence checks
	// compare result length to input length.
	GetAllByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Task, error)

	// GetByOwner retrieves all tasks owned by the given user.
	GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)

	// GetByOwnerAndStatus retrieves one column: all tasks for the given
	// (owner, status) pair, ordered by position ascending.
	GetByOwnerAndStatus(ctx context.Context, ownerID uuid.UUID, status domain.TaskStatus) ([]*domain.Task, error)

	// GetAll retrieves every task in the store. Used by the admin
	// board overview.
	GetAll(ctx context.Context) ([]*domain.Task, error)

	// Save inserts or updates a task (upsert by ID).
	// Returns validation errors if the task data is invalid.
	Save(ctx context.Context, task *domain.Task) error

	// SaveAll upserts the given tasks. Reindexed columns MUST be written
	// through SaveAll inside a transaction so a column is never
	// persisted half-renumbered; use WithTx with store.RunInTransaction.
	SaveAll(ctx context.Context, tasks []*domain.Task) error

	// Delete removes a task from the store by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}
