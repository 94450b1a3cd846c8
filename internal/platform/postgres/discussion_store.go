package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/glideclouds/taskboard-api/internal/store"
	"github.com/google/uuid"
)

// PostgresDiscussionStore implements the store.DiscussionStore
// interface using a PostgreSQL database. Comment and decision threads
// are stored as JSONB documents.
type PostgresDiscussionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDiscussionStore creates a new PostgreSQL implementation
// of the DiscussionStore interface.
func NewPostgresDiscussionStore(db store.DBTX, logger *slog.Logger) *PostgresDiscussionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDiscussionStore{
		db:     db,
		logger: logger.With(slog.String("component", "discussion_store")),
	}
}

// Ensure PostgresDiscussionStore implements store.DiscussionStore interface
var _ store.DiscussionStore = (*PostgresDiscussionStore)(nil)

// WithTx implements store.DiscussionStore.WithTx
func (s *PostgresDiscussionStore) WithTx(tx *sql.Tx) store.DiscussionStore {
	return &PostgresDiscussionStore{
		db:     tx,
		logger: s.logger,
	}
}

// GetByID implements store.DiscussionStore.GetByID
func (s *PostgresDiscussionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Discussion, error) {
	query := `
		SELECT id, comments, decisions, created_at, updated_at
		FROM discussions
		WHERE id = $1`

	discussion, err := scanDiscussion(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if mapped := MapError(err); store.IsNotFoundError(mapped) {
			return nil, store.ErrDiscussionNotFound
		}
		return nil, store.NewStoreError("discussion", "get_by_id", "failed to get discussion", MapError(err))
	}
	return discussion, nil
}

// GetAllByIDs implements store.DiscussionStore.GetAllByIDs
func (s *PostgresDiscussionStore) GetAllByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Discussion, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, comments, decisions, created_at, updated_at
		FROM discussions
		WHERE id = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, idStrings(ids))
	if err != nil {
		return nil, store.NewStoreError("discussion", "get_all_by_ids", "failed to query discussions", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var discussions []*domain.Discussion
	for rows.Next() {
		d, err := scanDiscussion(rows)
		if err != nil {
			return nil, store.NewStoreError("discussion", "get_all_by_ids", "failed to scan discussion row", err)
		}
		discussions = append(discussions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("discussion", "get_all_by_ids", "failed to iterate discussion rows", MapError(err))
	}
	return discussions, nil
}

// Save implements store.DiscussionStore.Save (upsert by ID).
func (s *PostgresDiscussionStore) Save(ctx context.Context, discussion *domain.Discussion) error {
	comments, err := marshalOrEmptyArray(discussion.Comments)
	if err != nil {
		return store.NewStoreError("discussion", "save", "failed to encode comments", err)
	}
	decisions, err := marshalOrEmptyArray(discussion.Decisions)
	if err != nil {
		return store.NewStoreError("discussion", "save", "failed to encode decisions", err)
	}

	query := `
		INSERT INTO discussions (id, comments, decisions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			comments = EXCLUDED.comments,
			decisions = EXCLUDED.decisions,
			updated_at = EXCLUDED.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		discussion.ID,
		comments,
		decisions,
		discussion.CreatedAt,
		discussion.UpdatedAt,
	)
	if err != nil {
		return store.NewStoreError("discussion", "save", "failed to save discussion", MapError(err))
	}
	return nil
}

func scanDiscussion(row rowScanner) (*domain.Discussion, error) {
	var d domain.Discussion
	var comments, decisions []byte

	err := row.Scan(&d.ID, &comments, &decisions, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(comments, &d.Comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	if err := json.Unmarshal(decisions, &d.Decisions); err != nil {
		return nil, fmt.Errorf("failed to decode decisions: %w", err)
	}
	return &d, nil
}
