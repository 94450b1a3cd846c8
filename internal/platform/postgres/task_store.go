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

// PostgresTaskStore implements the store.TaskStore interface using a
// PostgreSQL database. Subcollections (labels, checklist, comments,
// decisions, activity, time logs, recurrence) live in JSONB columns;
// ordering fields are regular columns so columns can be read back
// position-ordered.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

const taskColumns = `
	id, owner_user_id, created_by_user_id, title, description,
	status, priority, due_date, position, pinned,
	labels, blocked_by_task_ids, checklist, recurrence,
	focus, time_budget_minutes, time_logs, active_timer_started_at,
	comments, decisions, activity, shared_discussion_id,
	completed_at, archived, archived_at, created_at, updated_at`

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if mapped := MapError(err); store.IsNotFoundError(mapped) {
			return nil, store.ErrTaskNotFound
		}
		return nil, store.NewStoreError("task", "get_by_id", "failed to get task", MapError(err))
	}
	return task, nil
}

// GetAllByIDs implements store.TaskStore.GetAllByIDs
func (s *PostgresTaskStore) GetAllByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT` + taskColumns + ` FROM tasks WHERE id = ANY($1)`
	return s.queryTasks(ctx, "get_all_by_ids", query, idStrings(ids))
}

// GetByOwner implements store.TaskStore.GetByOwner
func (s *PostgresTaskStore) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	query := `SELECT` + taskColumns + ` FROM tasks WHERE owner_user_id = $1`
	return s.queryTasks(ctx, "get_by_owner", query, ownerID)
}

// GetByOwnerAndStatus implements store.TaskStore.GetByOwnerAndStatus
func (s *PostgresTaskStore) GetByOwnerAndStatus(ctx context.Context, ownerID uuid.UUID, status domain.TaskStatus) ([]*domain.Task, error) {
	query := `SELECT` + taskColumns + `
		FROM tasks
		WHERE owner_user_id = $1 AND status = $2
		ORDER BY position ASC`
	return s.queryTasks(ctx, "get_by_owner_and_status", query, ownerID, string(status))
}

// GetAll implements store.TaskStore.GetAll
func (s *PostgresTaskStore) GetAll(ctx context.Context) ([]*domain.Task, error) {
	query := `SELECT` + taskColumns + ` FROM tasks`
	return s.queryTasks(ctx, "get_all", query)
}

func (s *PostgresTaskStore) queryTasks(ctx context.Context, operation, query string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, store.NewStoreError("task", operation, "failed to query tasks", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, store.NewStoreError("task", operation, "failed to scan task row", MapError(err))
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("task", operation, "failed to iterate task rows", MapError(err))
	}
	return tasks, nil
}

// Save implements store.TaskStore.Save (upsert by ID).
func (s *PostgresTaskStore) Save(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return store.NewStoreError("task", "save", "invalid task", err)
	}

	fields, err := marshalTaskJSON(task)
	if err != nil {
		return store.NewStoreError("task", "save", "failed to encode task collections", err)
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18,
		        $19, $20, $21, $22, $23, $24, $25, $26, $27)
		ON CONFLICT (id) DO UPDATE SET
			owner_user_id = EXCLUDED.owner_user_id,
			created_by_user_id = EXCLUDED.created_by_user_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			due_date = EXCLUDED.due_date,
			position = EXCLUDED.position,
			pinned = EXCLUDED.pinned,
			labels = EXCLUDED.labels,
			blocked_by_task_ids = EXCLUDED.blocked_by_task_ids,
			checklist = EXCLUDED.checklist,
			recurrence = EXCLUDED.recurrence,
			focus = EXCLUDED.focus,
			time_budget_minutes = EXCLUDED.time_budget_minutes,
			time_logs = EXCLUDED.time_logs,
			active_timer_started_at = EXCLUDED.active_timer_started_at,
			comments = EXCLUDED.comments,
			decisions = EXCLUDED.decisions,
			activity = EXCLUDED.activity,
			shared_discussion_id = EXCLUDED.shared_discussion_id,
			completed_at = EXCLUDED.completed_at,
			archived = EXCLUDED.archived,
			archived_at = EXCLUDED.archived_at,
			updated_at = EXCLUDED.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		task.ID,
		task.OwnerUserID,
		task.CreatedByUserID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Priority),
		task.DueDate,
		task.Position,
		task.Pinned,
		fields.labels,
		fields.blockedBy,
		fields.checklist,
		fields.recurrence,
		task.Focus,
		task.TimeBudgetMinutes,
		fields.timeLogs,
		task.ActiveTimerStartedAt,
		fields.comments,
		fields.decisions,
		fields.activity,
		task.SharedDiscussionID,
		task.CompletedAt,
		task.Archived,
		task.ArchivedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return store.NewStoreError("task", "save", "failed to save task", MapError(err))
	}
	return nil
}

// SaveAll implements store.TaskStore.SaveAll
func (s *PostgresTaskStore) SaveAll(ctx context.Context, tasks []*domain.Task) error {
	for _, task := range tasks {
		if err := s.Save(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return store.NewStoreError("task", "delete", "failed to delete task", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return store.NewStoreError("task", "delete", "failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// taskJSONFields holds the JSONB-encoded subcollections of a task.
type taskJSONFields struct {
	labels     []byte
	blockedBy  []byte
	checklist  []byte
	recurrence []byte
	timeLogs   []byte
	comments   []byte
	decisions  []byte
	activity   []byte
}

func marshalTaskJSON(task *domain.Task) (*taskJSONFields, error) {
	var fields taskJSONFields
	var err error

	if fields.labels, err = marshalOrEmptyArray(task.Labels); err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	if fields.blockedBy, err = marshalOrEmptyArray(task.BlockedByTaskIDs); err != nil {
		return nil, fmt.Errorf("blocked_by_task_ids: %w", err)
	}
	if fields.checklist, err = marshalOrEmptyArray(task.Checklist); err != nil {
		return nil, fmt.Errorf("checklist: %w", err)
	}
	if fields.timeLogs, err = marshalOrEmptyArray(task.TimeLogs); err != nil {
		return nil, fmt.Errorf("time_logs: %w", err)
	}
	if fields.comments, err = marshalOrEmptyArray(task.Comments); err != nil {
		return nil, fmt.Errorf("comments: %w", err)
	}
	if fields.decisions, err = marshalOrEmptyArray(task.Decisions); err != nil {
		return nil, fmt.Errorf("decisions: %w", err)
	}
	if fields.activity, err = marshalOrEmptyArray(task.Activity); err != nil {
		return nil, fmt.Errorf("activity: %w", err)
	}
	if task.Recurrence != nil {
		if fields.recurrence, err = json.Marshal(task.Recurrence); err != nil {
			return nil, fmt.Errorf("recurrence: %w", err)
		}
	}
	return &fields, nil
}

// marshalOrEmptyArray encodes a slice as JSON, mapping nil to [] so
// the column never stores SQL null.
func marshalOrEmptyArray[T any](list []T) ([]byte, error) {
	if list == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(list)
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var status, priority string
	var labels, blockedBy, checklist, recurrence, timeLogs, comments, decisions, activity []byte

	err := row.Scan(
		&task.ID,
		&task.OwnerUserID,
		&task.CreatedByUserID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&task.DueDate,
		&task.Position,
		&task.Pinned,
		&labels,
		&blockedBy,
		&checklist,
		&recurrence,
		&task.Focus,
		&task.TimeBudgetMinutes,
		&timeLogs,
		&task.ActiveTimerStartedAt,
		&comments,
		&decisions,
		&activity,
		&task.SharedDiscussionID,
		&task.CompletedAt,
		&task.Archived,
		&task.ArchivedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)

	if err := json.Unmarshal(labels, &task.Labels); err != nil {
		return nil, fmt.Errorf("failed to decode labels: %w", err)
	}
	if err := json.Unmarshal(blockedBy, &task.BlockedByTaskIDs); err != nil {
		return nil, fmt.Errorf("failed to decode blocked_by_task_ids: %w", err)
	}
	if err := json.Unmarshal(checklist, &task.Checklist); err != nil {
		return nil, fmt.Errorf("failed to decode checklist: %w", err)
	}
	if err := json.Unmarshal(timeLogs, &task.TimeLogs); err != nil {
		return nil, fmt.Errorf("failed to decode time_logs: %w", err)
	}
	if err := json.Unmarshal(comments, &task.Comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	if err := json.Unmarshal(decisions, &task.Decisions); err != nil {
		return nil, fmt.Errorf("failed to decode decisions: %w", err)
	}
	if err := json.Unmarshal(activity, &task.Activity); err != nil {
		return nil, fmt.Errorf("failed to decode activity: %w", err)
	}
	if len(recurrence) > 0 {
		task.Recurrence = &domain.RecurrenceRule{}
		if err := json.Unmarshal(recurrence, task.Recurrence); err != nil {
			return nil, fmt.Errorf("failed to decode recurrence: %w", err)
		}
	}

	return &task, nil
}

// idStrings converts UUIDs for use with ANY($1) array parameters.
func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
