package board

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/glideclouds/taskboard-api/internal/platform/logger"
	"github.com/glideclouds/taskboard-api/internal/store"
	"github.com/google/uuid"
)

// Service is the task board engine. It owns per-user task mutations,
// column ordering, timers, recurrence spawning and discussion routing,
// and applies the auto-archive rule for stale done tasks when a board
// is listed.
type Service struct {
	taskStore       store.TaskStore
	discussionStore store.DiscussionStore
	db              *sql.DB
	clock           Clock
	logger          *slog.Logger

	// archiveDoneAfterDays is the auto-archive cutoff in days since
	// completion. Zero or negative disables auto-archiving.
	archiveDoneAfterDays int
}

// NewService creates the board service.
// db may be nil for in-memory store implementations; multi-column
// writes then run without transactional grouping.
func NewService(
	taskStore store.TaskStore,
	discussionStore store.DiscussionStore,
	db *sql.DB,
	clock Clock,
	archiveDoneAfterDays int,
	log *slog.Logger,
) *Service {
	if taskStore == nil {
		panic("taskStore cannot be nil")
	}
	if discussionStore == nil {
		panic("discussionStore cannot be nil")
	}
	if clock == nil {
		clock = RealClock{}
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		taskStore:            taskStore,
		discussionStore:      discussionStore,
		db:                   db,
		clock:                clock,
		logger:               log.With(slog.String("component", "board_service")),
		archiveDoneAfterDays: archiveDoneAfterDays,
	}
}

// runInTransaction executes fn with transactional stores. Without a
// database handle the base stores are used directly, which keeps the
// service testable against in-memory fakes.
func (s *Service) runInTransaction(
	ctx context.Context,
	fn func(ctx context.Context, tasks store.TaskStore) error,
) error {
	if s.db == nil {
		return fn(ctx, s.taskStore)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.taskStore.WithTx(tx))
	})
}

func isNotFound(err error) bool {
	return store.IsNotFoundError(err)
}

// loadTask fetches a task, translating a store miss into ErrTaskNotFound.
func (s *Service) loadTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		if isNotFound(err) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	return task, nil
}

// loadOwnedTask fetches a task and enforces that the actor owns it.
func (s *Service) loadOwnedTask(ctx context.Context, actor Actor, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerUserID != actor.UserID {
		return nil, ErrForbidden
	}
	return task, nil
}

// recordActivity appends an audit entry to the task and bumps UpdatedAt.
func (s *Service) recordActivity(task *domain.Task, typ domain.TaskActivityType, actor Actor, message string, from, to domain.TaskStatus) {
	now := s.clock.Now()
	task.AppendActivity(domain.TaskActivity{
		ID:         uuid.New(),
		Type:       typ,
		ActorID:    actor.UserID,
		ActorEmail: actor.Email,
		Message:    message,
		FromStatus: from,
		ToStatus:   to,
		CreatedAt:  now,
	})
	task.UpdatedAt = now
}

// List returns the actor's board sorted for rendering and applies the
// auto-archive rule to stale done tasks first.
func (s *Service) List(ctx context.Context, actor Actor) ([]*TaskView, error) {
	tasks, err := s.taskStore.GetByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	s.maybeAutoArchiveDoneTasks(ctx, tasks)

	sortBoard(tasks)
	return s.resolveViews(ctx, tasks)
}

// Get returns a single task, enforcing owner access.
func (s *Service) Get(ctx context.Context, actor Actor, taskID uuid.UUID) (*TaskView, error) {
	task, err := s.loadOwnedTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	return s.resolveView(ctx, task)
}

// Search filters the actor's board by a case-insensitive substring
// match over title, description, labels, comments and decisions.
// A blank query returns the full board.
func (s *Service) Search(ctx context.Context, actor Actor, query string) ([]*TaskView, error) {
	views, err := s.List(ctx, actor)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return views, nil
	}

	matched := make([]*TaskView, 0, len(views))
	for _, v := range views {
		if taskMatches(v, q) {
			matched = append(matched, v)
		}
	}
	return matched, nil
}

func taskMatches(v *TaskView, q string) bool {
	t := v.Task
	if strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, l := range t.Labels {
		if strings.Contains(strings.ToLower(l), q) {
			return true
		}
	}
	for _, c := range v.Comments {
		if strings.Contains(strings.ToLower(c.Message), q) {
			return true
		}
	}
	for _, d := range v.Decisions {
		if strings.Contains(strings.ToLower(d.Message), q) {
			return true
		}
	}
	return false
}

// Create adds a new task at the tail of the actor's unpinned TODO
// segment.
func (s *Service) Create(ctx context.Context, actor Actor, req CreateTaskRequest) (*TaskView, error) {
	column, err := s.taskStore.GetByOwnerAndStatus(ctx, actor.UserID, domain.TaskStatusTodo)
	if err != nil {
		return nil, fmt.Errorf("failed to load todo column: %w", err)
	}

	task, err := domain.NewTask(actor.UserID, req.Title, req.Description, req.Priority, req.DueDate, s.clock.Now())
	if err != nil {
		return nil, errors.Join(ErrInvalidRequest, err)
	}
	task.Position = nextPosition(column, false)
	s.recordActivity(task, domain.ActivityCreated, actor, "Task created", "", "")

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return s.resolveView(ctx, task)
}

// Update replaces the editable fields of an owned task. Ordering
// fields are untouched.
func (s *Service) Update(ctx context.Context, actor Actor, taskID uuid.UUID, req UpdateTaskRequest) (*TaskView, error) {
	task, err := s.loadOwnedTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Title) == "" {
		return nil, errors.Join(ErrInvalidRequest, domain.ErrTaskTitleEmpty)
	}

	task.Title = req.Title
	task.Description = req.Description
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	task.DueDate = req.DueDate

	s.recordActivity(task, domain.ActivityUpdated, actor, "Task updated", "", "")

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return s.resolveView(ctx, task)
}

// UpdateArchived archives or unarchives an owned task. ArchivedAt is
// stamped once on archive and cleared on unarchive.
func (s *Service) UpdateArchived(ctx context.Context, actor Actor, taskID uuid.UUID, archived bool) (*TaskView, error) {
	task, err := s.loadOwnedTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	task.Archived = archived
	if archived {
		if task.ArchivedAt == nil {
			now := s.clock.Now()
			task.ArchivedAt = &now
		}
	} else {
		task.ArchivedAt = nil
	}

	message := "Task unarchived"
	if archived {
		message = "Task archived"
	}
	s.recordActivity(task, domain.ActivityUpdated, actor, message, "", "")

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return s.resolveView(ctx, task)
}

// Delete removes an owned task and reindexes the vacated column.
// Admin-assigned tasks cannot be deleted, not even by their owner.
func (s *Service) Delete(ctx context.Context, actor Actor, taskID uuid.UUID) error {
	task, err := s.loadOwnedTask(ctx, actor, taskID)
	if err != nil {
		return err
	}

	if task.AssignedFromAdmin() {
		return fmt.Errorf("%w: assigned tasks cannot be deleted", ErrForbidden)
	}

	return s.runInTransaction(ctx, func(ctx context.Context, tasks store.TaskStore) error {
		if err := tasks.Delete(ctx, task.ID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return s.reindexColumn(ctx, tasks, task.OwnerUserID, task.Status)
	})
}

// reindexColumn reloads one column and renumbers both segments densely.
func (s *Service) reindexColumn(ctx context.Context, tasks store.TaskStore, ownerID uuid.UUID, status domain.TaskStatus) error {
	column, err := tasks.GetByOwnerAndStatus(ctx, ownerID, status)
	if err != nil {
		return fmt.Errorf("failed to load column for reindex: %w", err)
	}
	sortColumn(column)
	reindexSegments(column)
	if err := tasks.SaveAll(ctx, column); err != nil {
		return fmt.Errorf("failed to save reindexed column: %w", err)
	}
	return nil
}

// maybeAutoArchiveDoneTasks archives done tasks whose completion is at
// or past the cutoff. Best effort: persistence failures are logged and
// the listing proceeds with the in-memory state.
func (s *Service) maybeAutoArchiveDoneTasks(ctx context.Context, tasks []*domain.Task) {
	if len(tasks) == 0 || s.archiveDoneAfterDays <= 0 {
		return
	}

	now := s.clock.Now()
	cutoff := now.Add(-time.Duration(s.archiveDoneAfterDays) * 24 * time.Hour)

	var changed []*domain.Task
	for _, t := range tasks {
		if t.Status != domain.TaskStatusDone || t.Archived || t.CompletedAt == nil {
			continue
		}
		// Completion exactly at the cutoff archives too.
		if t.CompletedAt.After(cutoff) {
			continue
		}
		t.Archived = true
		if t.ArchivedAt == nil {
			archivedAt := now
			t.ArchivedAt = &archivedAt
		}
		changed = append(changed, t)
	}

	if len(changed) == 0 {
		return
	}

	if err := s.taskStore.SaveAll(ctx, changed); err != nil {
		log := logger.FromContextOrDefault(ctx, s.logger)
		log.Error("failed to persist auto-archived tasks",
			slog.String("error", err.Error()),
			slog.Int("count", len(changed)))
	}
}
