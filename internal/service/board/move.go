package board

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/glideclouds/taskboard-api/internal/domain/recurrence"
	"github.com/glideclouds/taskboard-api/internal/platform/logger"
	"github.com/glideclouds/taskboard-api/internal/store"
	"github.com/google/uuid"
)

// Move relocates a task within or across columns and returns the
// owner's refreshed board. Admins may move tasks they do not own.
// FromStatus must match the persisted status; a stale request is
// rejected with ErrConflict and no positions change.
func (s *Service) Move(ctx context.Context, actor Actor, req MoveTaskRequest) ([]*TaskView, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.loadTask(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}

	if task.OwnerUserID != actor.UserID && !actor.IsAdmin {
		log.Warn("forbidden move attempt",
			slog.String("task_id", req.TaskID.String()),
			slog.String("user_id", actor.UserID.String()),
			slog.String("owner_user_id", task.OwnerUserID.String()))
		return nil, ErrForbidden
	}

	if task.Status != req.FromStatus {
		return nil, fmt.Errorf("%w: task status changed; refresh and retry", ErrConflict)
	}

	ownerID := task.OwnerUserID
	pinned := task.Pinned

	if req.FromStatus == req.ToStatus {
		err := s.runInTransaction(ctx, func(ctx context.Context, tasks store.TaskStore) error {
			column, err := tasks.GetByOwnerAndStatus(ctx, ownerID, req.FromStatus)
			if err != nil {
				return fmt.Errorf("failed to load column: %w", err)
			}
			sortColumn(column)

			current := findInColumn(column, task.ID)
			if current == nil {
				return store.ErrTaskNotFound
			}
			column = reorderWithinColumn(column, current, req.ToIndex, pinned)
			s.recordActivity(current, domain.ActivityReordered, actor, "Task reordered", req.FromStatus, req.ToStatus)

			return tasks.SaveAll(ctx, column)
		})
		if err != nil {
			return nil, err
		}
		return s.List(ctx, Actor{UserID: ownerID, Email: actor.Email, IsAdmin: actor.IsAdmin})
	}

	var completed *domain.Task
	err = s.runInTransaction(ctx, func(ctx context.Context, tasks store.TaskStore) error {
		fromCol, err := tasks.GetByOwnerAndStatus(ctx, ownerID, req.FromStatus)
		if err != nil {
			return fmt.Errorf("failed to load source column: %w", err)
		}
		toCol, err := tasks.GetByOwnerAndStatus(ctx, ownerID, req.ToStatus)
		if err != nil {
			return fmt.Errorf("failed to load target column: %w", err)
		}
		sortColumn(fromCol)
		sortColumn(toCol)

		moved := findInColumn(fromCol, task.ID)
		if moved == nil {
			return store.ErrTaskNotFound
		}

		fromCol = removeFromColumn(fromCol, moved.ID)
		moved.Status = req.ToStatus

		if req.ToStatus == domain.TaskStatusDone {
			now := s.clock.Now()
			moved.CompletedAt = &now
			s.recordActivity(moved, domain.ActivityCompleted, actor, "Task completed", req.FromStatus, req.ToStatus)
		} else if req.FromStatus == domain.TaskStatusDone {
			moved.CompletedAt = nil
		}

		s.recordActivity(moved, domain.ActivityMoved, actor, "Task moved", req.FromStatus, req.ToStatus)

		idx := clampToSegmentIndex(toCol, pinned, req.ToIndex)
		toCol = insertIntoSegment(toCol, moved, idx, pinned)

		reindexSegments(fromCol)
		reindexSegments(toCol)

		if err := tasks.SaveAll(ctx, fromCol); err != nil {
			return fmt.Errorf("failed to save source column: %w", err)
		}
		if err := tasks.SaveAll(ctx, toCol); err != nil {
			return fmt.Errorf("failed to save target column: %w", err)
		}

		if req.ToStatus == domain.TaskStatusDone && req.FromStatus != domain.TaskStatusDone {
			completed = moved
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Spawning happens after the move is persisted so a calculator
	// problem can never undo the move itself.
	if completed != nil && completed.Recurrence != nil {
		s.maybeCreateNextRecurringInstance(ctx, actor, completed)
	}

	return s.List(ctx, Actor{UserID: ownerID, Email: actor.Email, IsAdmin: actor.IsAdmin})
}

func findInColumn(column []*domain.Task, id uuid.UUID) *domain.Task {
	for _, t := range column {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// maybeCreateNextRecurringInstance spawns the next instance of a
// recurring task that just landed on done. The new task copies the
// template fields, resets checklist completion and joins the tail of
// the owner's unpinned TODO segment. Best effort: failures are logged.
func (s *Service) maybeCreateNextRecurringInstance(ctx context.Context, actor Actor, completedTask *domain.Task) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	base := s.clock.Now()
	if completedTask.DueDate != nil {
		base = *completedTask.DueDate
	}
	nextDue, ok := recurrence.NextDueDate(base, completedTask.Recurrence)
	if !ok {
		return
	}

	now := s.clock.Now()
	ownerID := completedTask.OwnerUserID

	column, err := s.taskStore.GetByOwnerAndStatus(ctx, ownerID, domain.TaskStatusTodo)
	if err != nil {
		log.Error("failed to load todo column for recurring task",
			slog.String("error", err.Error()),
			slog.String("task_id", completedTask.ID.String()))
		return
	}

	next, err := domain.NewTask(ownerID, completedTask.Title, completedTask.Description, completedTask.Priority, &nextDue, now)
	if err != nil {
		log.Error("failed to build recurring task",
			slog.String("error", err.Error()),
			slog.String("task_id", completedTask.ID.String()))
		return
	}
	next.Position = nextPosition(column, false)
	next.Labels = append([]string(nil), completedTask.Labels...)
	next.Recurrence = completedTask.Recurrence

	for _, item := range completedTask.Checklist {
		next.Checklist = append(next.Checklist, domain.ChecklistItem{
			ID:        uuid.New(),
			Text:      item.Text,
			Done:      false,
			Position:  item.Position,
			CreatedAt: now,
		})
	}

	s.recordActivity(next, domain.ActivityCreated, actor, "Recurring task created", "", "")

	if err := s.taskStore.Save(ctx, next); err != nil {
		log.Error("failed to save recurring task",
			slog.String("error", err.Error()),
			slog.String("task_id", completedTask.ID.String()))
		return
	}

	s.recordActivity(completedTask, domain.ActivityRecurrenceNextCreated, actor, "Next recurring instance created", "", "")
	if err := s.taskStore.Save(ctx, completedTask); err != nil {
		log.Error("failed to save completed recurring task",
			slog.String("error", err.Error()),
			slog.String("task_id", completedTask.ID.String()))
	}
}

// bulkParkedPosition is a temporary position for rows relocated by a
// bulk status change; the per-status reindex normalizes it afterwards.
const bulkParkedPosition = 999_999

// Bulk applies one action to many tasks and returns the refreshed
// board. Rows the actor does not own and admin-assigned rows are
// skipped silently. A missing action parameter fails the whole request
// before any row changes.
func (s *Service) Bulk(ctx context.Context, actor Actor, req BulkRequest) ([]*TaskView, error) {
	action := strings.ToUpper(strings.TrimSpace(req.Action))
	if len(req.TaskIDs) == 0 {
		return s.List(ctx, actor)
	}

	candidates, err := s.taskStore.GetAllByIDs(ctx, req.TaskIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	owned := make([]*domain.Task, 0, len(candidates))
	for _, t := range candidates {
		if t.OwnerUserID == actor.UserID {
			owned = append(owned, t)
		}
	}

	if err := validateBulkRequest(action, req); err != nil {
		return nil, err
	}

	statusesToReindex := make(map[domain.TaskStatus]bool)

	err = s.runInTransaction(ctx, func(ctx context.Context, tasks store.TaskStore) error {
		switch action {
		case BulkActionDelete:
			for _, t := range owned {
				if t.AssignedFromAdmin() {
					continue
				}
				statusesToReindex[t.Status] = true
				if err := tasks.Delete(ctx, t.ID); err != nil {
					return fmt.Errorf("failed to delete task: %w", err)
				}
			}
			return nil

		case BulkActionSetStatus:
			changed := make([]*domain.Task, 0, len(owned))
			for _, t := range owned {
				if t.AssignedFromAdmin() || t.Status == req.Status {
					continue
				}
				from := t.Status
				statusesToReindex[from] = true
				statusesToReindex[req.Status] = true

				t.Status = req.Status
				if req.Status == domain.TaskStatusDone {
					now := s.clock.Now()
					t.CompletedAt = &now
				} else if from == domain.TaskStatusDone {
					t.CompletedAt = nil
				}

				t.Position = bulkParkedPosition
				s.recordActivity(t, domain.ActivityMoved, actor, "Bulk moved", from, req.Status)
				changed = append(changed, t)
			}
			return tasks.SaveAll(ctx, changed)

		case BulkActionSetPriority:
			changed := make([]*domain.Task, 0, len(owned))
			for _, t := range owned {
				if t.AssignedFromAdmin() {
					continue
				}
				t.Priority = req.Priority
				s.recordActivity(t, domain.ActivityUpdated, actor, "Priority updated", "", "")
				changed = append(changed, t)
			}
			return tasks.SaveAll(ctx, changed)

		case BulkActionSetDueDate:
			changed := make([]*domain.Task, 0, len(owned))
			for _, t := range owned {
				if t.AssignedFromAdmin() {
					continue
				}
				t.DueDate = req.DueDate
				s.recordActivity(t, domain.ActivityUpdated, actor, "Due date updated", "", "")
				changed = append(changed, t)
			}
			return tasks.SaveAll(ctx, changed)

		case BulkActionAddLabel:
			label := strings.TrimSpace(req.Label)
			changed := make([]*domain.Task, 0, len(owned))
			for _, t := range owned {
				if t.AssignedFromAdmin() {
					continue
				}
				if !hasLabel(t.Labels, label) && len(t.Labels) < domain.MaxLabels {
					t.Labels = append(t.Labels, label)
				}
				s.recordActivity(t, domain.ActivityLabelsUpdated, actor, "Label added", "", "")
				changed = append(changed, t)
			}
			return tasks.SaveAll(ctx, changed)

		case BulkActionRemoveLabel:
			label := strings.TrimSpace(req.Label)
			changed := make([]*domain.Task, 0, len(owned))
			for _, t := range owned {
				if t.AssignedFromAdmin() {
					continue
				}
				kept := t.Labels[:0]
				for _, l := range t.Labels {
					if !strings.EqualFold(l, label) {
						kept = append(kept, l)
					}
				}
				t.Labels = kept
				s.recordActivity(t, domain.ActivityLabelsUpdated, actor, "Label removed", "", "")
				changed = append(changed, t)
			}
			return tasks.SaveAll(ctx, changed)

		case BulkActionSetFocus:
			changed := make([]*domain.Task, 0, len(owned))
			for _, t := range owned {
				if t.AssignedFromAdmin() {
					continue
				}
				t.Focus = req.Focus
				message := "Focus disabled"
				if req.Focus {
					message = "Focus enabled"
				}
				s.recordActivity(t, domain.ActivityUpdated, actor, message, "", "")
				changed = append(changed, t)
			}
			return tasks.SaveAll(ctx, changed)

		default:
			return fmt.Errorf("%w: unsupported bulk action %q", ErrInvalidRequest, action)
		}
	})
	if err != nil {
		return nil, err
	}

	for status := range statusesToReindex {
		if err := s.runInTransaction(ctx, func(ctx context.Context, tasks store.TaskStore) error {
			return s.reindexColumn(ctx, tasks, actor.UserID, status)
		}); err != nil {
			return nil, err
		}
	}

	return s.List(ctx, actor)
}

// validateBulkRequest rejects requests whose global parameter is
// missing before any row is touched.
func validateBulkRequest(action string, req BulkRequest) error {
	switch action {
	case BulkActionSetStatus:
		if req.Status == "" {
			return fmt.Errorf("%w: status is required", ErrInvalidRequest)
		}
	case BulkActionSetPriority:
		if req.Priority == "" {
			return fmt.Errorf("%w: priority is required", ErrInvalidRequest)
		}
	case BulkActionAddLabel, BulkActionRemoveLabel:
		if strings.TrimSpace(req.Label) == "" {
			return fmt.Errorf("%w: label is required", ErrInvalidRequest)
		}
	}
	return nil
}

func hasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}
