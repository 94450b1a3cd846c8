package board

import (
	"context"
	"fmt"

	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/google/uuid"
)

// AssignTask creates a pinned TODO task on another user's board on
// behalf of an admin. Assigned tasks join the tail of the assignee's
// pinned TODO segment so they render above the assignee's own tasks.
func (s *Service) AssignTask(ctx context.Context, actor Actor, assigneeID uuid.UUID, req AssignTaskRequest) (*TaskView, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}

	task, err := s.createAssignedTask(ctx, actor, assigneeID, req, nil)
	if err != nil {
		return nil, err
	}
	return s.resolveView(ctx, task)
}

// AssignTaskToGroup creates one assigned task per member, all sharing
// a single discussion thread so the group sees the same comments and
// decisions.
func (s *Service) AssignTaskToGroup(ctx context.Context, actor Actor, assigneeIDs []uuid.UUID, req AssignTaskRequest) ([]*TaskView, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	if len(assigneeIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one assignee is required", ErrInvalidRequest)
	}

	discussion := domain.NewDiscussion(s.clock.Now())
	if err := s.discussionStore.Save(ctx, discussion); err != nil {
		return nil, fmt.Errorf("failed to create shared discussion: %w", err)
	}

	views := make([]*TaskView, 0, len(assigneeIDs))
	for _, assigneeID := range assigneeIDs {
		task, err := s.createAssignedTask(ctx, actor, assigneeID, req, &discussion.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, viewOf(task, discussion))
	}
	return views, nil
}

func (s *Service) createAssignedTask(ctx context.Context, actor Actor, assigneeID uuid.UUID, req AssignTaskRequest, discussionID *uuid.UUID) (*domain.Task, error) {
	column, err := s.taskStore.GetByOwnerAndStatus(ctx, assigneeID, domain.TaskStatusTodo)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignee todo column: %w", err)
	}

	task, err := domain.NewAssignedTask(actor.UserID, assigneeID, req.Title, req.Description, req.Priority, req.DueDate, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	task.Position = nextPosition(column, true)
	task.SharedDiscussionID = discussionID
	s.recordActivity(task, domain.ActivityAssigned, actor, "Task assigned", "", domain.TaskStatusTodo)

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save assigned task: %w", err)
	}
	return task, nil
}

// ListAll returns every task on every board, sorted for rendering.
// Admin only.
func (s *Service) ListAll(ctx context.Context, actor Actor) ([]*TaskView, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}

	tasks, err := s.taskStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list all tasks: %w", err)
	}
	sortBoard(tasks)
	return s.resolveViews(ctx, tasks)
}
