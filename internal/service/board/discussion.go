package board

import (
	"context"
	"fmt"
	"sort"

	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/glideclouds/taskboard-api/internal/platform/logger"
	"github.com/google/uuid"
)

// TaskView is a task prepared for rendering. For tasks in an
// assignment group the comment and decision threads live in a shared
// discussion document; the view carries the resolved thread so callers
// never need to know where it came from.
type TaskView struct {
	Task      *domain.Task
	Comments  []domain.TaskComment
	Decisions []domain.TaskDecision
}

// viewOf builds a TaskView from a task and its resolved discussion.
// A nil discussion falls back to the task-local thread, which also
// covers a dangling SharedDiscussionID.
func viewOf(task *domain.Task, discussion *domain.Discussion) *TaskView {
	if !task.HasSharedDiscussion() || discussion == nil {
		return &TaskView{
			Task:      task,
			Comments:  task.Comments,
			Decisions: task.Decisions,
		}
	}

	comments := make([]domain.TaskComment, len(discussion.Comments))
	copy(comments, discussion.Comments)
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})

	decisions := make([]domain.TaskDecision, len(discussion.Decisions))
	copy(decisions, discussion.Decisions)
	sort.SliceStable(decisions, func(i, j int) bool {
		return decisions[i].CreatedAt.Before(decisions[j].CreatedAt)
	})

	return &TaskView{Task: task, Comments: comments, Decisions: decisions}
}

// resolveViews batch-loads the shared discussions referenced by the
// given tasks and assembles views in the same order.
func (s *Service) resolveViews(ctx context.Context, tasks []*domain.Task) ([]*TaskView, error) {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, t := range tasks {
		if t.HasSharedDiscussion() && !seen[*t.SharedDiscussionID] {
			seen[*t.SharedDiscussionID] = true
			ids = append(ids, *t.SharedDiscussionID)
		}
	}

	byID := make(map[uuid.UUID]*domain.Discussion, len(ids))
	if len(ids) > 0 {
		discussions, err := s.discussionStore.GetAllByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load shared discussions: %w", err)
		}
		for _, d := range discussions {
			byID[d.ID] = d
		}
	}

	views := make([]*TaskView, 0, len(tasks))
	for _, t := range tasks {
		var d *domain.Discussion
		if t.HasSharedDiscussion() {
			d = byID[*t.SharedDiscussionID]
		}
		views = append(views, viewOf(t, d))
	}
	return views, nil
}

// resolveView assembles the view for a single task.
func (s *Service) resolveView(ctx context.Context, task *domain.Task) (*TaskView, error) {
	views, err := s.resolveViews(ctx, []*domain.Task{task})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// appendCommentRouted adds a comment to the task's thread, routing to
// the shared discussion when one is referenced. A dangling reference
// recreates the discussion document under the same ID so the group
// keeps a single thread.
func (s *Service) appendCommentRouted(ctx context.Context, task *domain.Task, c domain.TaskComment) error {
	if !task.HasSharedDiscussion() {
		task.AppendComment(c)
		return nil
	}

	discussion, err := s.loadOrCreateDiscussion(ctx, *task.SharedDiscussionID)
	if err != nil {
		return err
	}
	discussion.AppendComment(c)
	discussion.UpdatedAt = s.clock.Now()
	if err := s.discussionStore.Save(ctx, discussion); err != nil {
		return fmt.Errorf("failed to save shared discussion: %w", err)
	}
	return nil
}

// appendDecisionRouted adds a decision to the task's thread, routing
// to the shared discussion when one is referenced.
func (s *Service) appendDecisionRouted(ctx context.Context, task *domain.Task, d domain.TaskDecision) error {
	if !task.HasSharedDiscussion() {
		task.AppendDecision(d)
		return nil
	}

	discussion, err := s.loadOrCreateDiscussion(ctx, *task.SharedDiscussionID)
	if err != nil {
		return err
	}
	discussion.AppendDecision(d)
	discussion.UpdatedAt = s.clock.Now()
	if err := s.discussionStore.Save(ctx, discussion); err != nil {
		return fmt.Errorf("failed to save shared discussion: %w", err)
	}
	return nil
}

func (s *Service) loadOrCreateDiscussion(ctx context.Context, id uuid.UUID) (*domain.Discussion, error) {
	discussion, err := s.discussionStore.GetByID(ctx, id)
	if err == nil {
		return discussion, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("failed to load shared discussion: %w", err)
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Warn("shared discussion missing, recreating", "discussion_id", id.String())

	now := s.clock.Now()
	return &domain.Discussion{
		ID:        id,
		Comments:  []domain.TaskComment{},
		Decisions: []domain.TaskDecision{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
