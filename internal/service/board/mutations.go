package board

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/glideclouds/taskboard-api/internal/store"
	"github.com/google/uuid"
)

// UpdateLabels replaces the label set of an owned task. Labels are
// trimmed, truncated to the maximum length and deduplicated
// case-insensitively, keeping the first spelling.
func (s *Service) UpdateLabels(ctx context.Context, actor Actor, taskID uuid.UUID, labels []string) (*TaskView, error) {
	task, err := s.loadOwnedTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	task.Labels = domain.NormalizeLabels(labels)
	s.recordActivity(task, domain.ActivityLabelsUpdated, actor, "Labels updated", "", "")

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return s.resolveView(ctx, task)
}

// UpdateFocus sets or clears the focus flag of an owned task.
func (s *Service) UpdateFocus(ctx context.Context, actor Actor, taskID uuid.UUID, focus bool) (*TaskView, error) {
	task, err := s.loadOwnedTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	task.Focus = focus
	message := "Unmarked as focus"
	if focus {
		message = "Marked as focus"
	}
	s.recordActivity(task, domain.ActivityFocusUpdated, actor, message, "", "")

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return s.resolveView(ctx, task)
}

// UpdateTimeBudget sets or clears the time budget of an owned task.
func (s *Service) UpdateTimeBudget(ctx context.Context, actor Actor, taskID uuid.UUID, minutes *int) (*TaskView, error) {
	task, err := s.loadOwnedTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	if minutes != nil && *minutes < 0 {
		return nil, fmt.Errorf("%w: time budget must be >= 0", ErrInvalidRequest)
	}
	task.TimeBudgetMinutes = minutes
	s.recordActivity(task, domain.ActivityTimeBudgetUpdated, actor, "Time budget updated", "", "")

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return s.resolveView(ctx, task)
}

// UpdateRecurrence replaces the recurrence rule of an owned task.
// A nil frequency clears the rule. The interval is floored at 1 and a
// non-positive nth-business-day is dropped.
func (s *Service) UpdateRecurrence(ctx context.Context, actor Actor, taskID uuid.UUID, req UpdateRecurrenceRequest) (*TaskView, error) {
	task, err := s.loadOwnedTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	if req.Frequency == nil {
		task.Recurrence = nil
		s.recordActivity(task, domain.ActivityRecurrenceUpdated, actor, "Recurrence cleared", "", "")
	} else {
		interval := 1
		if req.Interval != nil && *req.Interval > 1 {
			interval = *req.Interval
		}

		nth := req.NthBusinessDayOfMonth
		if nth != nil && *nth <= 0 {
			nth = nil
		}

		rule := &domain.RecurrenceRule{
			Frequency:             *req.Frequency,
			Interval:              interval,
			WeekdaysOnly:          req.WeekdaysOnly != nil && *req.WeekdaysOnly,
			DaysOfWeek:            req.DaysOfWeek,
			NthBusinessDayOfMonth: nth,
			EndDate:               req.EndDate,
		}
		if rule.DaysOfWeek == nil {
			rule.DaysOfWeek = []int{}
		}
		task.Recurrence = rule
		s.recordActivity(task, domain.ActivityRecurrenceUpdated, actor, "Recurrence updated", "", "")
	}

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return s.resolveView(ctx, task)
}

// UpdateDependencies replaces the advisory blocked-by list of an owned
// task. IDs are deduplicated, self references dropped, and every
// remaining dependency must exist and share the task's owner.
func (s *Service) UpdateDependencies(ctx context.Context, actor Actor, taskID uuid.UUID, blockedBy []uuid.UUID) (*TaskView, error) {
	task, err := s.loadOwnedTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	cleaned := make([]uuid.UUID, 0, len(blockedBy))
	seen := make(map[uuid.UUID]bool)
	for _, id := range blockedBy {
		if id == uuid.Nil || id == taskID || seen[id] {
			continue
		}
		seen[id] = true
		cleaned = append(cleaned, id)
		if len(cleaned) >= domain.MaxDependencies {
			break
		}
	}

	if len(cleaned) > 0 {
		deps, err := s.taskStore.GetAllByIDs(ctx, cleaned)
		if err != nil {
			return nil, fmt.Errorf("failed to load dependencies: %w", err)
		}
		if len(deps) != len(cleaned) {
			return nil, fmt.Errorf("%w: one or more dependency tasks were not found", ErrInvalidRequest)
		}
		for _, dep := range deps {
			if dep.OwnerUserID != task.OwnerUserID {
				return nil, fmt.Errorf("%w: dependencies must belong to the same owner", ErrInvalidRequest)
			}
		}
	}

	task.BlockedByTaskIDs = cleaned
	s.recordActivity(task, domain.ActivityDependenciesUpdated, actor, "Dependencies updated", "", "")

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return s.resolveView(ctx, task)
}

// AddChecklistItem appends an item to the checklist of an owned task.
func (s *Service) AddChecklistItem(ctx context.Context, actor Actor, taskID uuid.UUID, text string) (*TaskView, error) {
	task, err := s.loadOwnedTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}
	if len(task.Checklist) >= domain.MaxChecklist {
		return nil, fmt.Errorf("%w: checklist limit reached", ErrInvalidRequest)
	}

	task.Checklist = append(task.Checklist, domain.ChecklistItem{
		ID:        uuid.New(),
		Text:      trimmed,
		Done:      false,
		Position:  task.NextChecklistPosition(),
		CreatedAt: s.clock.Now(),
	})
	s.recordActivity(task, domain.ActivityChecklistUpdated, actor, "Checklist updated", "", "")

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return s.resolveView(ctx, task)
}

// UpdateChecklistItem patches the text or done flag of a checklist item.
func (s *Service) UpdateChecklistItem(ctx context.Context, actor Actor, taskID, itemID uuid.UUID, req UpdateChecklistItemRequest) (*TaskView, error) {
	task, err := s.loadOwnedTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range task.Checklist {
		if task.Checklist[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("checklist item not found: %w", store.ErrNotFound)
	}

	if req.Text != nil {
		trimmed := strings.TrimSpace(*req.Text)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: text is required", ErrInvalidRequest)
		}
		task.Checklist[idx].Text = trimmed
	}
	if req.Done != nil {
		task.Checklist[idx].Done = *req.Done
	}

	s.recordActivity(task, domain.ActivityChecklistUpdated, actor, "Checklist updated", "", "")

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return s.resolveView(ctx, task)
}

// ReorderChecklist renumbers checklist items in the order given.
// Unknown IDs are ignored; items not mentioned keep their relative
// order and are appended after the mentioned ones.
func (s *Service) ReorderChecklist(ctx context.Context, actor Actor, taskID uuid.UUID, itemIDs []uuid.UUID) (*TaskView, error) {
	task, err := s.loadOwnedTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]int, len(task.Checklist))
	for i := range task.Checklist {
		byID[task.Checklist[i].ID] = i
	}

	pos := 0
	seen := make(map[uuid.UUID]bool)
	for _, id := range itemIDs {
		i, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		task.Checklist[i].Position = pos
		pos++
	}

	// Unmentioned items follow, in their previous order.
	missing := make([]int, 0)
	for i := range task.Checklist {
		if !seen[task.Checklist[i].ID] {
			missing = append(missing, i)
		}
	}
	sort.SliceStable(missing, func(a, b int) bool {
		return task.Checklist[missing[a]].Position < task.Checklist[missing[b]].Position
	})
	for _, i := range missing {
		task.Checklist[i].Position = pos
		pos++
	}

	s.recordActivity(task, domain.ActivityChecklistUpdated, actor, "Checklist reordered", "", "")

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return s.resolveView(ctx, task)
}

// AddComment adds a comment to a task's thread. Allowed for the owner,
// the creator, or an admin. Routed to the shared discussion when the
// task references one.
func (s *Service) AddComment(ctx context.Context, actor Actor, taskID uuid.UUID, message string) (*TaskView, error) {
	task, err := s.loadDiscussableTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}

	comment := domain.TaskComment{
		ID:          uuid.New(),
		AuthorID:    actor.UserID,
		AuthorEmail: actor.Email,
		Message:     trimmed,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.appendCommentRouted(ctx, task, comment); err != nil {
		return nil, err
	}

	s.recordActivity(task, domain.ActivityCommented, actor, "Comment added", "", "")

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return s.resolveView(ctx, task)
}

// AddDecision records a decision on a task's thread. Same access and
// routing rules as AddComment.
func (s *Service) AddDecision(ctx context.Context, actor Actor, taskID uuid.UUID, message string) (*TaskView, error) {
	task, err := s.loadDiscussableTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}

	decision := domain.TaskDecision{
		ID:          uuid.New(),
		AuthorID:    actor.UserID,
		AuthorEmail: actor.Email,
		Message:     trimmed,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.appendDecisionRouted(ctx, task, decision); err != nil {
		return nil, err
	}

	s.recordActivity(task, domain.ActivityDecisionAdded, actor, "Decision added", "", "")

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return s.resolveView(ctx, task)
}

// loadDiscussableTask fetches a task for comment or decision access:
// owner, creator, or admin.
func (s *Service) loadDiscussableTask(ctx context.Context, actor Actor, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	allowed := actor.IsAdmin ||
		task.OwnerUserID == actor.UserID ||
		task.CreatedByUserID == actor.UserID
	if !allowed {
		return nil, ErrForbidden
	}
	return task, nil
}

// StartTimer begins tracking time on an owned task. Only one timer
// may run per task.
func (s *Service) StartTimer(ctx context.Context, actor Actor, taskID uuid.UUID) (*TaskView, error) {
	task, err := s.loadOwnedTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	if task.ActiveTimerStartedAt != nil {
		return nil, fmt.Errorf("%w: timer already running", ErrConflict)
	}

	now := s.clock.Now()
	task.ActiveTimerStartedAt = &now
	s.recordActivity(task, domain.ActivityTimerStarted, actor, "Timer started", "", "")

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return s.resolveView(ctx, task)
}

// StopTimer stops the running timer and records a time log. Intervals
// shorter than a minute are logged as one minute.
func (s *Service) StopTimer(ctx context.Context, actor Actor, taskID uuid.UUID, note string) (*TaskView, error) {
	task, err := s.loadOwnedTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	if task.ActiveTimerStartedAt == nil {
		return nil, fmt.Errorf("%w: timer is not running", ErrConflict)
	}

	startedAt := *task.ActiveTimerStartedAt
	endedAt := s.clock.Now()
	minutes := int64(endedAt.Sub(startedAt).Minutes())
	if minutes < 1 {
		minutes = 1
	}

	task.AppendTimeLog(domain.TaskTimeLog{
		ID:              uuid.New(),
		StartedAt:       startedAt,
		EndedAt:         endedAt,
		DurationMinutes: minutes,
		Note:            note,
		CreatedAt:       endedAt,
	})
	task.ActiveTimerStartedAt = nil
	s.recordActivity(task, domain.ActivityTimerStopped, actor, "Timer stopped", "", "")

	if err := s.taskStore.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}
	return s.resolveView(ctx, task)
}
