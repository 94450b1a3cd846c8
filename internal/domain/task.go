package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the board column a task lives in.
// The set is open-ended: custom statuses sort after the built-in ones,
// so validation only requires a non-empty value.
type TaskStatus string

// Built-in status values.
const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// TaskPriority represents the urgency of a task.
type TaskPriority string

// Possible priority values.
const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// Retention caps for the append-only subcollections. When a cap is
// exceeded the oldest entries are dropped first.
const (
	MaxComments     = 200
	MaxDecisions    = 200
	MaxActivity     = 400
	MaxTimeLogs     = 400
	MaxChecklist    = 100
	MaxLabels       = 20
	MaxLabelLength  = 24
	MaxDependencies = 20
)

// Task-specific validation errors.
var (
	ErrTaskIDEmpty      = errors.New("task ID cannot be empty")
	ErrTaskOwnerEmpty   = errors.New("task owner ID cannot be empty")
	ErrTaskCreatorEmpty = errors.New("task creator ID cannot be empty")
	ErrTaskTitleEmpty   = errors.New("task title cannot be empty")
)

// Task is the central entity of the board. Ordering fields (Status,
// Pinned, Position) are maintained by the board service; positions are
// dense per (owner, status, pinned) segment.
type Task struct {
	ID              uuid.UUID `json:"id"`
	OwnerUserID     uuid.UUID `json:"owner_user_id"`
	CreatedByUserID uuid.UUID `json:"created_by_user_id"`

	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`

	Position int  `json:"position"`
	Pinned   bool `json:"pinned"`

	Labels           []string        `json:"labels"`
	BlockedByTaskIDs []uuid.UUID     `json:"blocked_by_task_ids"`
	Checklist        []ChecklistItem `json:"checklist"`
	Recurrence       *RecurrenceRule `json:"recurrence,omitempty"`

	Focus             bool `json:"focus"`
	TimeBudgetMinutes *int `json:"time_budget_minutes,omitempty"`

	TimeLogs             []TaskTimeLog `json:"time_logs"`
	ActiveTimerStartedAt *time.Time    `json:"active_timer_started_at,omitempty"`

	Comments  []TaskComment  `json:"comments"`
	Decisions []TaskDecision `json:"decisions"`
	Activity  []TaskActivity `json:"activity"`

	// SharedDiscussionID, when set, redirects comments and decisions to
	// a shared Discussion document visible to all assignees.
	SharedDiscussionID *uuid.UUID `json:"shared_discussion_id,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Archived    bool       `json:"archived"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTask creates a self-created task for the given owner. Status is
// forced to TODO and the task starts unpinned; the caller assigns the
// position from the owner's TODO segment.
func NewTask(ownerID uuid.UUID, title, description string, priority TaskPriority, dueDate *time.Time, now time.Time) (*Task, error) {
	if priority == "" {
		priority = TaskPriorityMedium
	}

	task := &Task{
		ID:              uuid.New(),
		OwnerUserID:     ownerID,
		CreatedByUserID: ownerID,
		Title:           title,
		Description:     description,
		Status:          TaskStatusTodo,
		Priority:        priority,
		DueDate:         dueDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// NewAssignedTask creates a task owned by assigneeID but created by an
// admin. Assigned tasks are pinned so they render above the assignee's
// own tasks in the TODO column.
func NewAssignedTask(adminID, assigneeID uuid.UUID, title, description string, priority TaskPriority, dueDate *time.Time, now time.Time) (*Task, error) {
	if priority == "" {
		priority = TaskPriorityMedium
	}

	task := &Task{
		ID:              uuid.New(),
		OwnerUserID:     assigneeID,
		CreatedByUserID: adminID,
		Title:           title,
		Description:     description,
		Status:          TaskStatusTodo,
		Priority:        priority,
		DueDate:         dueDate,
		Pinned:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.OwnerUserID == uuid.Nil {
		return ErrTaskOwnerEmpty
	}

	if t.CreatedByUserID == uuid.Nil {
		return ErrTaskCreatorEmpty
	}

	if t.Title == "" {
		return ErrTaskTitleEmpty
	}

	if t.Status == "" {
		return ErrInvalidTaskStatus
	}

	switch t.Priority {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
	default:
		return ErrInvalidTaskPriority
	}

	return nil
}

// AssignedFromAdmin reports whether this task was assigned by someone
// other than its owner. Assigned tasks cannot be deleted by the
// assignee.
func (t *Task) AssignedFromAdmin() bool {
	return t.CreatedByUserID != uuid.Nil &&
		t.OwnerUserID != uuid.Nil &&
		t.CreatedByUserID != t.OwnerUserID
}

// HasSharedDiscussion reports whether comments/decisions for this task
// live in a shared Discussion document.
func (t *Task) HasSharedDiscussion() bool {
	return t.SharedDiscussionID != nil && *t.SharedDiscussionID != uuid.Nil
}
