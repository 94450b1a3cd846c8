package board

import (
	"time"

	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/google/uuid"
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	UserID  uuid.UUID
	Email   string
	IsAdmin bool
}

// CreateTaskRequest describes a new task. Status is always TODO and
// the task lands at the tail of the unpinned segment.
type CreateTaskRequest struct {
	Title       string
	Description string
	Priority    domain.TaskPriority
	DueDate     *time.Time
}

// UpdateTaskRequest replaces the editable fields of a task.
// A zero-value Priority keeps the current one.
type UpdateTaskRequest struct {
	Title       string
	Description string
	Priority    domain.TaskPriority
	DueDate     *time.Time
}

// MoveTaskRequest moves a task between or within columns. FromStatus
// is an optimistic-concurrency token: it must match the persisted
// status or the move is rejected with ErrConflict. ToIndex is a
// combined column index counting pinned rows first.
type MoveTaskRequest struct {
	TaskID     uuid.UUID
	FromStatus domain.TaskStatus
	ToStatus   domain.TaskStatus
	ToIndex    int
}

// Bulk actions.
const (
	BulkActionDelete      = "DELETE"
	BulkActionSetStatus   = "SET_STATUS"
	BulkActionSetPriority = "SET_PRIORITY"
	BulkActionSetDueDate  = "SET_DUE_DATE"
	BulkActionAddLabel    = "ADD_LABEL"
	BulkActionRemoveLabel = "REMOVE_LABEL"
	BulkActionSetFocus    = "SET_FOCUS"
)

// BulkRequest applies one action to a list of tasks. Rows not owned by
// the actor and admin-assigned rows are skipped silently; a missing
// action parameter rejects the whole request before any row changes.
type BulkRequest struct {
	Action   string
	TaskIDs  []uuid.UUID
	Status   domain.TaskStatus
	Priority domain.TaskPriority
	DueDate  *time.Time
	Label    string
	Focus    bool
}

// UpdateRecurrenceRequest replaces a task's recurrence rule.
// A nil Frequency clears the rule.
type UpdateRecurrenceRequest struct {
	Frequency             *domain.RecurrenceFrequency
	Interval              *int
	WeekdaysOnly          *bool
	DaysOfWeek            []int
	NthBusinessDayOfMonth *int
	EndDate               *time.Time
}

// UpdateChecklistItemRequest patches a checklist item. Nil fields are
// left unchanged.
type UpdateChecklistItemRequest struct {
	Text *string
	Done *bool
}

// AssignTaskRequest is an admin operation: create a pinned TODO task
// on another user's board.
type AssignTaskRequest struct {
	Title       string
	Description string
	Priority    domain.TaskPriority
	DueDate     *time.Time
}
