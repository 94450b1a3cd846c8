package api

import (
	"time"

	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/glideclouds/taskboard-api/internal/service/board"
	"github.com/google/uuid"
)

// Auth request/response models

// RegisterRequest represents the payload for user registration.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest represents the payload for user login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest represents the payload for refreshing an access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse represents the response for successful authentication.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	IsAdmin      bool      `json:"is_admin"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
}

// Task request models

// CreateTaskRequest represents the payload for creating a task.
type CreateTaskRequest struct {
	Title       string              `json:"title"       validate:"required,max=500"`
	Description string              `json:"description" validate:"max=10000"`
	Priority    domain.TaskPriority `json:"priority"    validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate     *time.Time          `json:"due_date"`
}

// UpdateTaskRequest represents the payload for editing a task's fields.
type UpdateTaskRequest struct {
	Title       string              `json:"title"       validate:"required,max=500"`
	Description string              `json:"description" validate:"max=10000"`
	Priority    domain.TaskPriority `json:"priority"    validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate     *time.Time          `json:"due_date"`
}

// MoveTaskRequest represents the payload for moving a task on the
// board. FromStatus is the status the client last saw; a mismatch with
// the persisted status rejects the move.
type MoveTaskRequest struct {
	FromStatus domain.TaskStatus `json:"from_status" validate:"required"`
	ToStatus   domain.TaskStatus `json:"to_status"   validate:"required"`
	ToIndex    int               `json:"to_index"    validate:"gte=0"`
}

// BulkTaskRequest represents the payload for a bulk action over tasks.
type BulkTaskRequest struct {
	Action   string              `json:"action" validate:"required"`
	TaskIDs  []uuid.UUID         `json:"task_ids"`
	Status   domain.TaskStatus   `json:"status"`
	Priority domain.TaskPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate  *time.Time          `json:"due_date"`
	Label    string              `json:"label"`
	Focus    bool                `json:"focus"`
}

// LabelsRequest replaces a task's label set.
type LabelsRequest struct {
	Labels []string `json:"labels"`
}

// FocusRequest sets or clears a task's focus flag.
type FocusRequest struct {
	Focus bool `json:"focus"`
}

// TimeBudgetRequest sets or clears a task's time budget. A nil value
// clears the budget.
type TimeBudgetRequest struct {
	Minutes *int `json:"minutes"`
}

// RecurrenceRequest replaces a task's recurrence rule. A nil frequency
// clears the rule.
type RecurrenceRequest struct {
	Frequency             *domain.RecurrenceFrequency `json:"frequency"`
	Interval              *int                        `json:"interval"`
	WeekdaysOnly          *bool                       `json:"weekdays_only"`
	DaysOfWeek            []int                       `json:"days_of_week"`
	NthBusinessDayOfMonth *int                        `json:"nth_business_day_of_month"`
	EndDate               *time.Time                  `json:"end_date"`
}

// DependenciesRequest replaces a task's blocked-by list.
type DependenciesRequest struct {
	BlockedBy []uuid.UUID `json:"blocked_by"`
}

// ArchivedRequest archives or unarchives a task.
type ArchivedRequest struct {
	Archived bool `json:"archived"`
}

// ChecklistAddRequest appends a checklist item.
type ChecklistAddRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

// ChecklistUpdateRequest patches a checklist item. Nil fields are left
// unchanged.
type ChecklistUpdateRequest struct {
	Text *string `json:"text"`
	Done *bool   `json:"done"`
}

// ChecklistReorderRequest renumbers checklist items in the given order.
type ChecklistReorderRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids" validate:"required"`
}

// MessageRequest carries a comment or decision message.
type MessageRequest struct {
	Message string `json:"message" validate:"required,max=5000"`
}

// TimerStopRequest stops the running timer with an optional note.
type TimerStopRequest struct {
	Note string `json:"note" validate:"max=500"`
}

// Admin request models

// AssignTaskRequest represents the payload for assigning a task onto a
// user's board, addressed by email.
type AssignTaskRequest struct {
	AssigneeEmail string              `json:"assignee_email" validate:"required,email"`
	Title         string              `json:"title"          validate:"required,max=500"`
	Description   string              `json:"description"    validate:"max=10000"`
	Priority      domain.TaskPriority `json:"priority"       validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate       *time.Time          `json:"due_date"`
}

// AssignGroupRequest assigns one task to several users who then share
// a single discussion thread.
type AssignGroupRequest struct {
	AssigneeEmails []string            `json:"assignee_emails" validate:"required,min=1,dive,email"`
	Title          string              `json:"title"           validate:"required,max=500"`
	Description    string              `json:"description"     validate:"max=10000"`
	Priority       domain.TaskPriority `json:"priority"        validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate        *time.Time          `json:"due_date"`
}

// GenerateTemplateRequest asks the AI generator for a task template.
type GenerateTemplateRequest struct {
	Goal string `json:"goal" validate:"required,max=2000"`
}

// Task response models

// TaskResponse is a task with its resolved comment and decision
// threads. For grouped assignments the threads come from the shared
// discussion; the embedded task's own thread fields are shadowed.
type TaskResponse struct {
	*domain.Task
	Comments   []domain.TaskComment  `json:"comments"`
	Decisions  []domain.TaskDecision `json:"decisions"`
	OwnerEmail string                `json:"owner_email,omitempty"`
}

// NewTaskResponse converts a board view into the API shape.
func NewTaskResponse(v *board.TaskView) TaskResponse {
	return TaskResponse{
		Task:      v.Task,
		Comments:  v.Comments,
		Decisions: v.Decisions,
	}
}

// NewTaskResponses converts a slice of board views, attaching owner
// emails when provided.
func NewTaskResponses(views []*board.TaskView, emails map[uuid.UUID]string) []TaskResponse {
	out := make([]TaskResponse, 0, len(views))
	for _, v := range views {
		resp := NewTaskResponse(v)
		if emails != nil {
			resp.OwnerEmail = emails[v.Task.OwnerUserID]
		}
		out = append(out, resp)
	}
	return out
}
