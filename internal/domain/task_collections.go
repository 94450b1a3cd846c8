package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskActivityType classifies entries in a task's activity log.
type TaskActivityType string

// Possible activity types.
const (
	ActivityCreated               TaskActivityType = "CREATED"
	ActivityUpdated               TaskActivityType = "UPDATED"
	ActivityMoved                 TaskActivityType = "MOVED"
	ActivityReordered             TaskActivityType = "REORDERED"
	ActivityCompleted             TaskActivityType = "COMPLETED"
	ActivityCommented             TaskActivityType = "COMMENTED"
	ActivityDecisionAdded         TaskActivityType = "DECISION_ADDED"
	ActivityChecklistUpdated      TaskActivityType = "CHECKLIST_UPDATED"
	ActivityLabelsUpdated         TaskActivityType = "LABELS_UPDATED"
	ActivityDependenciesUpdated   TaskActivityType = "DEPENDENCIES_UPDATED"
	ActivityFocusUpdated          TaskActivityType = "FOCUS_UPDATED"
	ActivityTimeBudgetUpdated     TaskActivityType = "TIME_BUDGET_UPDATED"
	ActivityTimerStarted          TaskActivityType = "TIMER_STARTED"
	ActivityTimerStopped          TaskActivityType = "TIMER_STOPPED"
	ActivityRecurrenceUpdated     TaskActivityType = "RECURRENCE_UPDATED"
	ActivityRecurrenceNextCreated TaskActivityType = "RECURRENCE_NEXT_CREATED"
	ActivityAssigned              TaskActivityType = "ASSIGNED"
)

// ChecklistItem is a single entry in a task's checklist. Items carry
// their own dense position, independent of the task's board position.
type ChecklistItem struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskComment is a comment on a task or on its shared discussion.
type TaskComment struct {
	ID          uuid.UUID `json:"id"`
	AuthorID    uuid.UUID `json:"author_id"`
	AuthorEmail string    `json:"author_email"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskDecision records an agreed decision on a task or its shared
// discussion.
type TaskDecision struct {
	ID          uuid.UUID `json:"id"`
	AuthorID    uuid.UUID `json:"author_id"`
	AuthorEmail string    `json:"author_email"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskActivity is an audit-log entry describing a mutation.
type TaskActivity struct {
	ID         uuid.UUID        `json:"id"`
	Type       TaskActivityType `json:"type"`
	ActorID    uuid.UUID        `json:"actor_id"`
	ActorEmail string           `json:"actor_email"`
	Message    string           `json:"message"`
	FromStatus TaskStatus       `json:"from_status,omitempty"`
	ToStatus   TaskStatus       `json:"to_status,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// TaskTimeLog records a completed timer interval.
type TaskTimeLog struct {
	ID              uuid.UUID `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationMinutes int64     `json:"duration_minutes"`
	Note            string    `json:"note,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// AppendActivity appends an audit entry and trims the log to
// MaxActivity, dropping the oldest entries first.
func (t *Task) AppendActivity(entry TaskActivity) {
	t.Activity = append(t.Activity, entry)
	if len(t.Activity) > MaxActivity {
		t.Activity = t.Activity[len(t.Activity)-MaxActivity:]
	}
}

// AppendComment appends a comment and trims to MaxComments.
func (t *Task) AppendComment(c TaskComment) {
	t.Comments = appendCapped(t.Comments, c, MaxComments)
}

// AppendDecision appends a decision and trims to MaxDecisions.
func (t *Task) AppendDecision(d TaskDecision) {
	t.Decisions = appendCapped(t.Decisions, d, MaxDecisions)
}

// AppendTimeLog appends a time log and trims to MaxTimeLogs.
func (t *Task) AppendTimeLog(l TaskTimeLog) {
	t.TimeLogs = appendCapped(t.TimeLogs, l, MaxTimeLogs)
}

// TotalLoggedMinutes sums all recorded time-log durations.
func (t *Task) TotalLoggedMinutes() int64 {
	var total int64
	for _, l := range t.TimeLogs {
		total += l.DurationMinutes
	}
	return total
}

// NextChecklistPosition returns the position for a newly appended
// checklist item: max(position)+1, or 0 for an empty checklist.
func (t *Task) NextChecklistPosition() int {
	next := 0
	for _, item := range t.Checklist {
		if item.Position >= next {
			next = item.Position + 1
		}
	}
	return next
}

func appendCapped[T any](list []T, entry T, limit int) []T {
	list = append(list, entry)
	if len(list) > limit {
		list = list[len(list)-limit:]
	}
	return list
}

// NormalizeLabels trims, truncates to MaxLabelLength, deduplicates
// case-insensitively (first spelling wins) and caps the result at
// MaxLabels.
func NormalizeLabels(labels []string) []string {
	cleaned := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, raw := range labels {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if runes := []rune(s); len(runes) > MaxLabelLength {
			s = string(runes[:MaxLabelLength])
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, s)
		if len(cleaned) >= MaxLabels {
			break
		}
	}
	return cleaned
}
