package domain

import (
	"time"

	"github.com/google/uuid"
)

// Discussion is a comment and decision thread shared by a group of
// tasks. When an admin assigns one task to several users, each copy
// points at the same discussion so the thread is visible to everyone
// in the group. Tasks without a shared discussion keep their thread
// inline on the task itself.
type Discussion struct {
	ID        uuid.UUID      `json:"id"`
	Comments  []TaskComment  `json:"comments"`
	Decisions []TaskDecision `json:"decisions"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewDiscussion creates an empty discussion thread.
func NewDiscussion(now time.Time) *Discussion {
	return &Discussion{
		ID:        uuid.New(),
		Comments:  []TaskComment{},
		Decisions: []TaskDecision{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendComment adds a comment to the thread, evicting the oldest
// entry once MaxComments is reached.
func (d *Discussion) AppendComment(c TaskComment) {
	d.Comments = appendCapped(d.Comments, c, MaxComments)
}

// AppendDecision adds a decision to the thread, evicting the oldest
// entry once MaxDecisions is reached.
func (d *Discussion) AppendDecision(dec TaskDecision) {
	d.Decisions = appendCapped(d.Decisions, dec, MaxDecisions)
}
