// Package generation provides interfaces for generating task templates
// with external AI/LLM services. It abstracts the details of the LLM
// API integration (Gemini), so the application can suggest task
// structures from a free-form goal without coupling to a specific
// external service.
package generation

import (
	"context"

	"github.com/glideclouds/taskboard-api/internal/domain"
)

// TaskTemplate is a suggested task structure produced from a user goal.
// The caller decides whether to materialize it into a real task.
type TaskTemplate struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    domain.TaskPriority `json:"priority"`
	Labels      []string            `json:"labels,omitempty"`
	Checklist   []string            `json:"checklist,omitempty"`
}

// Generator defines the interface for generating task templates from a
// goal description. It is the boundary between the application core and
// external AI services.
type Generator interface {
	// GenerateTemplate creates a task template for the provided goal
	// text. Returns an error from errors.go when generation fails.
	GenerateTemplate(ctx context.Context, goal string) (*TaskTemplate, error)
}
