// Package gemini implements the generation interface using Google's
// Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/glideclouds/taskboard-api/internal/config"
	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/glideclouds/taskboard-api/internal/generation"
	"google.golang.org/genai"
)

const (
	maxRetries       = 3
	baseDelaySeconds = 2
)

const promptPreamble = `You are a task planning assistant. Given a goal,
produce a single JSON object with the fields "title" (short imperative
phrase), "description" (one or two sentences), "priority" (LOW, MEDIUM
or HIGH), "labels" (up to five short lowercase tags) and "checklist"
(up to ten concrete steps as strings). Respond with JSON only.

Goal:
`

// TemplateGenerator implements generation.Generator using the Gemini
// API.
type TemplateGenerator struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

var _ generation.Generator = (*TemplateGenerator)(nil)

// NewTemplateGenerator creates a Gemini-backed template generator.
func NewTemplateGenerator(ctx context.Context, logger *slog.Logger, cfg config.AIConfig) (*TemplateGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &TemplateGenerator{
		logger: logger.With(slog.String("component", "gemini_generator")),
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// GenerateTemplate implements generation.Generator.
func (g *TemplateGenerator) GenerateTemplate(ctx context.Context, goal string) (*generation.TaskTemplate, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, generation.ErrEmptyGoal
	}

	template, err := g.callWithRetry(ctx, promptPreamble+goal)
	if err != nil {
		return nil, err
	}

	sanitizeTemplate(template)
	return template, nil
}

// callWithRetry calls the Gemini API with exponential backoff and
// jitter. Permanent errors (blocked content, unparseable responses)
// return immediately; transient API errors retry up to maxRetries.
func (g *TemplateGenerator) callWithRetry(ctx context.Context, prompt string) (*generation.TaskTemplate, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		g.logger.InfoContext(ctx, "making Gemini API call",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1)

		template, err := g.callOnce(ctx, prompt)
		if err == nil {
			return template, nil
		}

		g.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attempt+1,
			"error", err)

		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			return nil, err
		}
		if attempt >= maxRetries {
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				generation.ErrTransientFailure, maxRetries)
		}

		// delay = baseDelay * 2^attempt * jitter in [0.5, 1.0)
		backoff := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5) * float64(time.Second))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

func (g *TemplateGenerator) callOnce(ctx context.Context, prompt string) (*generation.TaskTemplate, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API call error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: blocked by safety filters", generation.ErrContentBlocked)
	}

	text := resp.Text()
	var template generation.TaskTemplate
	if err := json.Unmarshal([]byte(text), &template); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}
	if strings.TrimSpace(template.Title) == "" {
		return nil, fmt.Errorf("%w: missing title", generation.ErrInvalidResponse)
	}
	return &template, nil
}

// sanitizeTemplate clamps model output to the domain's limits.
func sanitizeTemplate(t *generation.TaskTemplate) {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)

	switch t.Priority {
	case domain.TaskPriorityLow, domain.TaskPriorityMedium, domain.TaskPriorityHigh:
	default:
		t.Priority = domain.TaskPriorityMedium
	}

	t.Labels = domain.NormalizeLabels(t.Labels)

	items := t.Checklist[:0]
	for _, step := range t.Checklist {
		step = strings.TrimSpace(step)
		if step == "" {
			continue
		}
		items = append(items, step)
		if len(items) >= domain.MaxChecklist {
			break
		}
	}
	t.Checklist = items
}
