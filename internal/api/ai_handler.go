package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/glideclouds/taskboard-api/internal/api/shared"
	"github.com/glideclouds/taskboard-api/internal/generation"
)

// AIHandler exposes AI-assisted task template generation.
type AIHandler struct {
	generator generation.Generator
	validator *validator.Validate
}

// NewAIHandler creates a new AIHandler with the given dependencies.
func NewAIHandler(generator generation.Generator) *AIHandler {
	return &AIHandler{
		generator: generator,
		validator: validator.New(),
	}
}

// GenerateTemplate handles POST /ai/task-template: turns a free-form
// goal into a structured task template the client can prefill.
func (h *AIHandler) GenerateTemplate(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	var req GenerateTemplateRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	template, err := h.generator.GenerateTemplate(r.Context(), req.Goal)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, template)
}
