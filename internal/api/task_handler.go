package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/glideclouds/taskboard-api/internal/api/shared"
	"github.com/glideclouds/taskboard-api/internal/service/board"
)

// TaskHandler handles the board API: task CRUD, moves, bulk actions,
// checklists, labels, discussions and timers.
type TaskHandler struct {
	boardService *board.Service
	validator    *validator.Validate
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(boardService *board.Service) *TaskHandler {
	return &TaskHandler{
		boardService: boardService,
		validator:    validator.New(),
	}
}

// decodeAndValidate decodes the body into dst and runs struct
// validation, writing the error response itself on failure.
func (h *TaskHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := DecodeJSON(r, dst); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return false
	}
	return true
}

// List handles GET /tasks. An optional q parameter filters the board
// by a case-insensitive substring match.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	views, err := h.boardService.Search(r.Context(), actor, query)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponses(views, nil))
}

// Get handles GET /tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.boardService.Get(r.Context(), actor, taskID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(view))
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.boardService.Create(r.Context(), actor, board.CreateTaskRequest{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, NewTaskResponse(view))
}

// Update handles PUT /tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.boardService.Update(r.Context(), actor, taskID, board.UpdateTaskRequest{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(view))
}

// Delete handles DELETE /tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.boardService.Delete(r.Context(), actor, taskID); err != nil {
		HandleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Move handles POST /tasks/{id}/move and returns the refreshed board.
func (h *TaskHandler) Move(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req MoveTaskRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	views, err := h.boardService.Move(r.Context(), actor, board.MoveTaskRequest{
		TaskID:     taskID,
		FromStatus: req.FromStatus,
		ToStatus:   req.ToStatus,
		ToIndex:    req.ToIndex,
	})
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponses(views, nil))
}

// Bulk handles POST /tasks/bulk and returns the refreshed board.
func (h *TaskHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req BulkTaskRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	views, err := h.boardService.Bulk(r.Context(), actor, board.BulkRequest{
		Action:   req.Action,
		TaskIDs:  req.TaskIDs,
		Status:   req.Status,
		Priority: req.Priority,
		DueDate:  req.DueDate,
		Label:    req.Label,
		Focus:    req.Focus,
	})
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponses(views, nil))
}

// UpdateLabels handles PUT /tasks/{id}/labels.
func (h *TaskHandler) UpdateLabels(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req LabelsRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.boardService.UpdateLabels(r.Context(), actor, taskID, req.Labels)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(view))
}

// UpdateFocus handles PUT /tasks/{id}/focus.
func (h *TaskHandler) UpdateFocus(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req FocusRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.boardService.UpdateFocus(r.Context(), actor, taskID, req.Focus)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(view))
}

// UpdateTimeBudget handles PUT /tasks/{id}/time-budget.
func (h *TaskHandler) UpdateTimeBudget(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req TimeBudgetRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.boardService.UpdateTimeBudget(r.Context(), actor, taskID, req.Minutes)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(view))
}

// UpdateRecurrence handles PUT /tasks/{id}/recurrence.
func (h *TaskHandler) UpdateRecurrence(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req RecurrenceRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.boardService.UpdateRecurrence(r.Context(), actor, taskID, board.UpdateRecurrenceRequest{
		Frequency:             req.Frequency,
		Interval:              req.Interval,
		WeekdaysOnly:          req.WeekdaysOnly,
		DaysOfWeek:            req.DaysOfWeek,
		NthBusinessDayOfMonth: req.NthBusinessDayOfMonth,
		EndDate:               req.EndDate,
	})
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(view))
}

// UpdateDependencies handles PUT /tasks/{id}/dependencies.
func (h *TaskHandler) UpdateDependencies(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req DependenciesRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.boardService.UpdateDependencies(r.Context(), actor, taskID, req.BlockedBy)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(view))
}

// UpdateArchived handles PUT /tasks/{id}/archived.
func (h *TaskHandler) UpdateArchived(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req ArchivedRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.boardService.UpdateArchived(r.Context(), actor, taskID, req.Archived)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(view))
}

// AddChecklistItem handles POST /tasks/{id}/checklist.
func (h *TaskHandler) AddChecklistItem(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req ChecklistAddRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.boardService.AddChecklistItem(r.Context(), actor, taskID, req.Text)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, NewTaskResponse(view))
}

// UpdateChecklistItem handles PATCH /tasks/{id}/checklist/{itemID}.
func (h *TaskHandler) UpdateChecklistItem(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	itemID, err := getPathUUID(r, "itemID")
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	var req ChecklistUpdateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.boardService.UpdateChecklistItem(r.Context(), actor, taskID, itemID, board.UpdateChecklistItemRequest{
		Text: req.Text,
		Done: req.Done,
	})
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(view))
}

// ReorderChecklist handles PUT /tasks/{id}/checklist/reorder.
func (h *TaskHandler) ReorderChecklist(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req ChecklistReorderRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.boardService.ReorderChecklist(r.Context(), actor, taskID, req.ItemIDs)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(view))
}

// AddComment handles POST /tasks/{id}/comments.
func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req MessageRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.boardService.AddComment(r.Context(), actor, taskID, req.Message)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, NewTaskResponse(view))
}

// AddDecision handles POST /tasks/{id}/decisions.
func (h *TaskHandler) AddDecision(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req MessageRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	view, err := h.boardService.AddDecision(r.Context(), actor, taskID, req.Message)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, NewTaskResponse(view))
}

// StartTimer handles POST /tasks/{id}/timer/start.
func (h *TaskHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	view, err := h.boardService.StartTimer(r.Context(), actor, taskID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(view))
}

// StopTimer handles POST /tasks/{id}/timer/stop. The body is optional
// and may carry a note for the time log.
func (h *TaskHandler) StopTimer(w http.ResponseWriter, r *http.Request) {
	actor, taskID, ok := requireActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req TimerStopRequest
	if r.ContentLength > 0 {
		if !h.decodeAndValidate(w, r, &req) {
			return
		}
	}

	view, err := h.boardService.StopTimer(r.Context(), actor, taskID, req.Note)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponse(view))
}
