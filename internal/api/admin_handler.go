package api

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/glideclouds/taskboard-api/internal/api/shared"
	"github.com/glideclouds/taskboard-api/internal/service/board"
	"github.com/glideclouds/taskboard-api/internal/store"
	"github.com/google/uuid"
)

// AdminHandler handles admin-only operations: assigning tasks onto
// user boards and the cross-board overview. Assignees are addressed by
// email, the identifier admins actually know.
type AdminHandler struct {
	boardService *board.Service
	userStore    store.UserStore
	validator    *validator.Validate
}

// NewAdminHandler creates a new AdminHandler with the given dependencies.
func NewAdminHandler(boardService *board.Service, userStore store.UserStore) *AdminHandler {
	return &AdminHandler{
		boardService: boardService,
		userStore:    userStore,
		validator:    validator.New(),
	}
}

// AssignTask handles POST /admin/tasks/assign.
func (h *AdminHandler) AssignTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req AssignTaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	assignee, err := h.userStore.GetByEmail(r.Context(), normalizeEmail(req.AssigneeEmail))
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	view, err := h.boardService.AssignTask(r.Context(), actor, assignee.ID, board.AssignTaskRequest{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	resp := NewTaskResponse(view)
	resp.OwnerEmail = assignee.Email
	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}

// AssignTaskToGroup handles POST /admin/tasks/assign-group. Every
// member gets their own task and all tasks share one discussion thread.
func (h *AdminHandler) AssignTaskToGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req AssignGroupRequest
	if err := DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	emails := make(map[uuid.UUID]string, len(req.AssigneeEmails))
	assigneeIDs := make([]uuid.UUID, 0, len(req.AssigneeEmails))
	for _, email := range req.AssigneeEmails {
		assignee, err := h.userStore.GetByEmail(r.Context(), normalizeEmail(email))
		if err != nil {
			HandleServiceError(w, r, err)
			return
		}
		if _, dup := emails[assignee.ID]; dup {
			continue
		}
		emails[assignee.ID] = assignee.Email
		assigneeIDs = append(assigneeIDs, assignee.ID)
	}

	views, err := h.boardService.AssignTaskToGroup(r.Context(), actor, assigneeIDs, board.AssignTaskRequest{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, NewTaskResponses(views, emails))
}

// ListAllTasks handles GET /admin/tasks: every task on every board,
// enriched with the owner's email.
func (h *AdminHandler) ListAllTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	views, err := h.boardService.ListAll(r.Context(), actor)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	emails, err := h.ownerEmails(r, views)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewTaskResponses(views, emails))
}

func (h *AdminHandler) ownerEmails(r *http.Request, views []*board.TaskView) (map[uuid.UUID]string, error) {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, v := range views {
		if !seen[v.Task.OwnerUserID] {
			seen[v.Task.OwnerUserID] = true
			ids = append(ids, v.Task.OwnerUserID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	users, err := h.userStore.GetAllByIDs(r.Context(), ids)
	if err != nil {
		return nil, err
	}

	emails := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		emails[u.ID] = u.Email
	}
	return emails, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
