package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/glideclouds/taskboard-api/internal/api/shared"
	"github.com/glideclouds/taskboard-api/internal/domain"
	"github.com/glideclouds/taskboard-api/internal/service/board"
	"github.com/google/uuid"
)

// maxRequestBodyBytes bounds JSON request bodies.
const maxRequestBodyBytes = 1 << 20

// DecodeJSON decodes the request body into dst, limiting the body size
// and rejecting trailing garbage.
func DecodeJSON(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON body")
	}
	return nil
}

// getActorFromContext extracts the authenticated actor placed in the
// context by the auth middleware.
func getActorFromContext(r *http.Request) (board.Actor, bool) {
	actor, ok := r.Context().Value(shared.ActorContextKey).(board.Actor)
	if !ok || actor.UserID == uuid.Nil {
		return board.Actor{}, false
	}
	return actor, true
}

// getPathUUID extracts and parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, paramName)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", domain.ErrInvalidID, paramName)
	}
	return id, nil
}

// requireActorAndPathUUID extracts the actor and a path UUID, writing
// an error response and returning false when either is missing.
func requireActorAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
) (board.Actor, uuid.UUID, bool) {
	actor, ok := getActorFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return board.Actor{}, uuid.Nil, false
	}

	id, err := getPathUUID(r, paramName)
	if err != nil {
		HandleServiceError(w, r, err)
		return board.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}

// requireActor extracts the actor, writing a 401 when missing.
func requireActor(w http.ResponseWriter, r *http.Request) (board.Actor, bool) {
	actor, ok := getActorFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return board.Actor{}, false
	}
	return actor, true
}
