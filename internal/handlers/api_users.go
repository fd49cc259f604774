package handlers

import (
	"net/http"
	"strconv"

	"github.com/campuswatch/campuswatch/internal/api"
	"github.com/campuswatch/campuswatch/internal/campus"
	"github.com/campuswatch/campuswatch/internal/services"
)

// handleListUsers handles GET /api/users. Authority only; supports role and
// status filters for the approval queue.
func (h *APIHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAuthority(w, r); !ok {
		return
	}

	filter := services.UserFilter{
		Role:   campus.Role(r.URL.Query().Get("role")),
		Status: campus.UserStatus(r.URL.Query().Get("status")),
	}
	if filter.Role != "" && !campus.ValidRole(filter.Role) {
		api.RespondErrorWithCode(w, http.StatusUnprocessableEntity, api.CodeValidation, "Unknown role filter")
		return
	}
	if filter.Status != "" && !campus.ValidUserStatus(filter.Status) {
		api.RespondErrorWithCode(w, http.StatusUnprocessableEntity, api.CodeValidation, "Unknown status filter")
		return
	}

	users, err := h.userService.ListUsers(r.Context(), filter)
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, api.UsersToResponses(users))
}

// handleUpdateUserStatus handles PUT /api/users/{id}/status. Covers both
// approving pending registrations and banning accounts.
func (h *APIHandler) handleUpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAuthority(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		api.RespondErrorWithCode(w, http.StatusUnprocessableEntity, api.CodeValidation, "Invalid user id")
		return
	}

	var req api.UpdateUserStatusRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondErrorWithCode(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	user, err := h.userService.SetStatus(r.Context(), uint(id), campus.UserStatus(req.Status), actor)
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, api.UserToResponse(*user))
}

// handleDeleteUser handles DELETE /api/users/{id}
func (h *APIHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAuthority(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		api.RespondErrorWithCode(w, http.StatusUnprocessableEntity, api.CodeValidation, "Invalid user id")
		return
	}

	if err := h.userService.Delete(r.Context(), uint(id), actor); err != nil {
		api.RespondServiceError(w, err)
		return
	}

	api.RespondNoContent(w)
}
