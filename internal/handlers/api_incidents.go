package handlers

import (
	"net/http"

	"github.com/campuswatch/campuswatch/internal/api"
	"github.com/campuswatch/campuswatch/internal/campus"
	"github.com/campuswatch/campuswatch/internal/services"
	"github.com/campuswatch/campuswatch/internal/utils"
)

// handleListIncidents handles GET /api/incidents. Supports location and
// status filters plus pagination.
func (h *APIHandler) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	params := api.ParsePagination(r)
	filter := services.ListFilter{
		Location:        r.URL.Query().Get("location"),
		Status:          campus.Status(r.URL.Query().Get("status")),
		ExcludeResolved: r.URL.Query().Get("exclude_resolved") == "true",
		Offset:          params.Offset(),
		Limit:           params.PerPage,
	}
	if filter.Status != "" && !campus.ValidStatus(filter.Status) {
		api.RespondErrorWithCode(w, http.StatusUnprocessableEntity, api.CodeValidation, "Unknown status filter")
		return
	}

	incidents, total, err := h.incidentService.ListIncidents(r.Context(), filter)
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, api.PaginatedResponse{
		Data: api.IncidentsToResponses(incidents),
		Pagination: api.PaginationMeta{
			Page:       params.Page,
			PerPage:    params.PerPage,
			Total:      total,
			TotalPages: params.TotalPages(total),
		},
	})
}

// handleCreateIncident handles POST /api/incidents.
func (h *APIHandler) handleCreateIncident(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		api.RespondErrorWithCode(w, http.StatusUnauthorized, api.CodeAuth, "Not authenticated")
		return
	}

	var req api.CreateIncidentRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondErrorWithCode(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	sanitized := utils.SanitizeDescription(req.Description)

	incident, err := h.incidentService.CreateIncident(r.Context(), services.CreateIncidentInput{
		Location:    req.Location,
		Type:        req.Type,
		Description: sanitized.Text,
		VideoURL:    req.VideoURL,
		ReportedBy:  actor.Name,
	})
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusCreated, api.IncidentToResponse(*incident))
}

// handleIncidentByUUID handles GET /api/incidents/{uuid}
func (h *APIHandler) handleIncidentByUUID(w http.ResponseWriter, r *http.Request) {
	uuid := r.PathValue("uuid")
	if err := utils.ValidateIncidentUUID(uuid); err != nil {
		api.RespondErrorWithCode(w, http.StatusUnprocessableEntity, api.CodeValidation, err.Error())
		return
	}

	incident, err := h.incidentService.GetByUUID(r.Context(), uuid)
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, api.IncidentToResponse(*incident))
}

// handleUpdateIncidentStatus handles PUT /api/incidents/{uuid}/status
func (h *APIHandler) handleUpdateIncidentStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		api.RespondErrorWithCode(w, http.StatusUnauthorized, api.CodeAuth, "Not authenticated")
		return
	}

	uuid := r.PathValue("uuid")
	if err := utils.ValidateIncidentUUID(uuid); err != nil {
		api.RespondErrorWithCode(w, http.StatusUnprocessableEntity, api.CodeValidation, err.Error())
		return
	}

	var req api.UpdateIncidentStatusRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondErrorWithCode(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	incident, err := h.incidentService.UpdateStatus(r.Context(), uuid, campus.Status(req.Status), actor)
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, api.IncidentToResponse(*incident))
}

// handleLocationStats handles GET /api/stats/locations
func (h *APIHandler) handleLocationStats(w http.ResponseWriter, r *http.Request) {
	excludeResolved := r.URL.Query().Get("exclude_resolved") == "true"

	stats, err := h.incidentService.LocationStats(r.Context(), excludeResolved)
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}

	total := 0
	for _, s := range stats {
		total += s.Count
	}
	api.RespondJSON(w, http.StatusOK, api.LocationStatsResponse{
		Stats: stats,
		Total: total,
	})
}
