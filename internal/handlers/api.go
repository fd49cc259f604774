package handlers

import (
	"net/http"

	"github.com/campuswatch/campuswatch/internal/api"
	"github.com/campuswatch/campuswatch/internal/campus"
	"github.com/campuswatch/campuswatch/internal/middleware"
	"github.com/campuswatch/campuswatch/internal/services"
)

// APIHandler handles the authenticated API endpoints.
type APIHandler struct {
	incidentService *services.IncidentService
	userService     *services.UserService
	profile         *campus.Profile

	// settingsReloader is called after the Slack settings change so the
	// notifier picks up the new token without a restart.
	settingsReloader func()
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(incidentService *services.IncidentService, userService *services.UserService, profile *campus.Profile) *APIHandler {
	return &APIHandler{
		incidentService: incidentService,
		userService:     userService,
		profile:         profile,
	}
}

// SetSettingsReloader sets the callback invoked after notification settings
// change.
func (h *APIHandler) SetSettingsReloader(fn func()) {
	h.settingsReloader = fn
}

func (h *APIHandler) reloadSettings() {
	if h.settingsReloader != nil {
		go h.settingsReloader()
	}
}

// SetupRoutes sets up all API routes
func (h *APIHandler) SetupRoutes(mux *http.ServeMux) {
	// Incidents
	mux.HandleFunc("GET /api/incidents", h.handleListIncidents)
	mux.HandleFunc("POST /api/incidents", h.handleCreateIncident)
	mux.HandleFunc("GET /api/incidents/{uuid}", h.handleIncidentByUUID)
	mux.HandleFunc("PUT /api/incidents/{uuid}/status", h.handleUpdateIncidentStatus)

	// Location rollups
	mux.HandleFunc("GET /api/stats/locations", h.handleLocationStats)

	// Campus vocabulary for report forms
	mux.HandleFunc("GET /api/campus/profile", h.handleCampusProfile)

	// User management (authority only)
	mux.HandleFunc("GET /api/users", h.handleListUsers)
	mux.HandleFunc("PUT /api/users/{id}/status", h.handleUpdateUserStatus)
	mux.HandleFunc("DELETE /api/users/{id}", h.handleDeleteUser)

	// Settings (authority only)
	mux.HandleFunc("GET /api/settings/slack", h.handleGetSlackSettings)
	mux.HandleFunc("PUT /api/settings/slack", h.handleUpdateSlackSettings)
	mux.HandleFunc("GET /api/settings/aggregation", h.handleGetAggregationSettings)
	mux.HandleFunc("PUT /api/settings/aggregation", h.handleUpdateAggregationSettings)
}

// actorFromRequest resolves the session claims into a service actor.
func actorFromRequest(r *http.Request) (services.Actor, bool) {
	claims := middleware.SessionFromContext(r.Context())
	if claims == nil {
		return services.Actor{}, false
	}
	return services.Actor{
		ID:   claims.UserID,
		Name: claims.Name,
		Role: claims.Role,
	}, true
}

// requireAuthority resolves the actor and rejects non-authority roles.
// Returns false after writing the error response.
func (h *APIHandler) requireAuthority(w http.ResponseWriter, r *http.Request) (services.Actor, bool) {
	actor, ok := actorFromRequest(r)
	if !ok {
		api.RespondErrorWithCode(w, http.StatusUnauthorized, api.CodeAuth, "Not authenticated")
		return services.Actor{}, false
	}
	if !h.profile.IsAuthority(actor.Role) {
		api.RespondErrorWithCode(w, http.StatusForbidden, api.CodePermissionDenied, "Authority role required")
		return services.Actor{}, false
	}
	return actor, true
}

// handleCampusProfile handles GET /api/campus/profile. Clients build their
// report forms from this instead of hardcoding the enums.
func (h *APIHandler) handleCampusProfile(w http.ResponseWriter, r *http.Request) {
	api.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"locations":      h.profile.Locations,
		"incident_types": h.profile.IncidentTypes,
		"statuses":       campus.ValidStatuses,
	})
}
