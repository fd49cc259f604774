package handlers

import (
	"log"
	"net/http"

	"github.com/campuswatch/campuswatch/internal/api"
	"github.com/campuswatch/campuswatch/internal/database"
	"github.com/campuswatch/campuswatch/internal/services"
)

// slackSettingsView is the wire form of the Slack settings with the token
// redacted.
type slackSettingsView struct {
	Channel      string `json:"channel"`
	Enabled      bool   `json:"enabled"`
	IsConfigured bool   `json:"is_configured"`
	HasToken     bool   `json:"has_token"`
}

// handleGetSlackSettings handles GET /api/settings/slack
func (h *APIHandler) handleGetSlackSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAuthority(w, r); !ok {
		return
	}

	settings, err := database.GetSlackSettings()
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, slackSettingsView{
		Channel:      settings.Channel,
		Enabled:      settings.Enabled,
		IsConfigured: settings.IsConfigured(),
		HasToken:     settings.BotToken != "",
	})
}

// handleUpdateSlackSettings handles PUT /api/settings/slack
func (h *APIHandler) handleUpdateSlackSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAuthority(w, r)
	if !ok {
		return
	}

	var req api.UpdateSlackSettingsRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondErrorWithCode(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}

	settings, err := database.GetSlackSettings()
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}

	if req.BotToken != nil {
		settings.BotToken = *req.BotToken
	}
	if req.Channel != nil {
		settings.Channel = *req.Channel
	}
	if req.Enabled != nil {
		settings.Enabled = *req.Enabled
	}

	if err := database.UpdateSlackSettings(settings); err != nil {
		api.RespondServiceError(w, err)
		return
	}

	log.Printf("APIHandler: %s updated Slack settings (enabled=%v)", actor.Name, settings.Enabled)
	h.reloadSettings()

	api.RespondJSON(w, http.StatusOK, slackSettingsView{
		Channel:      settings.Channel,
		Enabled:      settings.Enabled,
		IsConfigured: settings.IsConfigured(),
		HasToken:     settings.BotToken != "",
	})
}

// handleGetAggregationSettings handles GET /api/settings/aggregation
func (h *APIHandler) handleGetAggregationSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAuthority(w, r); !ok {
		return
	}

	settings, err := database.GetOrCreateAggregationSettings(database.GetDB())
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, settings)
}

// handleUpdateAggregationSettings handles PUT /api/settings/aggregation
func (h *APIHandler) handleUpdateAggregationSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireAuthority(w, r)
	if !ok {
		return
	}

	var req api.UpdateAggregationSettingsRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondErrorWithCode(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	db := database.GetDB()
	settings, err := database.GetOrCreateAggregationSettings(db)
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}

	if req.DedupEnabled != nil {
		settings.DedupEnabled = *req.DedupEnabled
	}
	if req.TimeWindowMinutes != nil {
		settings.TimeWindowMinutes = *req.TimeWindowMinutes
	}
	if req.SimilarityThreshold != nil {
		settings.SimilarityThreshold = *req.SimilarityThreshold
	}
	if req.SeverityPolicy != nil {
		if *req.SeverityPolicy != services.SeverityPolicyRelative && *req.SeverityPolicy != services.SeverityPolicyAbsolute {
			api.RespondErrorWithCode(w, http.StatusUnprocessableEntity, api.CodeValidation, "Unknown severity policy")
			return
		}
		settings.SeverityPolicy = *req.SeverityPolicy
	}
	if req.NotifyPriorityThreshold != nil {
		settings.NotifyPriorityThreshold = *req.NotifyPriorityThreshold
	}
	if req.StaleReportMinutes != nil {
		settings.StaleReportMinutes = *req.StaleReportMinutes
	}

	if err := database.UpdateAggregationSettings(db, settings); err != nil {
		api.RespondServiceError(w, err)
		return
	}

	log.Printf("APIHandler: %s updated aggregation settings", actor.Name)
	api.RespondJSON(w, http.StatusOK, settings)
}
