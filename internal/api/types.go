package api

import (
	"time"

	"github.com/campuswatch/campuswatch/internal/campus"
	"github.com/campuswatch/campuswatch/internal/database"
	"github.com/campuswatch/campuswatch/internal/services"
)

// ========== Auth Types ==========

// RegisterRequest is the request body for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

// LoginRequest is the request body for POST /auth/login. RoleHint names the
// portal being signed into ("admin" or a specific role); empty means no gate.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	RoleHint string `json:"role_hint" validate:"omitempty,max=32"`
}

// LoginResponse is the response body for POST /auth/login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ========== User Types ==========

// UserResponse is the public view of a user account. The password hash
// never leaves the service.
type UserResponse struct {
	ID        uint              `json:"id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Role      campus.Role       `json:"role"`
	Status    campus.UserStatus `json:"status"`
	Phone     string            `json:"phone,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// UpdateUserStatusRequest is the request body for PUT /api/users/{id}/status.
type UpdateUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved banned"`
}

// ========== Incident Types ==========

// CreateIncidentRequest is the request body for POST /api/incidents.
type CreateIncidentRequest struct {
	Location    string `json:"location" validate:"required,max=128"`
	Type        string `json:"type" validate:"required,max=64"`
	Description string `json:"description" validate:"required,min=1,max=2000"`
	VideoURL    string `json:"video_url" validate:"omitempty,url,max=512"`
}

// UpdateIncidentStatusRequest is the request body for
// PUT /api/incidents/{uuid}/status.
type UpdateIncidentStatusRequest struct {
	Status string `json:"status" validate:"required,max=32"`
}

// IncidentResponse is the wire representation of an incident.
type IncidentResponse struct {
	ID             uint          `json:"id"`
	UUID           string        `json:"uuid"`
	Location       string        `json:"location"`
	Type           string        `json:"type"`
	Description    string        `json:"description"`
	VideoURL       string        `json:"video_url,omitempty"`
	ReportedBy     string        `json:"reported_by"`
	Status         campus.Status `json:"status"`
	Priority       int           `json:"priority"`
	DuplicateCount int           `json:"duplicate_count"`
	ReportedAt     time.Time     `json:"reported_at"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// LocationStatsResponse is the response body for GET /api/stats/locations.
type LocationStatsResponse struct {
	Stats []services.LocationStat `json:"stats"`
	Total int                     `json:"total"`
}

// ========== Settings Types ==========

// UpdateSlackSettingsRequest is the request body for PUT /api/settings/slack.
// Pointer fields distinguish "leave unchanged" from an explicit empty value.
type UpdateSlackSettingsRequest struct {
	BotToken *string `json:"bot_token"`
	Channel  *string `json:"channel"`
	Enabled  *bool   `json:"enabled"`
}

// UpdateAggregationSettingsRequest is the request body for
// PUT /api/settings/aggregation.
type UpdateAggregationSettingsRequest struct {
	DedupEnabled            *bool    `json:"dedup_enabled"`
	TimeWindowMinutes       *int     `json:"time_window_minutes" validate:"omitempty,min=1,max=1440"`
	SimilarityThreshold     *float64 `json:"similarity_threshold" validate:"omitempty,min=0,max=1"`
	SeverityPolicy          *string  `json:"severity_policy" validate:"omitempty,oneof=relative absolute"`
	NotifyPriorityThreshold *int     `json:"notify_priority_threshold" validate:"omitempty,min=1"`
	StaleReportMinutes      *int     `json:"stale_report_minutes" validate:"omitempty,min=1"`
}

// ========== Pagination Types ==========

// PaginationMeta contains pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PaginatedResponse wraps a list response with pagination metadata.
type PaginatedResponse struct {
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// ========== Mappers ==========

// UserToResponse converts a user record to its public representation.
func UserToResponse(u database.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}

// UsersToResponses converts a slice of user records.
func UsersToResponses(users []database.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = UserToResponse(u)
	}
	return out
}

// IncidentToResponse converts an incident record to its wire form.
func IncidentToResponse(i database.Incident) IncidentResponse {
	return IncidentResponse{
		ID:             i.ID,
		UUID:           i.UUID,
		Location:       i.Location,
		Type:           i.Type,
		Description:    i.Description,
		VideoURL:       i.VideoURL,
		ReportedBy:     i.ReportedBy,
		Status:         i.Status,
		Priority:       i.Priority,
		DuplicateCount: i.DuplicateCount,
		ReportedAt:     i.ReportedAt,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
	}
}

// IncidentsToResponses converts a slice of incident records.
func IncidentsToResponses(incidents []database.Incident) []IncidentResponse {
	out := make([]IncidentResponse, len(incidents))
	for i, inc := range incidents {
		out[i] = IncidentToResponse(inc)
	}
	return out
}
