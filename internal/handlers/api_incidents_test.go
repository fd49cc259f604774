package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/campuswatch/campuswatch/internal/api"
	"github.com/campuswatch/campuswatch/internal/campus"
	"github.com/campuswatch/campuswatch/internal/database"
	"github.com/campuswatch/campuswatch/internal/testhelpers"
)

func TestCreateIncident(t *testing.T) {
	env := newTestEnv(t)
	student := env.createAccount(t, "Ravi Kumar", "ravi@campus.edu", "sekrit99", campus.RoleStudent, campus.UserStatusApproved)
	token := env.tokenFor(t, student)

	var resp api.IncidentResponse
	testhelpers.NewHTTPTestContext(t, http.MethodPost, "/api/incidents", nil).
		WithJSONBody(api.CreateIncidentRequest{
			Location:    "Canteen",
			Type:        "fight",
			Description: "Two groups  shouting \tnear the counter",
		}).
		WithBearerToken(token).
		Execute(env.Handler).
		AssertStatus(http.StatusCreated).
		DecodeJSON(&resp)

	if resp.UUID == "" {
		t.Error("expected a public id on the created incident")
	}
	if resp.Status != campus.StatusReported {
		t.Errorf("expected status reported, got %s", resp.Status)
	}
	if resp.Priority != 1 || resp.DuplicateCount != 1 {
		t.Errorf("expected fresh counters 1/1, got %d/%d", resp.Priority, resp.DuplicateCount)
	}
	if resp.ReportedBy != "Ravi Kumar" {
		t.Errorf("expected reporter from the session, got %q", resp.ReportedBy)
	}
	if resp.Description != "Two groups shouting near the counter" {
		t.Errorf("expected sanitized description, got %q", resp.Description)
	}
}

func TestCreateIncident_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	testhelpers.NewHTTPTestContext(t, http.MethodPost, "/api/incidents", nil).
		WithJSONBody(api.CreateIncidentRequest{
			Location:    "Canteen",
			Type:        "fight",
			Description: "something",
		}).
		Execute(env.Handler).
		AssertStatus(http.StatusUnauthorized).
		AssertBodyContains(api.CodeAuth)
}

func TestCreateIncident_UnknownLocation(t *testing.T) {
	env := newTestEnv(t)
	student := env.createAccount(t, "Ravi Kumar", "ravi@campus.edu", "sekrit99", campus.RoleStudent, campus.UserStatusApproved)
	token := env.tokenFor(t, student)

	testhelpers.NewHTTPTestContext(t, http.MethodPost, "/api/incidents", nil).
		WithJSONBody(api.CreateIncidentRequest{
			Location:    "The Moon",
			Type:        "fight",
			Description: "something",
		}).
		WithBearerToken(token).
		Execute(env.Handler).
		AssertStatus(http.StatusUnprocessableEntity).
		AssertBodyContains(api.CodeValidation)
}

func TestCreateIncident_CorroborationBumpsPriority(t *testing.T) {
	env := newTestEnv(t)
	student := env.createAccount(t, "Ravi Kumar", "ravi@campus.edu", "sekrit99", campus.RoleStudent, campus.UserStatusApproved)
	token := env.tokenFor(t, student)

	post := func(desc string) api.IncidentResponse {
		var resp api.IncidentResponse
		testhelpers.NewHTTPTestContext(t, http.MethodPost, "/api/incidents", nil).
			WithJSONBody(api.CreateIncidentRequest{
				Location:    "Boys Hostel",
				Type:        "fire",
				Description: desc,
			}).
			WithBearerToken(token).
			Execute(env.Handler).
			AssertStatus(http.StatusCreated).
			DecodeJSON(&resp)
		return resp
	}

	first := post("smoke coming from the kitchen window")
	second := post("heavy smoke from the kitchen window now")

	if second.Priority != 2 || second.DuplicateCount != 2 {
		t.Errorf("expected corroborated report at 2/2, got %d/%d", second.Priority, second.DuplicateCount)
	}

	var stored database.Incident
	if err := env.DB.Where("uuid = ?", first.UUID).First(&stored).Error; err != nil {
		t.Fatalf("failed to reload first report: %v", err)
	}
	if stored.Priority != 2 || stored.DuplicateCount != 2 {
		t.Errorf("expected first report bumped to 2/2, got %d/%d", stored.Priority, stored.DuplicateCount)
	}
}

func TestListIncidents(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.createAccount(t, "Viewer", "viewer@campus.edu", "sekrit99", campus.RoleStudent, campus.UserStatusApproved)
	token := env.tokenFor(t, viewer)

	now := time.Now()
	testhelpers.NewIncidentBuilder().WithLocation("Gate A").WithReportedAt(now.Add(-2 * time.Hour)).Create(t, env.DB)
	testhelpers.NewIncidentBuilder().WithLocation("Canteen").WithReportedAt(now.Add(-time.Hour)).Create(t, env.DB)
	testhelpers.NewIncidentBuilder().
		WithLocation("Gate A").
		WithStatus(campus.StatusResolved).
		WithReportedAt(now).
		Create(t, env.DB)

	var resp struct {
		Data       []api.IncidentResponse `json:"data"`
		Pagination api.PaginationMeta     `json:"pagination"`
	}
	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/api/incidents", nil).
		WithBearerToken(token).
		Execute(env.Handler).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)
	if resp.Pagination.Total != 3 || len(resp.Data) != 3 {
		t.Fatalf("expected 3 incidents, got %d (total %d)", len(resp.Data), resp.Pagination.Total)
	}
	// Newest report first.
	if !resp.Data[0].ReportedAt.After(resp.Data[1].ReportedAt) {
		t.Error("expected newest-first ordering")
	}

	resp.Data = nil
	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/api/incidents?location=Gate+A&exclude_resolved=true", nil).
		WithBearerToken(token).
		Execute(env.Handler).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)
	if len(resp.Data) != 1 || resp.Data[0].Location != "Gate A" {
		t.Fatalf("expected the one open Gate A incident, got %d", len(resp.Data))
	}

	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/api/incidents?status=under_review", nil).
		WithBearerToken(token).
		Execute(env.Handler).
		AssertStatus(http.StatusUnprocessableEntity).
		AssertBodyContains(api.CodeValidation)
}

func TestGetIncidentByUUID(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.createAccount(t, "Viewer", "viewer@campus.edu", "sekrit99", campus.RoleStudent, campus.UserStatusApproved)
	token := env.tokenFor(t, viewer)
	incident := testhelpers.NewIncidentBuilder().WithLocation("Parking").Create(t, env.DB)

	var resp api.IncidentResponse
	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/api/incidents/"+incident.UUID, nil).
		WithBearerToken(token).
		Execute(env.Handler).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)
	if resp.UUID != incident.UUID {
		t.Errorf("expected incident %s, got %s", incident.UUID, resp.UUID)
	}

	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/api/incidents/not-a-uuid", nil).
		WithBearerToken(token).
		Execute(env.Handler).
		AssertStatus(http.StatusUnprocessableEntity).
		AssertBodyContains(api.CodeValidation)

	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/api/incidents/00000000-0000-0000-0000-000000000000", nil).
		WithBearerToken(token).
		Execute(env.Handler).
		AssertStatus(http.StatusNotFound).
		AssertBodyContains(api.CodeNotFound)
}

func TestUpdateIncidentStatus(t *testing.T) {
	env := newTestEnv(t)
	student := env.createAccount(t, "Ravi Kumar", "ravi@campus.edu", "sekrit99", campus.RoleStudent, campus.UserStatusApproved)
	head := env.createAccount(t, "Head", "head@campus.edu", "sekrit99", campus.RoleSecurityHead, campus.UserStatusApproved)
	incident := testhelpers.NewIncidentBuilder().WithLocation("Gate B").Create(t, env.DB)
	path := fmt.Sprintf("/api/incidents/%s/status", incident.UUID)

	// Students cannot transition incidents, and the denial leaves the row
	// untouched.
	testhelpers.NewHTTPTestContext(t, http.MethodPut, path, nil).
		WithJSONBody(api.UpdateIncidentStatusRequest{Status: "investigating"}).
		WithBearerToken(env.tokenFor(t, student)).
		Execute(env.Handler).
		AssertStatus(http.StatusForbidden).
		AssertBodyContains(api.CodePermissionDenied)

	var stored database.Incident
	if err := env.DB.First(&stored, incident.ID).Error; err != nil {
		t.Fatalf("failed to reload incident: %v", err)
	}
	if stored.Status != campus.StatusReported {
		t.Errorf("expected status unchanged after denial, got %s", stored.Status)
	}

	var resp api.IncidentResponse
	testhelpers.NewHTTPTestContext(t, http.MethodPut, path, nil).
		WithJSONBody(api.UpdateIncidentStatusRequest{Status: "resolved"}).
		WithBearerToken(env.tokenFor(t, head)).
		Execute(env.Handler).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)
	if resp.Status != campus.StatusResolved {
		t.Errorf("expected resolved, got %s", resp.Status)
	}

	// Resolved is terminal.
	testhelpers.NewHTTPTestContext(t, http.MethodPut, path, nil).
		WithJSONBody(api.UpdateIncidentStatusRequest{Status: "investigating"}).
		WithBearerToken(env.tokenFor(t, head)).
		Execute(env.Handler).
		AssertStatus(http.StatusUnprocessableEntity).
		AssertBodyContains(api.CodeValidation)
}

func TestLocationStats(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.createAccount(t, "Viewer", "viewer@campus.edu", "sekrit99", campus.RoleStudent, campus.UserStatusApproved)
	token := env.tokenFor(t, viewer)

	testhelpers.NewIncidentBuilder().WithLocation("Canteen").Create(t, env.DB)
	testhelpers.NewIncidentBuilder().WithLocation("Canteen").Create(t, env.DB)
	testhelpers.NewIncidentBuilder().WithLocation("Gate A").WithStatus(campus.StatusResolved).Create(t, env.DB)

	var resp api.LocationStatsResponse
	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/api/stats/locations", nil).
		WithBearerToken(token).
		Execute(env.Handler).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)
	if resp.Total != 3 {
		t.Errorf("expected 3 incidents counted, got %d", resp.Total)
	}
	if len(resp.Stats) == 0 || resp.Stats[0].Location != "Canteen" || resp.Stats[0].Count != 2 {
		t.Fatalf("expected Canteen on top with 2, got %+v", resp.Stats)
	}

	resp = api.LocationStatsResponse{}
	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/api/stats/locations?exclude_resolved=true", nil).
		WithBearerToken(token).
		Execute(env.Handler).
		AssertStatus(http.StatusOK).
		DecodeJSON(&resp)
	if resp.Total != 2 {
		t.Errorf("expected resolved incident excluded, got total %d", resp.Total)
	}
}

func TestCampusProfileEndpoint(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.createAccount(t, "Viewer", "viewer@campus.edu", "sekrit99", campus.RoleStudent, campus.UserStatusApproved)

	testhelpers.NewHTTPTestContext(t, http.MethodGet, "/api/campus/profile", nil).
		WithBearerToken(env.tokenFor(t, viewer)).
		Execute(env.Handler).
		AssertStatus(http.StatusOK).
		AssertBodyContains("Boys Hostel").
		AssertBodyContains("suspicious_activity").
		AssertBodyContains("action_taken")
}
