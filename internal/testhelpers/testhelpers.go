// Package testhelpers provides reusable testing utilities.
//
// This package contains:
// - HTTP test helpers (creating test requests, fluent assertions)
// - An in-memory database opener
// - Sample data builders for users and incidents
package testhelpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campuswatch/campuswatch/internal/campus"
	"github.com/campuswatch/campuswatch/internal/database"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ========================================
// Database Helpers
// ========================================

// OpenTestDB opens an in-memory sqlite database with the full schema.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&database.User{},
		&database.Incident{},
		&database.SlackSettings{},
		&database.AggregationSettings{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// ========================================
// HTTP Test Helpers
// ========================================

// HTTPTestContext holds components for HTTP handler testing
type HTTPTestContext struct {
	T        *testing.T
	Recorder *httptest.ResponseRecorder
	Request  *http.Request
}

// NewHTTPTestContext creates a new HTTP test context
func NewHTTPTestContext(t *testing.T, method, path string, body io.Reader) *HTTPTestContext {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	return &HTTPTestContext{
		T:        t,
		Recorder: httptest.NewRecorder(),
		Request:  req,
	}
}

// WithHeader adds a header to the request
func (ctx *HTTPTestContext) WithHeader(key, value string) *HTTPTestContext {
	ctx.Request.Header.Set(key, value)
	return ctx
}

// WithJSONBody sets JSON body on the request
func (ctx *HTTPTestContext) WithJSONBody(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		ctx.T.Fatalf("failed to marshal JSON body: %v", err)
	}
	ctx.Request = httptest.NewRequest(ctx.Request.Method, ctx.Request.URL.String(), bytes.NewReader(body))
	ctx.Request.Header.Set("Content-Type", "application/json")
	return ctx
}

// WithBearerToken adds Authorization Bearer header
func (ctx *HTTPTestContext) WithBearerToken(token string) *HTTPTestContext {
	return ctx.WithHeader("Authorization", "Bearer "+token)
}

// Execute runs the handler and returns the response
func (ctx *HTTPTestContext) Execute(handler http.Handler) *HTTPTestContext {
	handler.ServeHTTP(ctx.Recorder, ctx.Request)
	return ctx
}

// AssertStatus checks the response status code
func (ctx *HTTPTestContext) AssertStatus(expected int) *HTTPTestContext {
	ctx.T.Helper()
	if ctx.Recorder.Code != expected {
		ctx.T.Errorf("expected status %d, got %d. Body: %s", expected, ctx.Recorder.Code, ctx.Recorder.Body.String())
	}
	return ctx
}

// AssertBodyContains checks if response body contains substring
func (ctx *HTTPTestContext) AssertBodyContains(substr string) *HTTPTestContext {
	ctx.T.Helper()
	body := ctx.Recorder.Body.String()
	if !strings.Contains(body, substr) {
		ctx.T.Errorf("expected body to contain %q, got: %s", substr, body)
	}
	return ctx
}

// DecodeJSON decodes response body as JSON
func (ctx *HTTPTestContext) DecodeJSON(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	if err := json.NewDecoder(ctx.Recorder.Body).Decode(v); err != nil {
		ctx.T.Fatalf("failed to decode JSON response: %v", err)
	}
	return ctx
}

// ========================================
// Sample Data Builders
// ========================================

// UserBuilder builds User records for testing
type UserBuilder struct {
	user database.User
}

// NewUserBuilder creates a user builder with approved-student defaults.
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		user: database.User{
			Name:         "Test User",
			Email:        uuid.NewString() + "@example.com",
			PasswordHash: "$2a$10$invalidhashfortestingonly",
			Role:         campus.RoleStudent,
			Status:       campus.UserStatusApproved,
		},
	}
}

// WithName sets the name
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.user.Name = name
	return b
}

// WithEmail sets the email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

// WithRole sets the role
func (b *UserBuilder) WithRole(role campus.Role) *UserBuilder {
	b.user.Role = role
	return b
}

// WithStatus sets the account status
func (b *UserBuilder) WithStatus(status campus.UserStatus) *UserBuilder {
	b.user.Status = status
	return b
}

// WithPasswordHash sets the stored password hash
func (b *UserBuilder) WithPasswordHash(hash string) *UserBuilder {
	b.user.PasswordHash = hash
	return b
}

// Build returns the constructed user
func (b *UserBuilder) Build() database.User {
	return b.user
}

// Create persists the user and returns it.
func (b *UserBuilder) Create(t *testing.T, db *gorm.DB) database.User {
	t.Helper()
	user := b.Build()
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// IncidentBuilder builds Incident records for testing
type IncidentBuilder struct {
	incident database.Incident
}

// NewIncidentBuilder creates an incident builder with defaults.
func NewIncidentBuilder() *IncidentBuilder {
	return &IncidentBuilder{
		incident: database.Incident{
			Location:    "Gate A",
			Type:        "other",
			Description: "test incident",
			ReportedBy:  "Test User",
			Status:      campus.StatusReported,
			ReportedAt:  time.Now(),
		},
	}
}

// WithLocation sets the location
func (b *IncidentBuilder) WithLocation(location string) *IncidentBuilder {
	b.incident.Location = location
	return b
}

// WithType sets the incident type
func (b *IncidentBuilder) WithType(t string) *IncidentBuilder {
	b.incident.Type = t
	return b
}

// WithDescription sets the description
func (b *IncidentBuilder) WithDescription(description string) *IncidentBuilder {
	b.incident.Description = description
	return b
}

// WithStatus sets the status
func (b *IncidentBuilder) WithStatus(status campus.Status) *IncidentBuilder {
	b.incident.Status = status
	return b
}

// WithReportedAt sets the report timestamp
func (b *IncidentBuilder) WithReportedAt(at time.Time) *IncidentBuilder {
	b.incident.ReportedAt = at
	return b
}

// WithCounters sets priority and duplicate count
func (b *IncidentBuilder) WithCounters(priority, duplicates int) *IncidentBuilder {
	b.incident.Priority = priority
	b.incident.DuplicateCount = duplicates
	return b
}

// Build returns the constructed incident
func (b *IncidentBuilder) Build() database.Incident {
	return b.incident
}

// Create persists the incident and returns it.
func (b *IncidentBuilder) Create(t *testing.T, db *gorm.DB) database.Incident {
	t.Helper()
	incident := b.Build()
	if err := db.Create(&incident).Error; err != nil {
		t.Fatalf("failed to create test incident: %v", err)
	}
	return incident
}

// ========================================
// Timing Helpers
// ========================================

// MustCompleteWithin fails the test if the function takes longer than the timeout
func MustCompleteWithin(t *testing.T, timeout time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(timeout):
		t.Fatalf("function did not complete within %v", timeout)
	}
}
