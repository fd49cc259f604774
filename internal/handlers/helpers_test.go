package handlers

import (
	"net/http"
	"testing"

	"github.com/campuswatch/campuswatch/internal/campus"
	"github.com/campuswatch/campuswatch/internal/database"
	"github.com/campuswatch/campuswatch/internal/middleware"
	"github.com/campuswatch/campuswatch/internal/services"
	"github.com/campuswatch/campuswatch/internal/store"
	"github.com/campuswatch/campuswatch/internal/testhelpers"
	"gorm.io/gorm"
)

// testEnv wires the full handler stack over an in-memory database.
type testEnv struct {
	DB      *gorm.DB
	Handler http.Handler
	JWT     *middleware.JWTAuthMiddleware
	Stream  *StreamHandler
	API     *APIHandler
	Users   *services.UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testhelpers.OpenTestDB(t)

	// The settings endpoints read through the package-level connection.
	database.DB = db
	if _, err := database.GetOrCreateAggregationSettings(db); err != nil {
		t.Fatalf("failed to init aggregation settings: %v", err)
	}
	if err := db.Create(&database.SlackSettings{}).Error; err != nil {
		t.Fatalf("failed to init slack settings: %v", err)
	}

	profile := campus.DefaultProfile()
	mirror := store.NewMirror()
	stream := NewStreamHandler(mirror)

	incidentService := services.NewIncidentService(db, profile, stream, nil)
	userService := services.NewUserService(db, profile)

	jwtAuth := middleware.NewJWTAuthMiddleware(&middleware.JWTAuthConfig{
		JWTSecret:      "test-secret",
		JWTExpiryHours: 1,
		SkipPaths:      []string{"/health", "/auth/register", "/auth/login"},
	})

	apiHandler := NewAPIHandler(incidentService, userService, profile)

	mux := http.NewServeMux()
	NewHTTPHandler().SetupRoutes(mux)
	NewAuthHandler(userService, jwtAuth).SetupRoutes(mux)
	apiHandler.SetupRoutes(mux)
	stream.SetupRoutes(mux)

	return &testEnv{
		DB:      db,
		Handler: jwtAuth.Wrap(mux),
		JWT:     jwtAuth,
		Stream:  stream,
		API:     apiHandler,
		Users:   userService,
	}
}

// tokenFor issues a session token for a user record.
func (e *testEnv) tokenFor(t *testing.T, user database.User) string {
	t.Helper()
	token, err := e.JWT.GenerateToken(&user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

// createAccount registers a user through the service with a real password
// hash so login tests exercise the full credential path.
func (e *testEnv) createAccount(t *testing.T, name, email, password string, role campus.Role, status campus.UserStatus) database.User {
	t.Helper()
	hash, err := services.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := testhelpers.NewUserBuilder().
		WithName(name).
		WithEmail(email).
		WithRole(role).
		WithStatus(status).
		WithPasswordHash(hash).
		Create(t, e.DB)
	return user
}
