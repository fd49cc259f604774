package handlers

import (
	"log"
	"net/http"

	"github.com/campuswatch/campuswatch/internal/api"
	"github.com/campuswatch/campuswatch/internal/campus"
	"github.com/campuswatch/campuswatch/internal/middleware"
	"github.com/campuswatch/campuswatch/internal/services"
)

// AuthHandler handles registration, login and session verification.
type AuthHandler struct {
	userService *services.UserService
	jwtAuth     *middleware.JWTAuthMiddleware
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(userService *services.UserService, jwtAuth *middleware.JWTAuthMiddleware) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		jwtAuth:     jwtAuth,
	}
}

// SetupRoutes sets up authentication routes
func (h *AuthHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("GET /auth/session", h.handleSession)
}

// handleRegister handles POST /auth/register. New accounts start as pending
// students and cannot sign in until approved.
func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondErrorWithCode(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	user, err := h.userService.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusCreated, api.UserToResponse(*user))
}

// handleLogin handles POST /auth/login
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondErrorWithCode(w, http.StatusBadRequest, api.CodeValidation, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password, req.RoleHint)
	if err != nil {
		log.Printf("AuthHandler: failed login for %s from %s: %v", req.Email, r.RemoteAddr, err)
		api.RespondServiceError(w, err)
		return
	}

	token, err := h.jwtAuth.GenerateToken(user)
	if err != nil {
		log.Printf("AuthHandler: failed to generate token for %s: %v", user.Email, err)
		api.RespondErrorWithCode(w, http.StatusInternalServerError, api.CodeInternal, "Failed to generate token")
		return
	}

	log.Printf("AuthHandler: %s logged in from %s", user.Email, r.RemoteAddr)
	api.RespondJSON(w, http.StatusOK, api.LoginResponse{
		Token: token,
		User:  api.UserToResponse(*user),
	})
}

// handleSession handles GET /auth/session. The account is re-read so a ban
// or deletion after login invalidates the session immediately.
func (h *AuthHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	claims := middleware.SessionFromContext(r.Context())
	if claims == nil {
		api.RespondErrorWithCode(w, http.StatusUnauthorized, api.CodeAuth, "Not authenticated")
		return
	}

	user, err := h.userService.GetByID(r.Context(), claims.UserID)
	if err != nil {
		api.RespondErrorWithCode(w, http.StatusUnauthorized, api.CodeAuth, "Session is no longer valid")
		return
	}
	switch user.Status {
	case campus.UserStatusBanned:
		api.RespondErrorWithCode(w, http.StatusForbidden, api.CodeAccountBanned, "Account is banned")
		return
	case campus.UserStatusPending:
		api.RespondErrorWithCode(w, http.StatusForbidden, api.CodeAccountPending, "Account is awaiting approval")
		return
	}

	api.RespondJSON(w, http.StatusOK, api.UserToResponse(*user))
}
