package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/campuswatch/campuswatch/internal/campus"
	"github.com/campuswatch/campuswatch/internal/database"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService owns user accounts: registration, credential checks with the
// role gate, and the admin-side approve/ban workflow.
type UserService struct {
	db      *gorm.DB
	profile *campus.Profile
}

func NewUserService(db *gorm.DB, profile *campus.Profile) *UserService {
	return &UserService{db: db, profile: profile}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// RegisterInput holds the fields of a self-service signup.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Register creates a new student account in pending state. The account
// cannot authenticate until an authority user approves it.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*database.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}
	if len(input.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&database.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", classifyStoreError(err))
	}
	if count > 0 {
		return nil, fmt.Errorf("account with email %s already exists: %w", email, ErrConflict)
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := database.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(input.Phone),
		Role:         campus.RoleStudent,
		Status:       campus.UserStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", classifyStoreError(err))
	}

	log.Printf("UserService: registered %s (pending approval)", user.Email)
	return &user, nil
}

// Authenticate checks credentials and account standing. roleHint, when
// non-empty, is the portal the user is signing into: "admin" requires any
// authority role, a specific role requires that role or authority standing.
func (s *UserService) Authenticate(ctx context.Context, email, password, roleHint string) (*database.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user database.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no account for %s: %w", email, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to load account: %w", classifyStoreError(err))
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("wrong password for %s: %w", email, ErrInvalidCredentials)
	}

	switch user.Status {
	case campus.UserStatusPending:
		return nil, fmt.Errorf("account %s awaiting approval: %w", email, ErrAccountPending)
	case campus.UserStatusBanned:
		return nil, fmt.Errorf("account %s is banned: %w", email, ErrAccountBanned)
	}

	if roleHint != "" && !s.roleSatisfiesHint(user.Role, roleHint) {
		log.Printf("UserService: denied %s login for %s (role %s)", roleHint, email, user.Role)
		return nil, fmt.Errorf("role %s cannot sign in as %s: %w", user.Role, roleHint, ErrPermission)
	}

	return &user, nil
}

// roleSatisfiesHint applies the portal gate. Any authority role satisfies
// the "admin" hint and any specific authority-role hint.
func (s *UserService) roleSatisfiesHint(role campus.Role, hint string) bool {
	if hint == "admin" {
		return s.profile.IsAuthority(role)
	}
	return string(role) == hint || s.profile.IsAuthority(role)
}

// GetByID returns a user record, ErrNotFound if it no longer exists. Used
// to re-verify session holders against current account standing.
func (s *UserService) GetByID(ctx context.Context, id uint) (*database.User, error) {
	var user database.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("user %d: %w", id, classifyStoreError(err))
	}
	return &user, nil
}

// UserFilter narrows a ListUsers query.
type UserFilter struct {
	Role   campus.Role
	Status campus.UserStatus
}

// ListUsers returns accounts, optionally filtered by role or standing,
// newest first.
func (s *UserService) ListUsers(ctx context.Context, filter UserFilter) ([]database.User, error) {
	query := s.db.WithContext(ctx).Model(&database.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var users []database.User
	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", classifyStoreError(err))
	}
	return users, nil
}

// SetStatus moves an account between pending, approved and banned.
func (s *UserService) SetStatus(ctx context.Context, id uint, status campus.UserStatus, actor Actor) (*database.User, error) {
	if !s.profile.IsAuthority(actor.Role) {
		return nil, fmt.Errorf("role %s may not manage accounts: %w", actor.Role, ErrPermission)
	}
	if !campus.ValidUserStatus(status) {
		return nil, fmt.Errorf("%w: unknown account status %q", ErrValidation, status)
	}

	var user database.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("user %d: %w", id, classifyStoreError(err))
	}
	if err := s.db.WithContext(ctx).Model(&user).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update account status: %w", classifyStoreError(err))
	}
	user.Status = status

	log.Printf("UserService: %s set account %s to %s", actor.Name, user.Email, status)
	return &user, nil
}

// Delete removes an account. Actors cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, id uint, actor Actor) error {
	if !s.profile.IsAuthority(actor.Role) {
		return fmt.Errorf("role %s may not manage accounts: %w", actor.Role, ErrPermission)
	}
	if actor.ID == id {
		return fmt.Errorf("%w: cannot delete your own account", ErrValidation)
	}

	result := s.db.WithContext(ctx).Delete(&database.User{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, classifyStoreError(result.Error))
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}

	log.Printf("UserService: %s deleted account %d", actor.Name, id)
	return nil
}
