package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/campuswatch/campuswatch/internal/api"
	"github.com/campuswatch/campuswatch/internal/campus"
	"github.com/campuswatch/campuswatch/internal/database"
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims are the JWT claims carried by a session token.
type UserClaims struct {
	UserID uint        `json:"user_id"`
	Name   string      `json:"name"`
	Role   campus.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuthConfig holds session token configuration.
type JWTAuthConfig struct {
	// JWTSecret is the secret key for signing tokens.
	JWTSecret string

	// JWTExpiryHours is the token expiry in hours.
	JWTExpiryHours int

	// SkipPaths are paths that don't require authentication. A trailing *
	// matches by prefix.
	SkipPaths []string
}

// JWTAuthMiddleware authenticates requests with bearer tokens and puts the
// resolved session identity on the request context.
type JWTAuthMiddleware struct {
	config  *JWTAuthConfig
	skipMap map[string]bool
}

type contextKey string

const sessionContextKey contextKey = "session"

// NewJWTAuthMiddleware creates a new JWT authentication middleware.
func NewJWTAuthMiddleware(config *JWTAuthConfig) *JWTAuthMiddleware {
	m := &JWTAuthMiddleware{
		config:  config,
		skipMap: make(map[string]bool),
	}
	for _, path := range config.SkipPaths {
		m.skipMap[path] = true
	}
	return m
}

// GenerateToken issues a session token for an authenticated user.
func (m *JWTAuthMiddleware) GenerateToken(user *database.User) (string, error) {
	claims := UserClaims{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(m.config.JWTExpiryHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "campuswatch",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.JWTSecret))
}

// ValidateToken validates a session token and returns its claims.
func (m *JWTAuthMiddleware) ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(m.config.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// Wrap wraps an http.Handler with session authentication.
func (m *JWTAuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		tokenString := m.extractToken(r)
		if tokenString == "" {
			m.unauthorized(w, "Missing authentication token")
			return
		}

		claims, err := m.ValidateToken(tokenString)
		if err != nil {
			log.Printf("JWTAuthMiddleware: invalid token from %s: %v", r.RemoteAddr, err)
			m.unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// shouldSkipAuth checks if the path should skip authentication.
func (m *JWTAuthMiddleware) shouldSkipAuth(path string) bool {
	if m.skipMap[path] {
		return true
	}
	for skipPath := range m.skipMap {
		if strings.HasSuffix(skipPath, "*") {
			if strings.HasPrefix(path, strings.TrimSuffix(skipPath, "*")) {
				return true
			}
		}
	}
	return false
}

// extractToken extracts the bearer token from the request. Websocket
// clients cannot set headers, so the token query parameter is accepted too.
func (m *JWTAuthMiddleware) extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return ""
}

func (m *JWTAuthMiddleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer realm=\"API\"")
	api.RespondErrorWithCode(w, http.StatusUnauthorized, api.CodeAuth, message)
}

// SessionFromContext returns the authenticated session claims, or nil when
// the request reached the handler through a skip path.
func SessionFromContext(ctx context.Context) *UserClaims {
	if claims, ok := ctx.Value(sessionContextKey).(*UserClaims); ok {
		return claims
	}
	return nil
}

// WithSession returns a context carrying the given claims. Test helpers use
// it to simulate an authenticated request.
func WithSession(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, sessionContextKey, claims)
}
