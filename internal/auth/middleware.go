package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/config"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"go.uber.org/zap"
)

// TokenValidator turns a bearer token into a user context
type TokenValidator interface {
	ValidateToken(token string) (*UserContext, error)
}

// UserSyncer records authenticated users so they can be listed as assignees
// and receive notifications
type UserSyncer interface {
	Upsert(ctx context.Context, user *domain.User) error
}

// Middleware handles authentication for HTTP requests
type Middleware struct {
	validator TokenValidator
	users     UserSyncer
	apiKey    string
	logger    *zap.Logger
}

// NewMiddleware creates a new authentication middleware. users may be nil.
func NewMiddleware(cfg *config.Config, users UserSyncer, logger *zap.Logger) *Middleware {
	return &Middleware{
		validator: NewJWTValidator(&cfg.AzureAd),
		users:     users,
		apiKey:    cfg.ApiKey.Value,
		logger:    logger,
	}
}

// NewMiddlewareWithValidator creates a middleware using a custom token validator
func NewMiddlewareWithValidator(validator TokenValidator, apiKey string, users UserSyncer, logger *zap.Logger) *Middleware {
	return &Middleware{
		validator: validator,
		users:     users,
		apiKey:    apiKey,
		logger:    logger,
	}
}

// SystemUser is the identity attached to API key requests
func SystemUser() *UserContext {
	return &UserContext{
		UserID:      SystemUserID,
		DisplayName: "System",
		Email:       "system@opsdesk.local",
		Roles:       []domain.UserRoleType{domain.RoleAdmin},
	}
}

// Authenticate is the main authentication middleware
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if apiKey := r.Header.Get("x-api-key"); apiKey != "" {
			if !m.validateAPIKey(apiKey) {
				m.logger.Warn("invalid API key attempt",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userCtx := SystemUser()
			m.logger.Debug("request authenticated",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("auth_type", "api_key"),
				zap.Duration("auth_duration", time.Since(start)),
			)
			next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "Unauthorized: invalid authorization header format", http.StatusUnauthorized)
			return
		}

		userCtx, err := m.validator.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}

		m.syncUser(r.Context(), userCtx)

		m.logger.Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("auth_type", "jwt"),
			zap.String("user_id", userCtx.UserID),
			zap.Strings("roles", userCtx.RolesAsStrings()),
			zap.Duration("auth_duration", time.Since(start)),
		)

		next.ServeHTTP(w, r.WithContext(WithUserContext(r.Context(), userCtx)))
	})
}

// RequireRole middleware ensures user has one of the given roles
func (m *Middleware) RequireRole(roles ...domain.UserRoleType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "Forbidden: no user context", http.StatusForbidden)
				return
			}

			if !userCtx.HasAnyRole(roles...) {
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin middleware ensures user has the admin role
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole(domain.RoleAdmin)(next)
}

// syncUser keeps the users table in step with the identity provider. A
// failure here never blocks the request.
func (m *Middleware) syncUser(ctx context.Context, userCtx *UserContext) {
	if m.users == nil {
		return
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:          userCtx.UserID,
		Email:       userCtx.Email,
		DisplayName: userCtx.DisplayName,
		Role:        userCtx.PrimaryRole(),
		IsActive:    true,
		LastLoginAt: &now,
	}
	if err := m.users.Upsert(ctx, user); err != nil {
		m.logger.Warn("failed to sync user", zap.String("user_id", userCtx.UserID), zap.Error(err))
	}
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}
