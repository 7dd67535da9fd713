package auth

import (
	"context"

	"github.com/opsdesk/opsdesk-api/internal/domain"
)

// SystemUserID identifies requests authenticated with the API key
const SystemUserID = "00000000-0000-0000-0000-000000000000"

// UserContext holds authenticated user information
type UserContext struct {
	UserID      string
	DisplayName string
	Email       string
	Roles       []domain.UserRoleType
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok && user != nil
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role domain.UserRoleType) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole checks if user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRoleType) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user may run admin-only mutations
func (u *UserContext) IsAdmin() bool {
	return u.HasRole(domain.RoleAdmin)
}

// PrimaryRole returns the strongest role held: admin, then agent, then user
func (u *UserContext) PrimaryRole() domain.UserRoleType {
	switch {
	case u.HasRole(domain.RoleAdmin):
		return domain.RoleAdmin
	case u.HasRole(domain.RoleAgent):
		return domain.RoleAgent
	default:
		return domain.RoleUser
	}
}

// Name returns the display name, falling back to the email
func (u *UserContext) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Email != "" {
		return u.Email
	}
	return domain.UnknownUserName
}

// RolesAsStrings returns roles as a slice of strings
func (u *UserContext) RolesAsStrings() []string {
	result := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		result[i] = string(role)
	}
	return result
}
