package handler

import (
	"context"
	"net/http"

	"github.com/opsdesk/opsdesk-api/internal/auth"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"go.uber.org/zap"
)

type AuthHandler struct {
	logger *zap.Logger
}

func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

// Me godoc
// @Summary Get current authenticated user
// @Description Returns the current authenticated user with roles
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.AuthUserDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	respondJSON(w, http.StatusOK, domain.AuthUserDTO{
		ID:      userCtx.UserID,
		Name:    userCtx.Name(),
		Email:   userCtx.Email,
		Roles:   userCtx.RolesAsStrings(),
		IsAdmin: userCtx.IsAdmin(),
	})
}

// TeamDirectory lists the active team members
type TeamDirectory interface {
	List(ctx context.Context) ([]domain.UserDTO, error)
}

type UserHandler struct {
	users  TeamDirectory
	logger *zap.Logger
}

func NewUserHandler(users TeamDirectory, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// List godoc
// @Summary List users
// @Description Active team members, used to pick an assignee
// @Tags Users
// @Produce json
// @Success 200 {array} domain.UserDTO
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list users")
		return
	}

	respondJSON(w, http.StatusOK, users)
}
