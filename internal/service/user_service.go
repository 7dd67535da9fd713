package service

import (
	"context"
	"fmt"

	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/mapper"
	"go.uber.org/zap"
)

// UserService serves the team directory
type UserService struct {
	users  UserDirectory
	logger *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(users UserDirectory, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// List returns the active team members, the candidates for assignment
func (s *UserService) List(ctx context.Context) ([]domain.UserDTO, error) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}
	return dtos, nil
}
