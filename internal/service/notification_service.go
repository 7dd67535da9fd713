package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/mapper"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationService serves the notification inbox of the current user
type NotificationService struct {
	notifications NotificationStore
	logger        *zap.Logger
}

// NewNotificationService creates a new NotificationService instance
func NewNotificationService(notifications NotificationStore, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		logger:        logger,
	}
}

// GetForCurrentUser returns notifications for the current user with pagination
func (s *NotificationService) GetForCurrentUser(
	ctx context.Context,
	page int,
	pageSize int,
	unreadOnly bool,
	notificationType string,
) (*domain.PaginatedResponse, error) {
	userCtx, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	page, pageSize = repository.NormalizePagination(page, pageSize)

	notifications, total, err := s.notifications.ListByUser(ctx, userCtx.UserID, page, pageSize, unreadOnly, notificationType)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	dtos := make([]domain.NotificationDTO, len(notifications))
	for i := range notifications {
		dtos[i] = mapper.ToNotificationDTO(&notifications[i])
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// GetByID returns a notification by ID, verifying ownership
func (s *NotificationService) GetByID(ctx context.Context, id uuid.UUID) (*domain.NotificationDTO, error) {
	notification, err := s.owned(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToNotificationDTO(notification)
	return &dto, nil
}

// MarkAsRead marks a notification as read
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	notification, err := s.owned(ctx, id)
	if err != nil {
		return err
	}

	// Already read, nothing to do
	if notification.Read {
		return nil
	}

	if err := s.notifications.MarkAsRead(ctx, id); err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}

	s.logger.Debug("notification marked as read",
		zap.String("notification_id", id.String()),
		zap.String("user_id", notification.UserID))
	return nil
}

// MarkAllAsReadForUser marks all notifications for the current user as read
func (s *NotificationService) MarkAllAsReadForUser(ctx context.Context) error {
	userCtx, err := currentUser(ctx)
	if err != nil {
		return err
	}

	if err := s.notifications.MarkAllAsRead(ctx, userCtx.UserID); err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}

	s.logger.Info("all notifications marked as read", zap.String("user_id", userCtx.UserID))
	return nil
}

// GetUnreadCount returns the count of unread notifications for the current user
func (s *NotificationService) GetUnreadCount(ctx context.Context) (*domain.UnreadCountDTO, error) {
	userCtx, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	count, err := s.notifications.CountUnread(ctx, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &domain.UnreadCountDTO{Count: count}, nil
}

// owned loads a notification and checks it belongs to the caller
func (s *NotificationService) owned(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	userCtx, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	notification, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	if notification.UserID != userCtx.UserID {
		return nil, ErrNotificationNotOwned
	}
	return notification, nil
}
