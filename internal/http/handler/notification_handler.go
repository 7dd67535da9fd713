package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"go.uber.org/zap"
)

// validNotificationTypes contains all valid notification type values
var validNotificationTypes = map[string]bool{
	string(domain.NotificationTypeOrderStatusChanged): true,
	string(domain.NotificationTypeOrderAssigned):      true,
	string(domain.NotificationTypeOrderCreated):       true,
	string(domain.NotificationTypeOrderUpdated):       true,
	string(domain.NotificationTypePaymentReminder):    true,
}

// NotificationInbox is the current user's notification inbox
type NotificationInbox interface {
	GetForCurrentUser(ctx context.Context, page, pageSize int, unreadOnly bool, notificationType string) (*domain.PaginatedResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.NotificationDTO, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsReadForUser(ctx context.Context) error
	GetUnreadCount(ctx context.Context) (*domain.UnreadCountDTO, error)
}

// NotificationHandler handles HTTP requests for notifications
type NotificationHandler struct {
	inbox  NotificationInbox
	logger *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler instance
func NewNotificationHandler(inbox NotificationInbox, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		inbox:  inbox,
		logger: logger,
	}
}

// List godoc
// @Summary List notifications
// @Description Get paginated list of notifications for the current user
// @Tags Notifications
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param unreadOnly query bool false "Filter to show only unread notifications" default(false)
// @Param type query string false "Filter by notification type" Enums(order_status_changed, order_assigned, order_created, order_updated, payment_reminder)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.NotificationDTO}
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	unreadOnly := q.Get("unreadOnly") == "true"
	notificationType := q.Get("type")

	if notificationType != "" && !validNotificationTypes[notificationType] {
		respondWithError(w, http.StatusBadRequest,
			"invalid notification type: must be one of order_status_changed, order_assigned, order_created, order_updated, payment_reminder")
		return
	}

	result, err := h.inbox.GetForCurrentUser(r.Context(), page, pageSize, unreadOnly, notificationType)
	if err != nil {
		respondServiceError(w, h.logger, err, "list notifications")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetUnreadCount godoc
// @Summary Get unread notification count
// @Tags Notifications
// @Produce json
// @Success 200 {object} domain.UnreadCountDTO
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications/count [get]
func (h *NotificationHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.inbox.GetUnreadCount(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "get unread count")
		return
	}

	respondJSON(w, http.StatusOK, count)
}

// GetByID godoc
// @Summary Get notification by ID
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID" format(uuid)
// @Success 200 {object} domain.NotificationDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications/{id} [get]
func (h *NotificationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid notification ID format")
		return
	}

	notification, err := h.inbox.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get notification")
		return
	}

	respondJSON(w, http.StatusOK, notification)
}

// MarkAsRead godoc
// @Summary Mark notification as read
// @Tags Notifications
// @Param id path string true "Notification ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid notification ID format")
		return
	}

	if err := h.inbox.MarkAsRead(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "mark notification as read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkAllAsRead godoc
// @Summary Mark all notifications as read
// @Tags Notifications
// @Success 204 "No Content"
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.inbox.MarkAllAsReadForUser(r.Context()); err != nil {
		respondServiceError(w, h.logger, err, "mark all notifications as read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
