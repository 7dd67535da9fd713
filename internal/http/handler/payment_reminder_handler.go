package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"go.uber.org/zap"
)

// PaymentReminders manages the payment reminder of an order
type PaymentReminders interface {
	Get(ctx context.Context, orderID string) (*domain.PaymentReminderDTO, error)
	Schedule(ctx context.Context, orderID, remindAt, note string) (*domain.PaymentReminderDTO, error)
	Cancel(ctx context.Context, orderID string) error
}

type PaymentReminderHandler struct {
	reminders PaymentReminders
	logger    *zap.Logger
}

func NewPaymentReminderHandler(reminders PaymentReminders, logger *zap.Logger) *PaymentReminderHandler {
	return &PaymentReminderHandler{
		reminders: reminders,
		logger:    logger,
	}
}

// Get godoc
// @Summary Get payment reminder
// @Tags Payment Reminders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.PaymentReminderDTO
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/payment-reminder [get]
func (h *PaymentReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	reminder, err := h.reminders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.logger, err, "get payment reminder")
		return
	}

	respondJSON(w, http.StatusOK, reminder)
}

// Schedule godoc
// @Summary Schedule payment reminder
// @Description Creates or reschedules the reminder. Rescheduling makes a sent reminder pending again.
// @Tags Payment Reminders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param body body domain.SchedulePaymentReminderRequest true "Reminder"
// @Success 200 {object} domain.PaymentReminderDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/payment-reminder [put]
func (h *PaymentReminderHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req domain.SchedulePaymentReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reminder, err := h.reminders.Schedule(r.Context(), chi.URLParam(r, "id"), req.RemindAt, req.Note)
	if err != nil {
		respondServiceError(w, h.logger, err, "schedule payment reminder")
		return
	}

	respondJSON(w, http.StatusOK, reminder)
}

// Cancel godoc
// @Summary Cancel payment reminder
// @Tags Payment Reminders
// @Param id path string true "Order ID"
// @Success 204 "No Content"
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/payment-reminder [delete]
func (h *PaymentReminderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.reminders.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, h.logger, err, "cancel payment reminder")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
