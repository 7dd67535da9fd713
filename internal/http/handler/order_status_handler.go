package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"go.uber.org/zap"
)

// StatusToggler changes the status flags of an order
type StatusToggler interface {
	ToggleStatus(ctx context.Context, orderID, status string, enabled bool, note string) (*domain.StatusToggleDTO, error)
	SendToReview(ctx context.Context, orderID, note string) (*domain.StatusToggleDTO, error)
	RemoveFromReview(ctx context.Context, orderID, note string) (*domain.StatusToggleDTO, error)
	SoftDelete(ctx context.Context, orderID string) error
}

// OrderAssigner changes the assignee of an order
type OrderAssigner interface {
	AssignOrder(ctx context.Context, orderID, assigneeID, note string) (*domain.OrderDTO, error)
}

// OrderStatusHandler serves the status toggle and assignment endpoints
type OrderStatusHandler struct {
	statuses   StatusToggler
	assignment OrderAssigner
	logger     *zap.Logger
}

func NewOrderStatusHandler(statuses StatusToggler, assignment OrderAssigner, logger *zap.Logger) *OrderStatusHandler {
	return &OrderStatusHandler{
		statuses:   statuses,
		assignment: assignment,
		logger:     logger,
	}
}

// Toggle godoc
// @Summary Toggle order status
// @Description Adds or removes one status. Invoice Sent and Invoice Paid create or update the linked invoice. Admin only.
// @Tags Order Status
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param body body domain.ToggleStatusRequest true "Status change"
// @Success 200 {object} domain.StatusToggleDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/status [post]
func (h *OrderStatusHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req domain.ToggleStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.statuses.ToggleStatus(r.Context(), chi.URLParam(r, "id"), req.Status, *req.Enabled, req.Note)
	if err != nil {
		respondServiceError(w, h.logger, err, "change order status")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Assign godoc
// @Summary Assign order
// @Description Assigns the order to a team member. An empty assigneeId unassigns. Admin only.
// @Tags Order Status
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param body body domain.AssignOrderRequest true "Assignee"
// @Success 200 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/assign [post]
func (h *OrderStatusHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req domain.AssignOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.assignment.AssignOrder(r.Context(), chi.URLParam(r, "id"), req.AssigneeID, req.Note)
	if err != nil {
		respondServiceError(w, h.logger, err, "assign order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// SendToReview godoc
// @Summary Send order to review
// @Tags Order Status
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param body body domain.ReviewRequest false "Optional note"
// @Success 200 {object} domain.StatusToggleDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/review [post]
func (h *OrderStatusHandler) SendToReview(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReviewRequest(w, r)
	if !ok {
		return
	}

	result, err := h.statuses.SendToReview(r.Context(), chi.URLParam(r, "id"), req.Note)
	if err != nil {
		respondServiceError(w, h.logger, err, "send order to review")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// RemoveFromReview godoc
// @Summary Remove order from review
// @Tags Order Status
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param body body domain.ReviewRequest false "Optional note"
// @Success 200 {object} domain.StatusToggleDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/review [delete]
func (h *OrderStatusHandler) RemoveFromReview(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReviewRequest(w, r)
	if !ok {
		return
	}

	result, err := h.statuses.RemoveFromReview(r.Context(), chi.URLParam(r, "id"), req.Note)
	if err != nil {
		respondServiceError(w, h.logger, err, "remove order from review")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// SoftDelete godoc
// @Summary Delete order
// @Description Sets the Deleted status. The order stays visible with includeDeleted. Admin only.
// @Tags Order Status
// @Param id path string true "Order ID"
// @Success 204 "No Content"
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id} [delete]
func (h *OrderStatusHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.statuses.SoftDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, h.logger, err, "delete order")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decodeReviewRequest accepts an empty body
func decodeReviewRequest(w http.ResponseWriter, r *http.Request) (domain.ReviewRequest, bool) {
	var req domain.ReviewRequest
	if r.ContentLength == 0 {
		return req, true
	}
	return req, decodeJSON(w, r, &req)
}
