package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"go.uber.org/zap"
)

// OrderService is the order management surface used by OrderHandler
type OrderService interface {
	Create(ctx context.Context, req *domain.CreateOrderRequest) (*domain.OrderDTO, error)
	GetByID(ctx context.Context, id string) (*domain.OrderDTO, error)
	List(ctx context.Context, filter domain.OrderFilter) (*domain.PaginatedResponse, error)
	Counts(ctx context.Context, filter domain.OrderFilter) (*domain.StatusCountsDTO, error)
	UpdateDetails(ctx context.Context, id string, req *domain.UpdateOrderRequest) (*domain.OrderDTO, error)
	SetYearlyPackage(ctx context.Context, id string, yearly bool, note string) (*domain.OrderDTO, error)
	History(ctx context.Context, id string) ([]domain.OrderHistoryDTO, error)
	HardDelete(ctx context.Context, id string) error
}

// InvoiceLookup finds the invoice created from an order
type InvoiceLookup interface {
	GetInvoiceForOrder(ctx context.Context, orderID string) (*domain.InvoiceDTO, error)
}

type OrderHandler struct {
	orders   OrderService
	invoices InvoiceLookup
	logger   *zap.Logger
}

func NewOrderHandler(orders OrderService, invoices InvoiceLookup, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		invoices: invoices,
		logger:   logger,
	}
}

// parseOrderFilter reads the listing filters from the query string. Status
// may be repeated or given as a comma separated list.
func parseOrderFilter(r *http.Request) (domain.OrderFilter, error) {
	q := r.URL.Query()
	filter := domain.OrderFilter{
		YearlyPackage:  q.Get("yearlyPackage") == "true",
		IncludeDeleted: q.Get("includeDeleted") == "true",
		Search:         strings.TrimSpace(q.Get("search")),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("pageSize"))

	for _, raw := range q["status"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			status, err := domain.ParseStatusName(part)
			if err != nil {
				return filter, err
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if q.Has("assignedTo") {
		assignee := strings.TrimSpace(q.Get("assignedTo"))
		filter.AssignedToID = &assignee
	}
	return filter, nil
}

// List godoc
// @Summary List orders
// @Description Paginated order listing. Deleted orders are hidden unless includeDeleted is set, and yearly package orders only appear in the yearly package view.
// @Tags Orders
// @Produce json
// @Param status query []string false "Show orders holding any of these statuses" collectionFormat(multi)
// @Param assignedTo query string false "Assignee id, or 'unassigned'"
// @Param yearlyPackage query bool false "Yearly package view" default(false)
// @Param includeDeleted query bool false "Include deleted orders" default(false)
// @Param search query string false "Search company, contact and description"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.OrderDTO}
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders [get]
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.orders.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "list orders")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Counts godoc
// @Summary Count orders per status
// @Description Number of orders holding each status within the current view. The status and page filters are ignored.
// @Tags Orders
// @Produce json
// @Param assignedTo query string false "Assignee id, or 'unassigned'"
// @Param yearlyPackage query bool false "Yearly package view" default(false)
// @Param includeDeleted query bool false "Include deleted orders" default(false)
// @Param search query string false "Search company, contact and description"
// @Success 200 {object} domain.StatusCountsDTO
// @Failure 400 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/counts [get]
func (h *OrderHandler) Counts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.Statuses = nil

	counts, err := h.orders.Counts(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "count orders")
		return
	}

	respondJSON(w, http.StatusOK, counts)
}

// Create godoc
// @Summary Create order
// @Description Creates an order with the Created status. Only admins may assign at creation.
// @Tags Orders
// @Accept json
// @Produce json
// @Param order body domain.CreateOrderRequest true "Order data"
// @Success 201 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders [post]
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create order")
		return
	}

	w.Header().Set("Location", "/api/v1/orders/"+order.ID)
	respondJSON(w, http.StatusCreated, order)
}

// Get godoc
// @Summary Get order
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.OrderDTO
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.logger, err, "get order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// Update godoc
// @Summary Edit order details
// @Description Updates company, contact, description, price, currency and priority. Admin only.
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param order body domain.UpdateOrderRequest true "Order details"
// @Success 200 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id} [put]
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.UpdateDetails(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// YearlyPackage godoc
// @Summary Move order to or from yearly packages
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param body body domain.YearlyPackageRequest true "Target view"
// @Success 200 {object} domain.OrderDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/yearly-package [put]
func (h *OrderHandler) YearlyPackage(w http.ResponseWriter, r *http.Request) {
	var req domain.YearlyPackageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.SetYearlyPackage(r.Context(), chi.URLParam(r, "id"), *req.YearlyPackage, req.Note)
	if err != nil {
		respondServiceError(w, h.logger, err, "move order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// History godoc
// @Summary Order history
// @Description Status, assignment and edit history, newest first
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {array} domain.OrderHistoryDTO
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/history [get]
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.orders.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.logger, err, "get order history")
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Invoice godoc
// @Summary Invoice linked to order
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.InvoiceDTO
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/invoice [get]
func (h *OrderHandler) Invoice(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.invoices.GetInvoiceForOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, h.logger, err, "get invoice")
		return
	}

	respondJSON(w, http.StatusOK, invoice)
}

// Purge godoc
// @Summary Permanently delete order
// @Description Removes the order and its history. Admin only. The regular delete only sets the Deleted status.
// @Tags Orders
// @Param id path string true "Order ID"
// @Success 204 "No Content"
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /orders/{id}/purge [delete]
func (h *OrderHandler) Purge(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.HardDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, h.logger, err, "delete order")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
