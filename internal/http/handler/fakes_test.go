package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	filter  domain.OrderFilter
	created *domain.CreateOrderRequest
	yearly  *bool
	err     error
}

func (f *fakeOrders) Create(_ context.Context, req *domain.CreateOrderRequest) (*domain.OrderDTO, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.OrderDTO{ID: "O100", CompanyName: req.CompanyName, Statuses: []string{"Created"}}, nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*domain.OrderDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.OrderDTO{ID: id}, nil
}

func (f *fakeOrders) List(_ context.Context, filter domain.OrderFilter) (*domain.PaginatedResponse, error) {
	f.filter = filter
	if f.err != nil {
		return nil, f.err
	}
	return &domain.PaginatedResponse{Data: []domain.OrderDTO{}, Page: 1, PageSize: 20}, nil
}

func (f *fakeOrders) Counts(_ context.Context, filter domain.OrderFilter) (*domain.StatusCountsDTO, error) {
	f.filter = filter
	if f.err != nil {
		return nil, f.err
	}
	return &domain.StatusCountsDTO{Total: 3, Counts: map[string]int64{"Created": 3}}, nil
}

func (f *fakeOrders) UpdateDetails(_ context.Context, id string, req *domain.UpdateOrderRequest) (*domain.OrderDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.OrderDTO{ID: id, CompanyName: req.CompanyName}, nil
}

func (f *fakeOrders) SetYearlyPackage(_ context.Context, id string, yearly bool, _ string) (*domain.OrderDTO, error) {
	f.yearly = &yearly
	if f.err != nil {
		return nil, f.err
	}
	return &domain.OrderDTO{ID: id, IsYearlyPackage: yearly}, nil
}

func (f *fakeOrders) History(_ context.Context, id string) ([]domain.OrderHistoryDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.OrderHistoryDTO{{OrderID: id, Kind: "status", Status: "Created"}}, nil
}

func (f *fakeOrders) HardDelete(_ context.Context, _ string) error {
	return f.err
}

type fakeInvoices struct {
	err error
}

func (f *fakeInvoices) GetInvoiceForOrder(_ context.Context, orderID string) (*domain.InvoiceDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.InvoiceDTO{InvoiceNumber: "INV-000001", SourceOrderID: orderID, Status: "sent"}, nil
}

type toggleCall struct {
	orderID string
	status  string
	enabled bool
	note    string
}

type fakeStatuses struct {
	calls []toggleCall
	err   error
}

func (f *fakeStatuses) record(call toggleCall) (*domain.StatusToggleDTO, error) {
	f.calls = append(f.calls, call)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.StatusToggleDTO{Order: domain.OrderDTO{ID: call.orderID}}, nil
}

func (f *fakeStatuses) ToggleStatus(_ context.Context, orderID, status string, enabled bool, note string) (*domain.StatusToggleDTO, error) {
	return f.record(toggleCall{orderID: orderID, status: status, enabled: enabled, note: note})
}

func (f *fakeStatuses) SendToReview(_ context.Context, orderID, note string) (*domain.StatusToggleDTO, error) {
	return f.record(toggleCall{orderID: orderID, status: "Review", enabled: true, note: note})
}

func (f *fakeStatuses) RemoveFromReview(_ context.Context, orderID, note string) (*domain.StatusToggleDTO, error) {
	return f.record(toggleCall{orderID: orderID, status: "Review", note: note})
}

func (f *fakeStatuses) SoftDelete(_ context.Context, orderID string) error {
	_, err := f.record(toggleCall{orderID: orderID, status: "Deleted", enabled: true})
	return err
}

type fakeAssigner struct {
	assignee string
	err      error
}

func (f *fakeAssigner) AssignOrder(_ context.Context, orderID, assigneeID, _ string) (*domain.OrderDTO, error) {
	f.assignee = assigneeID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.OrderDTO{ID: orderID, AssignedToID: assigneeID}, nil
}

type fakeInbox struct {
	notificationType string
	readID           uuid.UUID
	err              error
}

func (f *fakeInbox) GetForCurrentUser(_ context.Context, page, pageSize int, _ bool, notificationType string) (*domain.PaginatedResponse, error) {
	f.notificationType = notificationType
	if f.err != nil {
		return nil, f.err
	}
	return &domain.PaginatedResponse{Data: []domain.NotificationDTO{}, Page: page, PageSize: pageSize}, nil
}

func (f *fakeInbox) GetByID(_ context.Context, id uuid.UUID) (*domain.NotificationDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.NotificationDTO{ID: id}, nil
}

func (f *fakeInbox) MarkAsRead(_ context.Context, id uuid.UUID) error {
	f.readID = id
	return f.err
}

func (f *fakeInbox) MarkAllAsReadForUser(_ context.Context) error {
	return f.err
}

func (f *fakeInbox) GetUnreadCount(_ context.Context) (*domain.UnreadCountDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.UnreadCountDTO{Count: 4}, nil
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
