package service_test

import (
	"context"
	"testing"

	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/events"
	"github.com/opsdesk/opsdesk-api/internal/service"
	"github.com/opsdesk/opsdesk-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderService_Create(t *testing.T) {
	f := newFixture(t)

	t.Run("agent creates an order", func(t *testing.T) {
		ctx := testutil.UserContext(agentID, domain.RoleAgent)
		order, err := f.orderSvc.Create(ctx, &domain.CreateOrderRequest{
			ID:           "O100",
			CompanyName:  "  Acme  ",
			ContactEmail: "jane@acme.test",
			Price:        250,
		})
		require.NoError(t, err)
		assert.Equal(t, "O100", order.ID)
		assert.Equal(t, "Acme", order.CompanyName)
		assert.Equal(t, []string{"Created"}, order.Statuses)
		assert.Equal(t, "Created", order.PrimaryStatus)
		assert.Equal(t, "Medium", order.Priority)
		assert.Equal(t, "EUR", order.Currency)
		assert.Equal(t, 1, order.Version)

		history, err := f.orderSvc.History(ctx, "O100")
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "Order created", history[0].Note)
		assert.Contains(t, f.published.Names(), events.OrderCreated)
	})

	t.Run("generated id", func(t *testing.T) {
		order, err := f.orderSvc.Create(testutil.AdminContext(adminID), &domain.CreateOrderRequest{CompanyName: "Globex"})
		require.NoError(t, err)
		assert.NotEmpty(t, order.ID)
	})

	t.Run("admin assigns at creation", func(t *testing.T) {
		order, err := f.orderSvc.Create(testutil.AdminContext(adminID), &domain.CreateOrderRequest{
			ID:           "O101",
			CompanyName:  "Initech",
			AssignedToID: agentID,
		})
		require.NoError(t, err)
		assert.Equal(t, "Alice Agent", order.AssignedToName)
		assert.Equal(t, int64(2), testutil.CountHistory(t, f.db, "O101"))
	})

	t.Run("non admin cannot assign at creation", func(t *testing.T) {
		_, err := f.orderSvc.Create(testutil.UserContext(agentID, domain.RoleAgent), &domain.CreateOrderRequest{
			ID:           "O102",
			CompanyName:  "Initech",
			AssignedToID: agentID,
		})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := f.orderSvc.Create(testutil.AdminContext(adminID), &domain.CreateOrderRequest{ID: "O100", CompanyName: "Acme"})
		assert.ErrorIs(t, err, service.ErrOrderExists)
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("invalid priority", func(t *testing.T) {
		_, err := f.orderSvc.Create(testutil.AdminContext(adminID), &domain.CreateOrderRequest{CompanyName: "Acme", Priority: "Whenever"})
		assert.ErrorIs(t, err, service.ErrInvalidPriority)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.orderSvc.Create(context.Background(), &domain.CreateOrderRequest{CompanyName: "Acme"})
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})
}

func TestOrderService_ListAndCounts(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext(adminID)
	testutil.CreateOrder(t, f.db, "O1", "Acme", domain.StatusInProgress)
	testutil.CreateOrder(t, f.db, "O2", "Globex", domain.StatusInProgress, domain.StatusComplaint)
	testutil.CreateOrder(t, f.db, "O3", "Initech", domain.StatusResolved)

	_, err := f.assignment.AssignOrder(ctx, "O2", agentID, "")
	require.NoError(t, err)
	_, err = f.orderSvc.SetYearlyPackage(ctx, "O3", true, "")
	require.NoError(t, err)

	page, err := f.orderSvc.List(ctx, domain.OrderFilter{PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 1, page.PageSize)
	assert.Len(t, page.Data, 1)

	unassigned := domain.UnassignedSentinel
	page, err = f.orderSvc.List(ctx, domain.OrderFilter{AssignedToID: &unassigned})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = f.orderSvc.List(ctx, domain.OrderFilter{YearlyPackage: true})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)
	orders := page.Data.([]domain.OrderDTO)
	assert.Equal(t, "O3", orders[0].ID)
	assert.True(t, orders[0].IsYearlyPackage)

	counts, err := f.orderSvc.Counts(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Total)
	assert.Equal(t, int64(2), counts.Counts["In Progress"])
	assert.Equal(t, int64(1), counts.Counts["Complaint"])
	assert.Equal(t, int64(0), counts.Counts["Resolved"])
}

func TestOrderService_UpdateDetails(t *testing.T) {
	f := newFixture(t)
	testutil.CreateOrder(t, f.db, "O1", "Acme", domain.StatusCreated)

	req := &domain.UpdateOrderRequest{
		CompanyName: "Acme Corp",
		Description: "Logo refresh",
		Price:       1500,
		Currency:    "usd",
		Priority:    "High",
		Note:        "scope change",
	}

	_, err := f.orderSvc.UpdateDetails(testutil.UserContext(agentID, domain.RoleAgent), "O1", req)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	order, err := f.orderSvc.UpdateDetails(testutil.AdminContext(adminID), "O1", req)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", order.CompanyName)
	assert.Equal(t, "USD", order.Currency)
	assert.Equal(t, "High", order.Priority)
	assert.Equal(t, []string{"Created"}, order.Statuses)
	assert.Equal(t, 2, order.Version)

	history, err := f.orderSvc.History(context.Background(), "O1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Order details edited: scope change", history[0].Note)
}

func TestOrderService_SetYearlyPackageIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.AdminContext(adminID)
	testutil.CreateOrder(t, f.db, "O1", "Acme")

	order, err := f.orderSvc.SetYearlyPackage(ctx, "O1", false, "")
	require.NoError(t, err)
	assert.False(t, order.IsYearlyPackage)
	assert.Equal(t, int64(0), testutil.CountHistory(t, f.db, "O1"))

	order, err = f.orderSvc.SetYearlyPackage(ctx, "O1", true, "renewal")
	require.NoError(t, err)
	assert.True(t, order.IsYearlyPackage)

	history, err := f.orderSvc.History(ctx, "O1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Moved to yearly packages: renewal", history[0].Note)
}

func TestOrderService_HardDelete(t *testing.T) {
	f := newFixture(t)
	testutil.CreateOrder(t, f.db, "O1", "Acme")
	_, err := f.status.ToggleStatus(testutil.AdminContext(adminID), "O1", "Complaint", true, "")
	require.NoError(t, err)

	err = f.orderSvc.HardDelete(testutil.UserContext(agentID, domain.RoleAgent), "O1")
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	require.NoError(t, f.orderSvc.HardDelete(testutil.AdminContext(adminID), "O1"))

	_, err = f.orderSvc.GetByID(context.Background(), "O1")
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
	assert.Equal(t, int64(0), testutil.CountHistory(t, f.db, "O1"))

	err = f.orderSvc.HardDelete(testutil.AdminContext(adminID), "O1")
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
}

func TestOrderService_HistoryOfUnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.orderSvc.History(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
}
