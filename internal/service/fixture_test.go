package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/events"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"github.com/opsdesk/opsdesk-api/internal/service"
	"github.com/opsdesk/opsdesk-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	adminID = "admin-1"
	agentID = "agent-1"
	userID  = "user-1"
)

type recordingNotifier struct {
	mu      sync.Mutex
	notices []service.TeamNotice
}

func (n *recordingNotifier) NotifyTeam(_ context.Context, notice service.TeamNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) Notices() []service.TeamNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]service.TeamNotice(nil), n.notices...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) handle(_ context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, len(p.events))
	for i, e := range p.events {
		names[i] = e.Name
	}
	return names
}

type failingInvoiceSyncer struct{}

func (failingInvoiceSyncer) SyncInvoiceForOrder(context.Context, *domain.Order, domain.StatusName) (*service.InvoiceSyncResult, error) {
	return nil, errors.New("invoice store unavailable")
}

type fixture struct {
	db        *gorm.DB
	orders    *repository.OrderRepository
	history   *repository.OrderHistoryRepository
	invoices  *repository.InvoiceRepository
	clients   *repository.ClientRepository
	users     *repository.UserRepository
	reminders *repository.PaymentReminderRepository
	tx        *database.TxManager

	bus       *events.Bus
	published *recordingPublisher
	notifier  *recordingNotifier

	invoiceSync *service.InvoiceSyncService
	status      *service.OrderStatusService
	assignment  *service.AssignmentService
	orderSvc    *service.OrderService
	reminderSvc *service.PaymentReminderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	logger := zap.NewNop()

	f := &fixture{
		db:        db,
		orders:    repository.NewOrderRepository(db),
		history:   repository.NewOrderHistoryRepository(db),
		invoices:  repository.NewInvoiceRepository(db),
		clients:   repository.NewClientRepository(db),
		users:     repository.NewUserRepository(db),
		reminders: repository.NewPaymentReminderRepository(db),
		tx:        database.NewTxManager(db),
		bus:       events.NewBus(logger),
		published: &recordingPublisher{},
		notifier:  &recordingNotifier{},
	}
	f.bus.Subscribe(events.AllEvents, f.published.handle)

	numbers := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), "INV", logger)
	f.invoiceSync = service.NewInvoiceSyncService(f.invoices, f.clients, numbers, service.InvoiceSyncConfig{
		VATRate:  19,
		Currency: "EUR",
		DueDays:  30,
	}, logger)

	f.status = f.newStatusService(f.invoiceSync)
	f.assignment = service.NewAssignmentService(f.tx, f.orders, f.history, f.users, f.reminders, f.bus, f.notifier, logger)
	f.orderSvc = service.NewOrderService(f.tx, f.orders, f.history, f.users, f.reminders, f.bus, f.notifier, "EUR", logger)
	f.reminderSvc = service.NewPaymentReminderService(f.orders, f.reminders, f.bus, f.notifier, logger)

	testutil.CreateUser(t, db, adminID, "Admin User", "admin@example.com", domain.RoleAdmin)
	testutil.CreateUser(t, db, agentID, "Alice Agent", "alice@example.com", domain.RoleAgent)
	testutil.CreateUser(t, db, userID, "", "bob@example.com", domain.RoleUser)

	return f
}

func (f *fixture) newStatusService(invoices service.InvoiceSyncer) *service.OrderStatusService {
	return service.NewOrderStatusService(f.tx, f.orders, f.history, invoices, f.users, f.reminders, f.bus, f.notifier, zap.NewNop())
}

func (f *fixture) invoiceCount(t *testing.T, orderID string) int64 {
	t.Helper()
	count, err := f.invoices.CountBySourceOrder(context.Background(), orderID)
	require.NoError(t, err)
	return count
}
