package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"github.com/opsdesk/opsdesk-api/internal/service"
	"github.com/opsdesk/opsdesk-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createLegacyInvoice(t *testing.T, f *fixture, number, notes string) *domain.Invoice {
	t.Helper()
	client := &domain.Client{Name: "Legacy " + number, Email: "billing@example.com"}
	require.NoError(t, f.db.Create(client).Error)

	now := time.Now().UTC()
	invoice := &domain.Invoice{
		InvoiceNumber: number,
		ClientID:      client.ID,
		ClientName:    client.Name,
		Status:        domain.InvoiceStatusDraft,
		IssueDate:     now,
		DueDate:       now.AddDate(0, 0, 30),
		Currency:      "EUR",
		VATRate:       19,
		Notes:         notes,
	}
	require.NoError(t, f.db.Create(invoice).Error)
	return invoice
}

func TestInvoiceSyncService_LinksLegacyInvoiceByExactTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := testutil.CreateOrder(t, f.db, "O1", "Acme")

	o12 := createLegacyInvoice(t, f, "LEG-12", "Invoice for Acme\nOrder ID: O12")
	o1 := createLegacyInvoice(t, f, "LEG-1", "Invoice for Acme\nOrder ID: O1\nthanks")

	result, err := f.invoiceSync.SyncInvoiceForOrder(ctx, order, domain.StatusInvoiceSent)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, o1.ID, result.Invoice.ID)
	assert.Equal(t, domain.InvoiceStatusSent, result.Invoice.Status)

	linked, err := f.invoices.GetByID(ctx, o1.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.SourceOrderID)
	assert.Equal(t, "O1", *linked.SourceOrderID)

	untouched, err := f.invoices.GetByID(ctx, o12.ID)
	require.NoError(t, err)
	assert.Nil(t, untouched.SourceOrderID)
	assert.Equal(t, domain.InvoiceStatusDraft, untouched.Status)
}

func TestInvoiceSyncService_DoesNotMatchLongerOrderID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := testutil.CreateOrder(t, f.db, "O1", "Acme")
	createLegacyInvoice(t, f, "LEG-12", "Order ID: O12")

	result, err := f.invoiceSync.SyncInvoiceForOrder(ctx, order, domain.StatusInvoiceSent)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, int64(1), f.invoiceCount(t, "O1"))
}

func TestInvoiceSyncService_ClientWithoutEmailNeedsReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := testutil.CreateOrder(t, f.db, "O1", "Nomail GmbH")
	order.ContactEmail = ""

	result, err := f.invoiceSync.SyncInvoiceForOrder(ctx, order, domain.StatusInvoicePaid)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.True(t, result.ClientCreated)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Nomail GmbH")
	assert.Equal(t, domain.InvoiceStatusPaid, result.Invoice.Status)
	assert.NotNil(t, result.Invoice.PaidAt)

	client, err := f.clients.FindByName(ctx, "Nomail GmbH")
	require.NoError(t, err)
	assert.Empty(t, client.Email)
	assert.True(t, client.NeedsReview)

	dto := result.DTO()
	require.NotNil(t, dto)
	assert.Equal(t, result.Warnings, dto.Warnings)
}

func TestInvoiceSyncService_ReusesClientByExactName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := &domain.Client{Name: "Acme", Email: "ap@acme.test"}
	require.NoError(t, f.db.Create(existing).Error)
	order := testutil.CreateOrder(t, f.db, "O1", "Acme")

	result, err := f.invoiceSync.SyncInvoiceForOrder(ctx, order, domain.StatusInvoiceSent)
	require.NoError(t, err)
	assert.False(t, result.ClientCreated)
	assert.Equal(t, existing.ID, result.Invoice.ClientID)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, "EUR", result.Invoice.Currency)
	assert.Equal(t, result.Invoice.IssueDate.AddDate(0, 0, 30), result.Invoice.DueDate)

	other := testutil.CreateOrder(t, f.db, "O2", "ACME")
	result, err = f.invoiceSync.SyncInvoiceForOrder(ctx, other, domain.StatusInvoiceSent)
	require.NoError(t, err)
	assert.True(t, result.ClientCreated, "client names match case sensitively")
}

// staleClientLookup misses clients another writer inserted after the lookup
type staleClientLookup struct {
	*repository.ClientRepository
}

func (staleClientLookup) FindByName(context.Context, string) (*domain.Client, error) {
	return nil, gorm.ErrRecordNotFound
}

func TestInvoiceSyncService_ConcurrentClientInsertReusesWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	winner := &domain.Client{Name: "Acme", Email: "ap@acme.test"}
	require.NoError(t, f.db.Create(winner).Error)
	order := testutil.CreateOrder(t, f.db, "O1", "Acme")
	order.ContactEmail = ""

	numbers := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(f.db), "INV", zap.NewNop())
	sync := service.NewInvoiceSyncService(f.invoices, staleClientLookup{f.clients}, numbers, service.InvoiceSyncConfig{
		VATRate:  19,
		Currency: "EUR",
		DueDays:  30,
	}, zap.NewNop())

	result, err := sync.SyncInvoiceForOrder(ctx, order, domain.StatusInvoiceSent)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.False(t, result.ClientCreated)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, winner.ID, result.Invoice.ClientID)

	var clients int64
	require.NoError(t, f.db.Model(&domain.Client{}).Where("name = ?", "Acme").Count(&clients).Error)
	assert.Equal(t, int64(1), clients)
}

func TestInvoiceSyncService_RejectsStatusWithoutInvoice(t *testing.T) {
	f := newFixture(t)
	order := testutil.CreateOrder(t, f.db, "O1", "Acme")

	_, err := f.invoiceSync.SyncInvoiceForOrder(context.Background(), order, domain.StatusComplaint)
	assert.ErrorIs(t, err, service.ErrInvalidStatus)
}

func TestInvoiceSyncService_GetInvoiceForOrderNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.invoiceSync.GetInvoiceForOrder(context.Background(), "O1")
	assert.ErrorIs(t, err, service.ErrInvoiceNotFound)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
