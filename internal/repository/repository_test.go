package repository

import (
	"context"
	"testing"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func statusPtr(s domain.StatusName) *domain.StatusName {
	return &s
}

func TestOrderHistoryRepository_AppendAndList(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewOrderHistoryRepository(db)
	ctx := context.Background()
	testutil.CreateOrder(t, db, "O1", "Acme")
	testutil.CreateOrder(t, db, "O2", "Globex")

	entries := []*domain.OrderStatusHistory{
		{OrderID: "O1", Kind: domain.HistoryKindCreated, Note: "Order created"},
		{OrderID: "O1", Kind: domain.HistoryKindStatusAdded, Status: statusPtr(domain.StatusInProgress)},
		{OrderID: "O2", Kind: domain.HistoryKindStatusAdded, Status: statusPtr(domain.StatusComplaint)},
		{OrderID: "O1", Kind: domain.HistoryKindStatusAdded, Status: statusPtr(domain.StatusInvoiceSent)},
	}
	for _, e := range entries {
		e.ChangedByID = "u-1"
		e.ChangedByName = "Ada"
		require.NoError(t, repo.Append(ctx, e))
	}
	assert.Equal(t, 3, entries[3].Sequence)
	assert.Equal(t, 1, entries[2].Sequence)

	history, err := repo.ListByOrder(ctx, "O1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, domain.StatusInvoiceSent, *history[0].Status, "newest first")
	assert.Equal(t, domain.HistoryKindCreated, history[2].Kind)

	additions, err := repo.ListStatusAdditions(ctx, []string{"O1", "O2"})
	require.NoError(t, err)
	assert.Len(t, additions["O1"], 2)
	assert.Len(t, additions["O2"], 1)

	count, err := repo.CountByOrder(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestOrderHistoryRepository_RollsBackWithTransaction(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewOrderHistoryRepository(db)
	tx := database.NewTxManager(db)
	testutil.CreateOrder(t, db, "O1", "Acme")

	err := tx.Do(context.Background(), func(ctx context.Context) error {
		if err := repo.Append(ctx, &domain.OrderStatusHistory{
			OrderID: "O1", Kind: domain.HistoryKindEdited, ChangedByID: "u", ChangedByName: "U",
		}); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, int64(0), testutil.CountHistory(t, db, "O1"))
}

func createInvoice(t *testing.T, db *gorm.DB, number, notes string, sourceOrderID *string) *domain.Invoice {
	t.Helper()
	client := &domain.Client{Name: "Client " + number}
	require.NoError(t, db.Create(client).Error)
	now := time.Now().UTC()
	inv := &domain.Invoice{
		InvoiceNumber: number,
		ClientID:      client.ID,
		ClientName:    client.Name,
		SourceOrderID: sourceOrderID,
		Status:        domain.InvoiceStatusDraft,
		IssueDate:     now,
		DueDate:       now.AddDate(0, 0, 30),
		Currency:      "EUR",
		VATRate:       19,
		Notes:         notes,
		Items: []domain.InvoiceItem{
			{Description: "Work", Quantity: 1, UnitPrice: 100, Amount: 100},
		},
	}
	require.NoError(t, NewInvoiceRepository(db).Create(context.Background(), inv))
	return inv
}

func TestInvoiceRepository_FindBySourceOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	createInvoice(t, db, "INV-2025-001", "Created from order\nOrder ID: O12", nil)
	legacy := createInvoice(t, db, "INV-2025-002", "Order ID: O1\nThanks", nil)
	linkedID := "O7"
	linked := createInvoice(t, db, "INV-2025-003", "", &linkedID)

	found, err := repo.FindBySourceOrder(ctx, "O7")
	require.NoError(t, err)
	assert.Equal(t, linked.ID, found.ID)
	assert.Len(t, found.Items, 1)

	found, err = repo.FindBySourceOrder(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, legacy.ID, found.ID, "O1 must not match the O12 tag")

	_, err = repo.FindBySourceOrder(ctx, "O")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.LinkSourceOrder(ctx, found, "O1"))
	count, err := repo.CountBySourceOrder(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestInvoiceRepository_UpdateStatusStampsPaidAt(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()
	inv := createInvoice(t, db, "INV-2025-010", "", nil)

	require.NoError(t, repo.UpdateStatus(ctx, inv, domain.InvoiceStatusSent))
	assert.Nil(t, inv.PaidAt)

	require.NoError(t, repo.UpdateStatus(ctx, inv, domain.InvoiceStatusPaid))
	reloaded, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, reloaded.Status)
	assert.NotNil(t, reloaded.PaidAt)
}

func TestPaymentReminderRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPaymentReminderRepository(db)
	ctx := context.Background()
	testutil.CreateOrder(t, db, "O1", "Acme")
	testutil.CreateOrder(t, db, "O2", "Globex")

	now := time.Now().UTC()
	first := &domain.PaymentReminder{OrderID: "O1", RemindAt: now.Add(-time.Minute), CreatedByID: "u-1"}
	require.NoError(t, repo.Upsert(ctx, first))
	require.NoError(t, repo.Upsert(ctx, &domain.PaymentReminder{OrderID: "O2", RemindAt: now.Add(time.Hour), CreatedByID: "u-1"}))

	due, err := repo.ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "O1", due[0].OrderID)

	require.NoError(t, repo.MarkSent(ctx, due[0].ID, now))
	due, err = repo.ListDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	again := &domain.PaymentReminder{OrderID: "O1", RemindAt: now.Add(-time.Second), Note: "call them", CreatedByID: "u-2"}
	require.NoError(t, repo.Upsert(ctx, again))
	assert.Equal(t, first.ID, again.ID, "rescheduling keeps the row")
	due, err = repo.ListDue(ctx, now, 10)
	require.NoError(t, err)
	assert.Len(t, due, 1, "rescheduling makes the reminder pending again")

	has, err := repo.OrderIDsWithReminder(ctx, []string{"O1", "O2", "O3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"O1": true, "O2": true}, has)

	require.NoError(t, repo.DeleteByOrder(ctx, "O1"))
	assert.ErrorIs(t, repo.DeleteByOrder(ctx, "O1"), gorm.ErrRecordNotFound)
}

func TestUserRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	testutil.CreateUser(t, db, "u-1", "Ada", "ada@example.com", domain.RoleAdmin)
	testutil.CreateUser(t, db, "u-2", "", "bob@example.com", domain.RoleAgent)
	testutil.CreateUser(t, db, "u-3", "Cleo", "cleo@example.com", domain.RoleUser)
	require.NoError(t, repo.SetActive(ctx, "u-3", false))

	ids, err := repo.ListActiveIDsExcept(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u-2"}, ids)

	users, err := repo.GetByIDs(ctx, []string{"u-1", "u-9"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "Ada", users["u-1"].ResolvedName())

	login := time.Now().UTC()
	require.NoError(t, repo.Upsert(ctx, &domain.User{
		ID: "u-3", Email: "cleo@example.com", DisplayName: "Cleo Renamed", Role: domain.RoleAgent, IsActive: true, LastLoginAt: &login,
	}))
	updated, err := repo.GetByID(ctx, "u-3")
	require.NoError(t, err)
	assert.Equal(t, "Cleo Renamed", updated.DisplayName)
	assert.False(t, updated.IsActive, "upsert keeps the active flag")

	require.NoError(t, repo.Upsert(ctx, &domain.User{ID: "u-4", Email: "dan@example.com", Role: domain.RoleUser, IsActive: true}))
	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 3)
}

func TestNumberSequenceRepository_GetNextNumber(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewNumberSequenceRepository(db)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := repo.GetNextNumber(ctx, "INV", 2025)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := repo.GetNextNumber(ctx, "INV", 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, got, "sequences restart each year")

	current, err := repo.GetCurrentSequence(ctx, "INV", 2025)
	require.NoError(t, err)
	assert.Equal(t, 3, current)

	err = database.NewTxManager(db).Do(ctx, func(ctx context.Context) error {
		n, err := repo.GetNextNumber(ctx, "INV", 2025)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	current, err = repo.GetCurrentSequence(ctx, "INV", 2025)
	require.NoError(t, err)
	assert.Equal(t, 3, current, "numbers taken in a rolled back unit of work are released")
}

func TestClientRepository_CreateIfAbsent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewClientRepository(db)
	ctx := context.Background()

	first := &domain.Client{Name: "Acme", Email: "ap@acme.test"}
	created, err := repo.CreateIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	second := &domain.Client{Name: "Acme", NeedsReview: true}
	created, err = repo.CreateIfAbsent(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "ap@acme.test", second.Email)
	assert.False(t, second.NeedsReview)
}
