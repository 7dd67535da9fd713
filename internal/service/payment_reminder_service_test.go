package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/events"
	"github.com/opsdesk/opsdesk-api/internal/service"
	"github.com/opsdesk/opsdesk-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentReminderService_ScheduleAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.UserContext(agentID, domain.RoleAgent)
	testutil.CreateOrder(t, f.db, "O1", "Acme")

	reminder, err := f.reminderSvc.Schedule(ctx, "O1", "2026-03-01T09:00:00+01:00", "call accounting")
	require.NoError(t, err)
	assert.Equal(t, "O1", reminder.OrderID)
	assert.Equal(t, "2026-03-01T08:00:00Z", reminder.RemindAt)
	assert.False(t, reminder.Sent)

	order, err := f.orderSvc.GetByID(ctx, "O1")
	require.NoError(t, err)
	assert.True(t, order.HasPaymentReminder)

	got, err := f.reminderSvc.Get(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, "call accounting", got.Note)

	require.NoError(t, f.reminderSvc.Cancel(ctx, "O1"))

	_, err = f.reminderSvc.Get(ctx, "O1")
	assert.ErrorIs(t, err, service.ErrReminderNotFound)

	err = f.reminderSvc.Cancel(ctx, "O1")
	assert.ErrorIs(t, err, service.ErrReminderNotFound)
}

func TestPaymentReminderService_ScheduleErrors(t *testing.T) {
	f := newFixture(t)
	testutil.CreateOrder(t, f.db, "O1", "Acme")
	admin := testutil.AdminContext(adminID)

	_, err := f.reminderSvc.Schedule(testutil.UserContext(userID, domain.RoleUser), "O1", "2026-03-01T09:00:00Z", "")
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	_, err = f.reminderSvc.Schedule(admin, "O1", "next tuesday", "")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.reminderSvc.Schedule(admin, "missing", "2026-03-01T09:00:00Z", "")
	assert.ErrorIs(t, err, service.ErrOrderNotFound)
}

func TestPaymentReminderService_ProcessDue(t *testing.T) {
	f := newFixture(t)
	admin := testutil.AdminContext(adminID)
	testutil.CreateOrder(t, f.db, "O1", "Acme")
	testutil.CreateOrder(t, f.db, "O2", "Globex")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := f.reminderSvc.Schedule(admin, "O1", "2026-03-01T09:00:00Z", "second notice")
	require.NoError(t, err)
	_, err = f.reminderSvc.Schedule(admin, "O2", "2026-03-02T09:00:00Z", "")
	require.NoError(t, err)

	sent, err := f.reminderSvc.ProcessDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	notices := f.notifier.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, domain.NotificationTypePaymentReminder, notices[0].Type)
	assert.Empty(t, notices[0].ActorID)
	assert.Equal(t, "O1", notices[0].EntityID)
	assert.Contains(t, notices[0].Message, "second notice")
	assert.Contains(t, f.published.Names(), events.PaymentReminderDue)

	reminder, err := f.reminderSvc.Get(admin, "O1")
	require.NoError(t, err)
	assert.True(t, reminder.Sent)

	sent, err = f.reminderSvc.ProcessDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, sent, "sent reminders are not repeated")

	_, err = f.reminderSvc.Schedule(admin, "O1", "2026-03-01T10:00:00Z", "")
	require.NoError(t, err)
	sent, err = f.reminderSvc.ProcessDue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "rescheduling makes a reminder pending again")
}
