package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/repository"
	"github.com/opsdesk/opsdesk-api/internal/service"
	"github.com/opsdesk/opsdesk-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubDirectory struct {
	ids []string
	err error
}

func (d stubDirectory) ListActiveIDsExcept(_ context.Context, excludeID string) ([]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []string
	for _, id := range d.ids {
		if id != excludeID {
			out = append(out, id)
		}
	}
	return out, nil
}

type flakyWriter struct {
	mu      sync.Mutex
	failFor string
	written []string
}

func (w *flakyWriter) Create(_ context.Context, n *domain.Notification) error {
	if n.UserID == w.failFor {
		return errors.New("insert failed")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.written = append(w.written, n.UserID)
	return nil
}

func TestBroadcastNotifier_WritesOneRowPerOtherActiveUser(t *testing.T) {
	f := newFixture(t)
	inactive := testutil.CreateUser(t, f.db, "gone-1", "Former Member", "gone@example.com", domain.RoleAgent)
	require.NoError(t, f.users.SetActive(context.Background(), inactive.ID, false))

	notifications := repository.NewNotificationRepository(f.db)
	notifier := service.NewBroadcastNotifier(f.users, notifications, 4, zap.NewNop())

	notifier.NotifyTeam(context.Background(), service.TeamNotice{
		ActorID:    adminID,
		Type:       domain.NotificationTypeOrderStatusChanged,
		Title:      "Order status changed",
		Message:    "Admin User added status \"Resolved\"",
		EntityType: "order",
		EntityID:   "O1",
		ActionURL:  "/orders/O1",
	})

	var rows []domain.Notification
	require.NoError(t, f.db.Order("user_id ASC").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, agentID, rows[0].UserID)
	assert.Equal(t, userID, rows[1].UserID)
	for _, row := range rows {
		assert.Equal(t, string(domain.NotificationTypeOrderStatusChanged), row.Type)
		assert.Equal(t, "O1", row.EntityID)
		assert.Equal(t, "/orders/O1", row.ActionURL)
		assert.False(t, row.Read)
	}
}

func TestBroadcastNotifier_FailuresDoNotStopOthers(t *testing.T) {
	writer := &flakyWriter{failFor: "u2"}
	notifier := service.NewBroadcastNotifier(stubDirectory{ids: []string{"actor", "u1", "u2", "u3"}}, writer, 2, zap.NewNop())

	notifier.NotifyTeam(context.Background(), service.TeamNotice{ActorID: "actor", Type: domain.NotificationTypeOrderAssigned})

	assert.ElementsMatch(t, []string{"u1", "u3"}, writer.written)
}

func TestBroadcastNotifier_DirectoryFailureIsSwallowed(t *testing.T) {
	writer := &flakyWriter{}
	notifier := service.NewBroadcastNotifier(stubDirectory{err: errors.New("db down")}, writer, 0, zap.NewNop())

	assert.NotPanics(t, func() {
		notifier.NotifyTeam(context.Background(), service.TeamNotice{ActorID: "actor"})
	})
	assert.Empty(t, writer.written)
}

type blockingNotifier struct {
	release chan struct{}
	calls   atomic.Int32
	ctxErr  atomic.Value
}

func (n *blockingNotifier) NotifyTeam(ctx context.Context, _ service.TeamNotice) {
	<-n.release
	n.calls.Add(1)
	if err := ctx.Err(); err != nil {
		n.ctxErr.Store(err)
	}
}

func TestAsyncNotifier_DetachesFromRequestAndDrainsOnClose(t *testing.T) {
	inner := &blockingNotifier{release: make(chan struct{})}
	async := service.NewAsyncNotifier(inner, time.Minute, zap.NewNop())

	reqCtx, cancel := context.WithCancel(context.Background())
	async.NotifyTeam(reqCtx, service.TeamNotice{ActorID: "actor"})
	cancel()

	close(inner.release)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	require.NoError(t, async.Close(closeCtx))

	assert.Equal(t, int32(1), inner.calls.Load())
	assert.Nil(t, inner.ctxErr.Load(), "request cancellation must not reach the fan-out")

	async.NotifyTeam(context.Background(), service.TeamNotice{ActorID: "actor"})
	assert.Equal(t, int32(1), inner.calls.Load(), "notices after Close are dropped")
}

func TestAsyncNotifier_CloseHonoursDeadline(t *testing.T) {
	inner := &blockingNotifier{release: make(chan struct{})}
	async := service.NewAsyncNotifier(inner, time.Minute, zap.NewNop())
	async.NotifyTeam(context.Background(), service.TeamNotice{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, async.Close(ctx), context.DeadlineExceeded)

	close(inner.release)
}
