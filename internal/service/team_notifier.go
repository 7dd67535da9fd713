package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// teamDirectory lists who a team notice goes to
type teamDirectory interface {
	ListActiveIDsExcept(ctx context.Context, excludeID string) ([]string, error)
}

// notificationWriter stores one notification row
type notificationWriter interface {
	Create(ctx context.Context, notification *domain.Notification) error
}

// BroadcastNotifier writes one notification per active team member except
// the actor
type BroadcastNotifier struct {
	users         teamDirectory
	notifications notificationWriter
	concurrency   int
	logger        *zap.Logger
}

// NewBroadcastNotifier creates a notifier that writes at most concurrency
// rows at a time
func NewBroadcastNotifier(users teamDirectory, notifications notificationWriter, concurrency int, logger *zap.Logger) *BroadcastNotifier {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BroadcastNotifier{
		users:         users,
		notifications: notifications,
		concurrency:   concurrency,
		logger:        logger,
	}
}

// NotifyTeam implements TeamNotifier
func (n *BroadcastNotifier) NotifyTeam(ctx context.Context, notice TeamNotice) {
	recipients, err := n.users.ListActiveIDsExcept(ctx, notice.ActorID)
	if err != nil {
		n.logger.Warn("failed to list notification recipients",
			zap.String("type", string(notice.Type)),
			zap.Error(err))
		return
	}
	if len(recipients) == 0 {
		return
	}

	var failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(n.concurrency)

	for _, userID := range recipients {
		userID := userID
		g.Go(func() error {
			notification := &domain.Notification{
				UserID:     userID,
				Type:       string(notice.Type),
				Title:      notice.Title,
				Message:    notice.Message,
				ActionURL:  notice.ActionURL,
				EntityID:   notice.EntityID,
				EntityType: notice.EntityType,
			}
			if err := n.notifications.Create(ctx, notification); err != nil {
				failed.Add(1)
				n.logger.Warn("failed to create notification for user",
					zap.String("user_id", userID),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	failedCount := int(failed.Load())
	delivered := len(recipients) - failedCount
	metrics.ObserveNotifications(delivered, failedCount)

	if failedCount > 0 {
		n.logger.Warn("team notification completed with failures",
			zap.String("type", string(notice.Type)),
			zap.Int("total", len(recipients)),
			zap.Int("failed", failedCount))
		return
	}
	n.logger.Debug("team notification delivered",
		zap.String("type", string(notice.Type)),
		zap.Int("count", delivered))
}

// AsyncNotifier runs a wrapped notifier on a background goroutine so the
// request that triggered it does not wait for the fan-out.
type AsyncNotifier struct {
	next    TeamNotifier
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncNotifier wraps next. Each fan-out is cut off after timeout.
func NewAsyncNotifier(next TeamNotifier, timeout time.Duration, logger *zap.Logger) *AsyncNotifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AsyncNotifier{
		next:    next,
		timeout: timeout,
		logger:  logger,
	}
}

// NotifyTeam implements TeamNotifier. Notices sent after Close are dropped.
func (a *AsyncNotifier) NotifyTeam(ctx context.Context, notice TeamNotice) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.logger.Warn("notifier closed, dropping team notice", zap.String("type", string(notice.Type)))
		return
	}
	a.wg.Add(1)
	a.mu.Unlock()

	bg := context.WithoutCancel(ctx)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("team notifier panicked", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(bg, a.timeout)
		defer cancel()
		a.next.NotifyTeam(ctx, notice)
	}()
}

// Close stops accepting notices and waits for pending ones until ctx is done
func (a *AsyncNotifier) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
