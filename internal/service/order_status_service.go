package service

import (
	"context"
	"fmt"

	"github.com/opsdesk/opsdesk-api/internal/auth"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/events"
	"github.com/opsdesk/opsdesk-api/internal/logger"
	"github.com/opsdesk/opsdesk-api/internal/metrics"
	"go.uber.org/zap"
)

// InvoiceSyncer runs the invoice side effect of invoice statuses
type InvoiceSyncer interface {
	SyncInvoiceForOrder(ctx context.Context, order *domain.Order, status domain.StatusName) (*InvoiceSyncResult, error)
}

// OrderStatusService toggles order statuses
type OrderStatusService struct {
	tx        Transactor
	orders    OrderStore
	history   HistoryStore
	invoices  InvoiceSyncer
	publisher events.Publisher
	notifier  TeamNotifier
	presenter *orderPresenter
	logger    *zap.Logger
}

// NewOrderStatusService creates a new OrderStatusService
func NewOrderStatusService(
	tx Transactor,
	orders OrderStore,
	history HistoryStore,
	invoices InvoiceSyncer,
	users UserDirectory,
	reminders PaymentReminderStore,
	publisher events.Publisher,
	notifier TeamNotifier,
	logger *zap.Logger,
) *OrderStatusService {
	return &OrderStatusService{
		tx:        tx,
		orders:    orders,
		history:   history,
		invoices:  invoices,
		publisher: publisher,
		notifier:  notifier,
		presenter: newOrderPresenter(history, users, reminders, logger),
		logger:    logger,
	}
}

// statusGuard rejects a toggle based on the statuses active before it
type statusGuard func(active domain.StatusSet) error

// ToggleStatus sets or clears one status flag of an order and records it in
// the history. Enabling an invoice status first brings the order's invoice
// in line; if that fails nothing is written. Admin only.
func (s *OrderStatusService) ToggleStatus(ctx context.Context, orderID, status string, enabled bool, note string) (*domain.StatusToggleDTO, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	name, err := domain.ParseStatusName(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}

	return s.toggle(ctx, actor, orderID, name, enabled, note, nil)
}

// SendToReview adds the Review status. Fails if the order is already in review.
func (s *OrderStatusService) SendToReview(ctx context.Context, orderID, note string) (*domain.StatusToggleDTO, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, actor, orderID, domain.StatusReview, true, note, func(active domain.StatusSet) error {
		if !domain.CanSendToReview(active) {
			return fmt.Errorf("%w: order is already in review", ErrInvalidTransition)
		}
		return nil
	})
}

// RemoveFromReview clears the Review status. Fails if the order is not in review.
func (s *OrderStatusService) RemoveFromReview(ctx context.Context, orderID, note string) (*domain.StatusToggleDTO, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, actor, orderID, domain.StatusReview, false, note, func(active domain.StatusSet) error {
		if !domain.CanRemoveFromReview(active) {
			return fmt.Errorf("%w: order is not in review", ErrInvalidTransition)
		}
		return nil
	})
}

// SoftDelete flags an order as Deleted. The row and its history stay.
func (s *OrderStatusService) SoftDelete(ctx context.Context, orderID string) error {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return err
	}
	if _, err := s.toggle(ctx, actor, orderID, domain.StatusDeleted, true, "", nil); err != nil {
		return err
	}
	s.publisher.Publish(ctx, events.New(events.OrderDeleted, orderID, actor.UserID, map[string]interface{}{"hard": false}))
	return nil
}

func (s *OrderStatusService) toggle(
	ctx context.Context,
	actor *auth.UserContext,
	orderID string,
	name domain.StatusName,
	enabled bool,
	note string,
	guard statusGuard,
) (*domain.StatusToggleDTO, error) {
	log := logger.WithOrder(s.logger, orderID, actor.UserID)

	var order *domain.Order
	var invoiceSync *InvoiceSyncResult

	err := s.tx.Do(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return orderError(err)
		}

		if guard != nil {
			if err := guard(domain.ActiveStatuses(o)); err != nil {
				return err
			}
		}

		if _, implies := name.ImpliedInvoiceStatus(); implies && enabled {
			invoiceSync, err = s.invoices.SyncInvoiceForOrder(ctx, o, name)
			if err != nil {
				metrics.ObserveInvoiceSync(metrics.InvoiceFailed)
				return fmt.Errorf("invoice sync failed: %w", err)
			}
		}

		o.Statuses = o.Statuses.Set(name, enabled)
		if err := s.orders.Update(ctx, o); err != nil {
			return orderError(err)
		}

		kind, verb := domain.HistoryKindStatusAdded, "added"
		if !enabled {
			kind, verb = domain.HistoryKindStatusRemoved, "removed"
		}
		entry := newHistoryEntry(o.ID, actor, kind, &name, withComment(fmt.Sprintf("Status \"%s\" %s", name, verb), note))
		if err := s.history.Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}

		order = o
		return nil
	})
	if err != nil {
		log.Warn("status toggle failed",
			zap.String("status", string(name)),
			zap.Bool("enabled", enabled),
			zap.Error(err))
		return nil, err
	}

	metrics.ObserveStatusToggle(string(name), enabled)
	if invoiceSync != nil {
		if invoiceSync.Created {
			metrics.ObserveInvoiceSync(metrics.InvoiceCreated)
		} else {
			metrics.ObserveInvoiceSync(metrics.InvoiceUpdated)
		}
	}

	log.Info("order status toggled",
		zap.String("status", string(name)),
		zap.Bool("enabled", enabled),
		zap.Strings("active", order.Statuses.Strings()))

	data := map[string]interface{}{
		"status":   string(name),
		"enabled":  enabled,
		"statuses": order.Statuses.Strings(),
	}
	if invoiceSync != nil {
		data["invoiceNumber"] = invoiceSync.Invoice.InvoiceNumber
	}
	s.publisher.Publish(ctx, events.New(events.OrderStatusChanged, order.ID, actor.UserID, data))

	verb := "added"
	if !enabled {
		verb = "removed"
	}
	s.notifier.NotifyTeam(ctx, TeamNotice{
		ActorID:    actor.UserID,
		Type:       domain.NotificationTypeOrderStatusChanged,
		Title:      "Order status changed",
		Message:    fmt.Sprintf("%s %s status \"%s\" on the order for %s", actor.Name(), verb, name, order.CompanyName),
		EntityType: "order",
		EntityID:   order.ID,
		ActionURL:  orderActionURL(order.ID),
	})

	return &domain.StatusToggleDTO{
		Order:       s.presenter.one(ctx, order),
		InvoiceSync: invoiceSync.DTO(),
	}, nil
}
