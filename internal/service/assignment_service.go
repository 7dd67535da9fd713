package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/events"
	"github.com/opsdesk/opsdesk-api/internal/logger"
	"github.com/opsdesk/opsdesk-api/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInvalidAssignee is returned when assigning to a user that does not exist
var ErrInvalidAssignee = wrap(ErrInvalidInput, "assignee does not exist")

// AssignmentService assigns orders to team members
type AssignmentService struct {
	tx        Transactor
	orders    OrderStore
	history   HistoryStore
	users     UserDirectory
	publisher events.Publisher
	notifier  TeamNotifier
	presenter *orderPresenter
	logger    *zap.Logger
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(
	tx Transactor,
	orders OrderStore,
	history HistoryStore,
	users UserDirectory,
	reminders PaymentReminderStore,
	publisher events.Publisher,
	notifier TeamNotifier,
	logger *zap.Logger,
) *AssignmentService {
	return &AssignmentService{
		tx:        tx,
		orders:    orders,
		history:   history,
		users:     users,
		publisher: publisher,
		notifier:  notifier,
		presenter: newOrderPresenter(history, users, reminders, logger),
		logger:    logger,
	}
}

// AssignOrder assigns an order to a user, or clears the assignment when
// assigneeID is empty or "unassigned". Assigning to the current assignee
// changes nothing and records nothing. Admin only.
func (s *AssignmentService) AssignOrder(ctx context.Context, orderID, assigneeID, note string) (*domain.OrderDTO, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	target := strings.TrimSpace(assigneeID)
	if target == domain.UnassignedSentinel {
		target = ""
	}

	log := logger.WithOrder(s.logger, orderID, actor.UserID)

	var order *domain.Order
	var assigneeName string
	changed := false

	err = s.tx.Do(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return orderError(err)
		}
		order = o

		if o.AssigneeID() == target {
			return nil
		}

		var entry *domain.OrderStatusHistory
		if target == "" {
			o.AssignedToID = nil
			entry = newHistoryEntry(o.ID, actor, domain.HistoryKindUnassigned, nil, withComment("Order unassigned", note))
		} else {
			user, err := s.users.GetByID(ctx, target)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", ErrInvalidAssignee, target)
				}
				return fmt.Errorf("failed to resolve assignee: %w", err)
			}
			assigneeName = user.ResolvedName()
			assignee := target
			o.AssignedToID = &assignee
			entry = newHistoryEntry(o.ID, actor, domain.HistoryKindAssigned, nil, withComment("Order assigned to "+assigneeName, note))
		}

		if err := s.orders.Update(ctx, o); err != nil {
			return orderError(err)
		}
		if err := s.history.Append(ctx, entry); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}

		changed = true
		return nil
	})
	if err != nil {
		log.Warn("assignment failed", zap.String("assignee_id", target), zap.Error(err))
		return nil, err
	}

	if !changed {
		log.Debug("assignment unchanged", zap.String("assignee_id", target))
		dto := s.presenter.one(ctx, order)
		return &dto, nil
	}

	action := "assigned"
	message := fmt.Sprintf("%s assigned the order for %s to %s", actor.Name(), order.CompanyName, assigneeName)
	if target == "" {
		action = "unassigned"
		message = fmt.Sprintf("%s unassigned the order for %s", actor.Name(), order.CompanyName)
	}
	metrics.ObserveAssignment(action)

	log.Info("order "+action, zap.String("assignee_id", target))

	s.publisher.Publish(ctx, events.New(events.OrderAssigned, order.ID, actor.UserID, map[string]interface{}{
		"assigneeId":   target,
		"assigneeName": assigneeName,
	}))

	s.notifier.NotifyTeam(ctx, TeamNotice{
		ActorID:    actor.UserID,
		Type:       domain.NotificationTypeOrderAssigned,
		Title:      "Order " + action,
		Message:    message,
		EntityType: "order",
		EntityID:   order.ID,
		ActionURL:  orderActionURL(order.ID),
	})

	dto := s.presenter.one(ctx, order)
	return &dto, nil
}
