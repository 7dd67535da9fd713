package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/events"
	"github.com/opsdesk/opsdesk-api/internal/mapper"
	"github.com/opsdesk/opsdesk-api/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// dueReminderBatch caps how many reminders one scheduler run handles
const dueReminderBatch = 100

// PaymentReminderService schedules and delivers payment reminders
type PaymentReminderService struct {
	orders    OrderStore
	reminders PaymentReminderStore
	publisher events.Publisher
	notifier  TeamNotifier
	logger    *zap.Logger
}

// NewPaymentReminderService creates a new PaymentReminderService
func NewPaymentReminderService(
	orders OrderStore,
	reminders PaymentReminderStore,
	publisher events.Publisher,
	notifier TeamNotifier,
	logger *zap.Logger,
) *PaymentReminderService {
	return &PaymentReminderService{
		orders:    orders,
		reminders: reminders,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
	}
}

// Get returns the reminder of an order
func (s *PaymentReminderService) Get(ctx context.Context, orderID string) (*domain.PaymentReminderDTO, error) {
	reminder, err := s.reminders.GetByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReminderNotFound
		}
		return nil, fmt.Errorf("failed to get payment reminder: %w", err)
	}
	dto := mapper.ToPaymentReminderDTO(reminder)
	return &dto, nil
}

// Schedule creates or reschedules the reminder of an order. remindAt is an
// RFC 3339 timestamp. Admins and agents only.
func (s *PaymentReminderService) Schedule(ctx context.Context, orderID, remindAt, note string) (*domain.PaymentReminderDTO, error) {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleAgent)
	if err != nil {
		return nil, err
	}

	at, err := time.Parse(time.RFC3339, strings.TrimSpace(remindAt))
	if err != nil {
		return nil, fmt.Errorf("%w: remindAt must be an RFC 3339 timestamp", ErrInvalidInput)
	}

	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, orderError(err)
	}

	reminder := &domain.PaymentReminder{
		OrderID:     orderID,
		RemindAt:    at.UTC(),
		Note:        strings.TrimSpace(note),
		CreatedByID: actor.UserID,
	}
	if err := s.reminders.Upsert(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to schedule payment reminder: %w", err)
	}

	s.logger.Info("payment reminder scheduled",
		zap.String("order_id", orderID),
		zap.String("user_id", actor.UserID),
		zap.Time("remind_at", reminder.RemindAt))

	dto := mapper.ToPaymentReminderDTO(reminder)
	return &dto, nil
}

// Cancel removes the reminder of an order. Admins and agents only.
func (s *PaymentReminderService) Cancel(ctx context.Context, orderID string) error {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleAgent)
	if err != nil {
		return err
	}

	if err := s.reminders.DeleteByOrder(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReminderNotFound
		}
		return fmt.Errorf("failed to cancel payment reminder: %w", err)
	}

	s.logger.Info("payment reminder cancelled",
		zap.String("order_id", orderID),
		zap.String("user_id", actor.UserID))
	return nil
}

// ProcessDue notifies the team about every unsent reminder due at now and
// marks it sent. It returns how many reminders were delivered. A reminder
// whose order is gone is marked sent without a notice.
func (s *PaymentReminderService) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.reminders.ListDue(ctx, now, dueReminderBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list due payment reminders: %w", err)
	}

	sent := 0
	for i := range due {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		reminder := &due[i]
		log := s.logger.With(zap.String("order_id", reminder.OrderID), zap.String("reminder_id", reminder.ID.String()))

		order, err := s.orders.GetByID(ctx, reminder.OrderID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			log.Warn("payment reminder for missing order")
		case err != nil:
			metrics.ObserveReminder(false)
			log.Warn("failed to load order for payment reminder", zap.Error(err))
			continue
		default:
			message := fmt.Sprintf("Payment reminder for the order for %s", order.CompanyName)
			if reminder.Note != "" {
				message += ": " + reminder.Note
			}
			s.notifier.NotifyTeam(ctx, TeamNotice{
				Type:       domain.NotificationTypePaymentReminder,
				Title:      "Payment reminder",
				Message:    message,
				EntityType: "order",
				EntityID:   order.ID,
				ActionURL:  orderActionURL(order.ID),
			})
		}

		if err := s.reminders.MarkSent(ctx, reminder.ID, now.UTC()); err != nil {
			metrics.ObserveReminder(false)
			log.Warn("failed to mark payment reminder sent", zap.Error(err))
			continue
		}

		metrics.ObserveReminder(true)
		sent++
		if order != nil {
			s.publisher.Publish(ctx, events.New(events.PaymentReminderDue, order.ID, "", map[string]interface{}{
				"remindAt": reminder.RemindAt.Format(time.RFC3339),
				"note":     reminder.Note,
			}))
		}
	}

	if sent > 0 {
		s.logger.Info("processed due payment reminders", zap.Int("sent", sent), zap.Int("due", len(due)))
	}
	return sent, nil
}
