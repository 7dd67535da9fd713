package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"gorm.io/gorm"
)

type PaymentReminderRepository struct {
	db *gorm.DB
}

func NewPaymentReminderRepository(db *gorm.DB) *PaymentReminderRepository {
	return &PaymentReminderRepository{db: db}
}

func (r *PaymentReminderRepository) GetByOrder(ctx context.Context, orderID string) (*domain.PaymentReminder, error) {
	var reminder domain.PaymentReminder
	err := database.Conn(ctx, r.db).First(&reminder, "order_id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

// Upsert creates the reminder of an order or reschedules the existing one.
// Rescheduling makes the reminder pending again.
func (r *PaymentReminderRepository) Upsert(ctx context.Context, reminder *domain.PaymentReminder) error {
	conn := database.Conn(ctx, r.db)

	var existing domain.PaymentReminder
	err := conn.Where("order_id = ?", reminder.OrderID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		reminder.Sent = false
		reminder.SentAt = nil
		return conn.Create(reminder).Error
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	err = conn.Model(&domain.PaymentReminder{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"remind_at":     reminder.RemindAt,
			"note":          reminder.Note,
			"sent":          false,
			"sent_at":       nil,
			"created_by_id": reminder.CreatedByID,
			"updated_at":    now,
		}).Error
	if err != nil {
		return err
	}

	reminder.ID = existing.ID
	reminder.CreatedAt = existing.CreatedAt
	reminder.UpdatedAt = now
	reminder.Sent = false
	reminder.SentAt = nil
	return nil
}

// DeleteByOrder removes the reminder of an order. Returns
// gorm.ErrRecordNotFound when there was none.
func (r *PaymentReminderRepository) DeleteByOrder(ctx context.Context, orderID string) error {
	result := database.Conn(ctx, r.db).Where("order_id = ?", orderID).Delete(&domain.PaymentReminder{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListDue returns unsent reminders scheduled at or before now, oldest first
func (r *PaymentReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.PaymentReminder, error) {
	var reminders []domain.PaymentReminder
	query := database.Conn(ctx, r.db).
		Where("sent = ? AND remind_at <= ?", false, now).
		Order("remind_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&reminders).Error
	return reminders, err
}

// MarkSent flags a reminder as delivered
func (r *PaymentReminderRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return database.Conn(ctx, r.db).
		Model(&domain.PaymentReminder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sent":       true,
			"sent_at":    at,
			"updated_at": at,
		}).Error
}

// OrderIDsWithReminder returns which of the given orders have a reminder
func (r *PaymentReminderRepository) OrderIDsWithReminder(ctx context.Context, orderIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	var ids []string
	err := database.Conn(ctx, r.db).
		Model(&domain.PaymentReminder{}).
		Where("order_id IN ?", orderIDs).
		Pluck("order_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
