package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"gorm.io/gorm"
)

// OrderHistoryRepository stores the append-only change log of orders
type OrderHistoryRepository struct {
	db *gorm.DB
}

func NewOrderHistoryRepository(db *gorm.DB) *OrderHistoryRepository {
	return &OrderHistoryRepository{db: db}
}

// Append records entry with the next per-order sequence number. Call it in
// the same transaction as the order write it describes; the unique
// (order_id, sequence) index rejects concurrent appends that slip past the
// order version check.
func (r *OrderHistoryRepository) Append(ctx context.Context, entry *domain.OrderStatusHistory) error {
	conn := database.Conn(ctx, r.db)

	var last int
	err := conn.Model(&domain.OrderStatusHistory{}).
		Where("order_id = ?", entry.OrderID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error
	if err != nil {
		return fmt.Errorf("failed to read history sequence: %w", err)
	}

	entry.Sequence = last + 1
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}
	return conn.Create(entry).Error
}

// ListByOrder returns the history of an order, newest first
func (r *OrderHistoryRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.OrderStatusHistory, error) {
	var history []domain.OrderStatusHistory
	err := database.Conn(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("sequence DESC").
		Find(&history).Error
	return history, err
}

// ListStatusAdditions returns the status_added entries of the given orders,
// grouped by order and newest first within each order
func (r *OrderHistoryRepository) ListStatusAdditions(ctx context.Context, orderIDs []string) (map[string][]domain.OrderStatusHistory, error) {
	result := make(map[string][]domain.OrderStatusHistory, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	var history []domain.OrderStatusHistory
	err := database.Conn(ctx, r.db).
		Where("order_id IN ? AND kind = ?", orderIDs, domain.HistoryKindStatusAdded).
		Order("order_id ASC").
		Order("sequence DESC").
		Find(&history).Error
	if err != nil {
		return nil, err
	}

	for _, h := range history {
		result[h.OrderID] = append(result[h.OrderID], h)
	}
	return result, nil
}

// CountByOrder returns the number of history entries of an order
func (r *OrderHistoryRepository) CountByOrder(ctx context.Context, orderID string) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&domain.OrderStatusHistory{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}
