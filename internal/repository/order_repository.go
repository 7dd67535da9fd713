package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/domain"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return database.Conn(ctx, r.db).Create(order).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := database.Conn(ctx, r.db).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Update writes the mutable columns of order if its version is still the one
// that was read. On success order.Version and order.UpdatedAt are advanced;
// otherwise ErrStaleWrite is returned and nothing is written.
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	now := time.Now().UTC()
	result := database.Conn(ctx, r.db).
		Model(&domain.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]interface{}{
			"company_name":      order.CompanyName,
			"contact_name":      order.ContactName,
			"contact_email":     order.ContactEmail,
			"contact_phone":     order.ContactPhone,
			"description":       order.Description,
			"price":             order.Price,
			"currency":          order.Currency,
			"priority":          order.Priority,
			"status_flags":      order.Statuses,
			"assigned_to_id":    order.AssignedToID,
			"is_yearly_package": order.IsYearlyPackage,
			"version":           order.Version + 1,
			"updated_at":        now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleWrite
	}
	order.Version++
	order.UpdatedAt = now
	return nil
}

// Delete permanently removes an order together with its history, payment
// reminder and notifications. Invoices are kept and lose their link.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	conn := database.Conn(ctx, r.db)
	if err := conn.Where("order_id = ?", id).Delete(&domain.OrderStatusHistory{}).Error; err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if err := conn.Where("order_id = ?", id).Delete(&domain.PaymentReminder{}).Error; err != nil {
		return fmt.Errorf("delete payment reminder: %w", err)
	}
	if err := conn.Where("entity_type = ? AND entity_id = ?", "order", id).Delete(&domain.Notification{}).Error; err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	if err := conn.Model(&domain.Invoice{}).Where("source_order_id = ?", id).Update("source_order_id", nil).Error; err != nil {
		return fmt.Errorf("unlink invoices: %w", err)
	}
	result := conn.Delete(&domain.Order{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	var orders []domain.Order
	var total int64

	page, pageSize := NormalizePagination(filter.Page, filter.PageSize)
	query := applyOrderFilter(database.Conn(ctx, r.db).Model(&domain.Order{}), filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error

	return orders, total, err
}

// CountByStatus counts orders per active status in the view selected by
// filter. The status part of the filter is ignored. total is the number of
// orders in the view.
func (r *OrderRepository) CountByStatus(ctx context.Context, filter domain.OrderFilter) (map[domain.StatusName]int64, int64, error) {
	filter.Statuses = nil
	var flags []int64
	err := applyOrderFilter(database.Conn(ctx, r.db).Model(&domain.Order{}), filter).
		Pluck("status_flags", &flags).Error
	if err != nil {
		return nil, 0, err
	}

	counts := make(map[domain.StatusName]int64, len(domain.AllStatuses))
	for _, s := range domain.AllStatuses {
		counts[s] = 0
	}
	for _, f := range flags {
		for _, s := range domain.StatusSet(f).Names() {
			counts[s]++
		}
	}
	return counts, int64(len(flags)), nil
}

func applyOrderFilter(query *gorm.DB, filter domain.OrderFilter) *gorm.DB {
	deleted := domain.NewStatusSet(domain.StatusDeleted)

	if len(filter.Statuses) > 0 {
		mask := domain.NewStatusSet(filter.Statuses...)
		query = query.Where("(status_flags & ?) <> 0", int64(mask))
		if mask.Has(domain.StatusDeleted) {
			filter.IncludeDeleted = true
		}
	}
	if !filter.IncludeDeleted {
		query = query.Where("(status_flags & ?) = 0", int64(deleted))
	}

	query = query.Where("is_yearly_package = ?", filter.YearlyPackage)

	if filter.AssignedToID != nil {
		if *filter.AssignedToID == domain.UnassignedSentinel {
			query = query.Where("assigned_to_id IS NULL")
		} else {
			query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
		}
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(strings.ToLower(search))
		query = query.Where(
			`(LOWER(company_name) LIKE ? ESCAPE '\' OR LOWER(contact_name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(id) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern, pattern,
		)
	}

	return query
}
