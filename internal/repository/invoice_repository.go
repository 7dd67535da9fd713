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

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create inserts the invoice together with its items
func (r *InvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	return database.Conn(ctx, r.db).Create(invoice).Error
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := database.Conn(ctx, r.db).Preload("Items").First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindBySourceOrder returns the invoice created from an order. Invoices
// linked through source_order_id win; otherwise unlinked invoices whose notes
// carry the order tag are considered, oldest first. Returns
// gorm.ErrRecordNotFound when neither exists.
func (r *InvoiceRepository) FindBySourceOrder(ctx context.Context, orderID string) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := database.Conn(ctx, r.db).
		Preload("Items").
		Where("source_order_id = ?", orderID).
		Order("created_at ASC").
		First(&invoice).Error
	if err == nil {
		return &invoice, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return r.findByLegacyTag(ctx, orderID)
}

func (r *InvoiceRepository) findByLegacyTag(ctx context.Context, orderID string) (*domain.Invoice, error) {
	var candidates []domain.Invoice
	err := database.Conn(ctx, r.db).
		Preload("Items").
		Where("source_order_id IS NULL").
		Where(`notes LIKE ? ESCAPE '\'`, containsPattern(domain.LegacyOrderTag(orderID))).
		Order("created_at ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		if domain.NotesReferenceOrder(candidates[i].Notes, orderID) {
			return &candidates[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// UpdateStatus sets the invoice status. Moving to paid stamps paid_at and
// moving to any other status clears it.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, invoice *domain.Invoice, status domain.InvoiceStatus) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}
	switch {
	case status == domain.InvoiceStatusPaid && invoice.PaidAt == nil:
		updates["paid_at"] = now
	case status != domain.InvoiceStatusPaid && invoice.PaidAt != nil:
		updates["paid_at"] = nil
	}

	err := database.Conn(ctx, r.db).
		Model(&domain.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(updates).Error
	if err != nil {
		return err
	}

	invoice.Status = status
	invoice.UpdatedAt = now
	if paidAt, ok := updates["paid_at"]; ok {
		if paidAt == nil {
			invoice.PaidAt = nil
		} else {
			invoice.PaidAt = &now
		}
	}
	return nil
}

// LinkSourceOrder back-fills the order reference of a legacy invoice
func (r *InvoiceRepository) LinkSourceOrder(ctx context.Context, invoice *domain.Invoice, orderID string) error {
	err := database.Conn(ctx, r.db).
		Model(&domain.Invoice{}).
		Where("id = ?", invoice.ID).
		Update("source_order_id", orderID).Error
	if err != nil {
		return err
	}
	invoice.SourceOrderID = &orderID
	return nil
}

// CountBySourceOrder returns how many invoices are linked to an order
func (r *InvoiceRepository) CountBySourceOrder(ctx context.Context, orderID string) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&domain.Invoice{}).
		Where("source_order_id = ?", orderID).
		Count(&count).Error
	return count, err
}
