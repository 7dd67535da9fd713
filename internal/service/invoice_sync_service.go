package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opsdesk/opsdesk-api/internal/domain"
	"github.com/opsdesk/opsdesk-api/internal/mapper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InvoiceSyncConfig holds the billing defaults for invoices created from orders
type InvoiceSyncConfig struct {
	VATRate  float64
	Currency string
	DueDays  int
}

// InvoiceSyncResult describes what the invoice side effect did
type InvoiceSyncResult struct {
	Invoice       *domain.Invoice
	Created       bool
	ClientCreated bool
	Warnings      []string
}

// DTO converts the result for API responses
func (r *InvoiceSyncResult) DTO() *domain.InvoiceSyncDTO {
	if r == nil || r.Invoice == nil {
		return nil
	}
	return &domain.InvoiceSyncDTO{
		InvoiceID:     r.Invoice.ID,
		InvoiceNumber: r.Invoice.InvoiceNumber,
		Status:        string(r.Invoice.Status),
		Created:       r.Created,
		ClientCreated: r.ClientCreated,
		Warnings:      r.Warnings,
	}
}

// InvoiceSyncService keeps the invoice of an order in step with the order's
// invoice statuses. It writes through the stores of the caller's unit of
// work, so a failure here rolls back the status change that triggered it.
type InvoiceSyncService struct {
	invoices InvoiceStore
	clients  ClientStore
	numbers  NumberGenerator
	cfg      InvoiceSyncConfig
	now      func() time.Time
	logger   *zap.Logger
}

// NewInvoiceSyncService creates a new InvoiceSyncService
func NewInvoiceSyncService(
	invoices InvoiceStore,
	clients ClientStore,
	numbers NumberGenerator,
	cfg InvoiceSyncConfig,
	logger *zap.Logger,
) *InvoiceSyncService {
	return &InvoiceSyncService{
		invoices: invoices,
		clients:  clients,
		numbers:  numbers,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
	}
}

// SyncInvoiceForOrder brings the order's invoice to the invoice status implied
// by status, creating the client and invoice when the order has none yet.
func (s *InvoiceSyncService) SyncInvoiceForOrder(ctx context.Context, order *domain.Order, status domain.StatusName) (*InvoiceSyncResult, error) {
	target, ok := status.ImpliedInvoiceStatus()
	if !ok {
		return nil, fmt.Errorf("%w: %q has no invoice side effect", ErrInvalidStatus, status)
	}

	invoice, err := s.invoices.FindBySourceOrder(ctx, order.ID)
	switch {
	case err == nil:
		return s.updateExisting(ctx, order, invoice, target)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to look up invoice: %w", err)
	}

	return s.createForOrder(ctx, order, target)
}

func (s *InvoiceSyncService) updateExisting(ctx context.Context, order *domain.Order, invoice *domain.Invoice, target domain.InvoiceStatus) (*InvoiceSyncResult, error) {
	if invoice.SourceOrderID == nil {
		if err := s.invoices.LinkSourceOrder(ctx, invoice, order.ID); err != nil {
			return nil, fmt.Errorf("failed to link invoice to order: %w", err)
		}
		s.logger.Info("linked legacy invoice to order",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.String("order_id", order.ID))
	}

	if err := s.invoices.UpdateStatus(ctx, invoice, target); err != nil {
		return nil, fmt.Errorf("failed to update invoice status: %w", err)
	}

	s.logger.Info("updated invoice for order",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("order_id", order.ID),
		zap.String("status", string(target)))

	return &InvoiceSyncResult{Invoice: invoice}, nil
}

func (s *InvoiceSyncService) createForOrder(ctx context.Context, order *domain.Order, target domain.InvoiceStatus) (*InvoiceSyncResult, error) {
	result := &InvoiceSyncResult{Created: true}

	client, err := s.clients.FindByName(ctx, order.CompanyName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		client, err = s.createClient(ctx, order, result)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve client: %w", err)
	}

	number, err := s.numbers.GenerateInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	subtotal := domain.RoundMoney(order.Price)
	vat := domain.RoundMoney(subtotal * s.cfg.VATRate / 100)
	orderID := order.ID

	description := strings.TrimSpace(order.Description)
	if description == "" {
		description = "Order " + order.ID
	}

	invoice := &domain.Invoice{
		InvoiceNumber: number,
		ClientID:      client.ID,
		ClientName:    client.Name,
		SourceOrderID: &orderID,
		Status:        target,
		IssueDate:     now,
		DueDate:       now.AddDate(0, 0, s.cfg.DueDays),
		Currency:      s.cfg.Currency,
		VATRate:       s.cfg.VATRate,
		Subtotal:      subtotal,
		VATAmount:     vat,
		Total:         domain.RoundMoney(subtotal + vat),
		Notes:         fmt.Sprintf("Invoice for %s\n%s", order.CompanyName, domain.LegacyOrderTag(order.ID)),
		Items: []domain.InvoiceItem{
			{
				Description: description,
				Quantity:    1,
				UnitPrice:   subtotal,
				Amount:      subtotal,
			},
		},
	}
	if target == domain.InvoiceStatusPaid {
		invoice.PaidAt = &now
	}

	if err := s.invoices.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.logger.Info("created invoice for order",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("order_id", order.ID),
		zap.String("status", string(target)),
		zap.Float64("total", invoice.Total))

	result.Invoice = invoice
	return result, nil
}

func (s *InvoiceSyncService) createClient(ctx context.Context, order *domain.Order, result *InvoiceSyncResult) (*domain.Client, error) {
	client := &domain.Client{
		Name:  order.CompanyName,
		Email: strings.TrimSpace(order.ContactEmail),
	}
	client.NeedsReview = client.Email == ""

	created, err := s.clients.CreateIfAbsent(ctx, client)
	if err != nil {
		return nil, err
	}
	if !created {
		return client, nil
	}

	result.ClientCreated = true
	if client.NeedsReview {
		warning := fmt.Sprintf("client %q was created without an email address and needs review", client.Name)
		result.Warnings = append(result.Warnings, warning)
		s.logger.Warn("created client without email",
			zap.String("client", client.Name),
			zap.String("order_id", order.ID))
	}
	return client, nil
}

// GetInvoiceForOrder returns the invoice created from an order
func (s *InvoiceSyncService) GetInvoiceForOrder(ctx context.Context, orderID string) (*domain.InvoiceDTO, error) {
	invoice, err := s.invoices.FindBySourceOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	dto := mapper.ToInvoiceDTO(invoice)
	return &dto, nil
}
